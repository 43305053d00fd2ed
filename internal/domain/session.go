package domain

import (
	"errors"
	"strings"
)

// Credentials is the raw login input for one attempt. It is handed to the
// token exchange and discarded; the password is never persisted.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return errors.New("username is required")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// TokenGrant is the result of a token exchange with the LMS.
type TokenGrant struct {
	Token        string
	PrivateToken string
}

// LMSIdentity is the site-info view of the authenticated user.
type LMSIdentity struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// LmsSession is the authenticated LMS identity. UserID is only resolved
// after a successful identity lookup; a session restored from storage
// carries an empty UserID until the first authenticated call resolves it.
type LmsSession struct {
	Token    string
	UserID   string
	Username string
}

// ConferencingIdentity is the identity presented to the conferencing
// provider. Synthetic marks a best-effort derivation from the LMS username
// that was never verified against the provider; callers must surface it as
// unverified, not as a successful authentication.
type ConferencingIdentity struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	Synthetic   bool
}

// ConferencingToken is an access token obtained from the conferencing
// provider, typically via Server-to-Server OAuth.
type ConferencingToken struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Scope        string
	ExpiresIn    int64
}
