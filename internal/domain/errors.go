package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStoredSession is the normal cold-start state, not a failure.
	ErrNoStoredSession = errors.New("no stored session")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrProfileNotFound = errors.New("profile not found")
)

// AuthError reports a failure the backend attributes to credentials or to a
// token: an error field in an otherwise well-formed response, or a response
// missing the identity it was asked for. Distinct from NetworkError so a
// caller can offer "re-enter credentials" instead of "check connection".
type AuthError struct {
	Op     string
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return e.Op + ": authentication failed"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	Op         string
	StatusCode int // zero when the request never completed
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return e.Op + ": network failure"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ConfigError reports required configuration that is absent. Fatal to the
// operation and surfaced before any network call is attempted.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return "missing required setting: " + e.Setting
}

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
