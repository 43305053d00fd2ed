package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

type SessionState string

const (
	StateLoggedOut SessionState = "logged_out"
	StateRestoring SessionState = "restoring"
	StateLoggingIn SessionState = "logging_in"
	StateLoggedIn  SessionState = "logged_in"
)

// Credential store keys, one namespace per provider.
const (
	KeyLMSToken    = "moodle/token"
	KeyLMSUsername = "moodle/username"

	KeyZoomAccessToken  = "zoom/access_token"
	KeyZoomRefreshToken = "zoom/refresh_token"
	KeyZoomUserEmail    = "zoom/user_email"
	KeyZoomExpiresAt    = "zoom/token_expires_at"
)

// SessionService owns the active session for the process lifetime. Only
// Login, Restore and Logout write session state; the session value itself is
// immutable until replaced, so concurrent readers need no coordination
// beyond the snapshot lock.
type SessionService struct {
	lms   ports.LMSGateway
	store ports.CredentialStore
	clock ports.Clock

	// At most one login round trip is in flight per service instance;
	// concurrent callers observe the same pending outcome.
	login singleflight.Group

	mu           sync.RWMutex
	state        SessionState
	session      *domain.LmsSession
	conferencing *domain.ConferencingIdentity
}

func NewSessionService(lms ports.LMSGateway, store ports.CredentialStore, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{
		lms:   lms,
		store: store,
		clock: clock,
		state: StateLoggedOut,
	}
}

func (s *SessionService) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a snapshot of the active session.
func (s *SessionService) Current() (domain.LmsSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return domain.LmsSession{}, false
	}
	return *s.session, true
}

func (s *SessionService) ConferencingIdentity() (domain.ConferencingIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conferencing == nil {
		return domain.ConferencingIdentity{}, false
	}
	return *s.conferencing, true
}

// Restore reconstructs the session from the credential store on cold start.
// The stored token is trusted without a validation round trip; a stale token
// surfaces as an AuthError on the first authenticated call instead. A
// missing record is the normal logged-out initial state, not an error.
func (s *SessionService) Restore(ctx context.Context) (domain.LmsSession, bool, error) {
	s.setState(StateRestoring)

	token, err := s.store.Get(ctx, KeyLMSToken)
	if err != nil {
		s.setState(StateLoggedOut)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.LmsSession{}, false, ctxErr
		}
		return domain.LmsSession{}, false, nil
	}

	username, err := s.store.Get(ctx, KeyLMSUsername)
	if err != nil {
		s.setState(StateLoggedOut)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.LmsSession{}, false, ctxErr
		}
		return domain.LmsSession{}, false, nil
	}

	if token == "" || username == "" {
		s.setState(StateLoggedOut)
		return domain.LmsSession{}, false, nil
	}

	session := domain.LmsSession{Token: token, Username: username}

	s.mu.Lock()
	s.session = &session
	s.state = StateLoggedIn
	s.mu.Unlock()

	return session, true, nil
}

// Login runs the two-stage handshake: token exchange, then identity lookup.
// On success the token and username are persisted; on failure at either
// stage nothing is persisted and a partially obtained token is discarded.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (domain.LmsSession, error) {
	if err := creds.Validate(); err != nil {
		return domain.LmsSession{}, err
	}

	result, err, _ := s.login.Do("login", func() (any, error) {
		return s.doLogin(ctx, creds)
	})
	if err != nil {
		return domain.LmsSession{}, err
	}

	return result.(domain.LmsSession), nil
}

func (s *SessionService) doLogin(ctx context.Context, creds domain.Credentials) (domain.LmsSession, error) {
	s.setState(StateLoggingIn)

	username := strings.TrimSpace(creds.Username)

	grant, err := s.lms.ExchangeToken(ctx, username, creds.Password)
	if err != nil {
		s.setState(StateLoggedOut)
		return domain.LmsSession{}, fmt.Errorf("login: %w", err)
	}

	identity, err := s.lms.FetchIdentity(ctx, grant.Token)
	if err != nil {
		s.setState(StateLoggedOut)
		return domain.LmsSession{}, fmt.Errorf("login: %w", err)
	}

	if err := s.store.Put(ctx, KeyLMSToken, grant.Token); err != nil {
		s.setState(StateLoggedOut)
		return domain.LmsSession{}, fmt.Errorf("persist session token: %w", err)
	}
	if err := s.store.Put(ctx, KeyLMSUsername, username); err != nil {
		if rollbackErr := s.store.Delete(ctx, KeyLMSToken); rollbackErr != nil {
			err = errors.Join(err, rollbackErr)
		}
		s.setState(StateLoggedOut)
		return domain.LmsSession{}, fmt.Errorf("persist session username: %w", err)
	}

	session := domain.LmsSession{
		Token:    grant.Token,
		UserID:   identity.ID,
		Username: username,
	}

	s.mu.Lock()
	s.session = &session
	s.conferencing = nil
	s.state = StateLoggedIn
	s.mu.Unlock()

	return session, nil
}

// SetConferencingIdentity attaches a bridged identity to the active
// session. Valid only while logged in.
func (s *SessionService) SetConferencingIdentity(identity domain.ConferencingIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return domain.ErrNotLoggedIn
	}

	s.conferencing = &identity
	return nil
}

// Logout clears the in-memory session and the stored credentials.
// Idempotent: logging out while logged out is a no-op.
func (s *SessionService) Logout(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyLMSToken, KeyLMSUsername} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.session = nil
	s.conferencing = nil
	s.state = StateLoggedOut
	s.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("clear stored session: %w", errors.Join(errs...))
	}
	return nil
}

func (s *SessionService) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
