package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

type fakeLMS struct {
	mu sync.Mutex

	exchangeCalls int32
	exchangeErr   error
	exchangeGate  chan struct{}
	grant         domain.TokenGrant

	identityCalls int32
	identityErr   error
	identity      domain.LMSIdentity

	courses    []domain.Course
	coursesErr error

	meetingsByCourse map[int64][]domain.MeetingLink
	meetingsErrs     map[int64]error
	meetingCalls     int32
	meetingBarrier   chan struct{}
}

func (f *fakeLMS) ExchangeToken(ctx context.Context, username, password string) (domain.TokenGrant, error) {
	atomic.AddInt32(&f.exchangeCalls, 1)
	if f.exchangeGate != nil {
		<-f.exchangeGate
	}
	if f.exchangeErr != nil {
		return domain.TokenGrant{}, f.exchangeErr
	}
	return f.grant, nil
}

func (f *fakeLMS) FetchIdentity(ctx context.Context, token string) (domain.LMSIdentity, error) {
	atomic.AddInt32(&f.identityCalls, 1)
	if f.identityErr != nil {
		return domain.LMSIdentity{}, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeLMS) ListCourses(ctx context.Context, token, userID string) ([]domain.Course, error) {
	if f.coursesErr != nil {
		return nil, f.coursesErr
	}
	return f.courses, nil
}

func (f *fakeLMS) ListCourseMeetings(ctx context.Context, token string, courseID int64) ([]domain.MeetingLink, error) {
	atomic.AddInt32(&f.meetingCalls, 1)
	if f.meetingBarrier != nil {
		f.meetingBarrier <- struct{}{}
		<-f.meetingBarrier
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.meetingsErrs[courseID]; ok {
		return nil, err
	}
	return f.meetingsByCourse[courseID], nil
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string

	putErrs    map[string]error
	getErr     error
	deleteErr  error
	putCalls   []string
	deleteKeys []string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("credential %q: %w", key, domain.ErrNoStoredSession)
	}
	return value, nil
}

func (s *memStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls = append(s.putCalls, key)
	if err, ok := s.putErrs[key]; ok {
		return err
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteKeys = append(s.deleteKeys, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.values, key)
	return nil
}

func (s *memStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func validCreds() domain.Credentials {
	return domain.Credentials{Username: "jane.doe", Password: "hunter2"}
}

func TestLoginPersistsTokenAndUsername(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:    domain.TokenGrant{Token: "tok-123"},
		identity: domain.LMSIdentity{ID: "42", Username: "jane.doe"},
	}
	store := newMemStore()
	svc := NewSessionService(lms, store, nil)

	session, err := svc.Login(context.Background(), validCreds())
	require.NoError(t, err)

	assert.Equal(t, "tok-123", session.Token)
	assert.Equal(t, "42", session.UserID)
	assert.Equal(t, "jane.doe", session.Username)
	assert.Equal(t, StateLoggedIn, svc.State())

	stored := store.snapshot()
	assert.Equal(t, "tok-123", stored[KeyLMSToken])
	assert.Equal(t, "jane.doe", stored[KeyLMSUsername])
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{}
	svc := NewSessionService(lms, newMemStore(), nil)

	_, err := svc.Login(context.Background(), domain.Credentials{Username: "jane.doe"})
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&lms.exchangeCalls))
}

func TestLoginExchangeFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		exchangeErr: &domain.AuthError{Op: "exchange token", Reason: "invalid login"},
	}
	store := newMemStore()
	svc := NewSessionService(lms, store, nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.True(t, domain.IsAuthError(err))

	assert.Empty(t, store.snapshot())
	assert.Equal(t, StateLoggedOut, svc.State())
	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestLoginIdentityFailurePersistsNothing(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:       domain.TokenGrant{Token: "tok-123"},
		identityErr: &domain.NetworkError{Op: "fetch site info", StatusCode: 503},
	}
	store := newMemStore()
	svc := NewSessionService(lms, store, nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.True(t, domain.IsNetworkError(err))
	assert.Empty(t, store.snapshot())
}

func TestLoginRollsBackTokenWhenUsernamePersistFails(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:    domain.TokenGrant{Token: "tok-123"},
		identity: domain.LMSIdentity{ID: "42"},
	}
	store := newMemStore()
	store.putErrs = map[string]error{KeyLMSUsername: errors.New("disk full")}
	svc := NewSessionService(lms, store, nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.Error(t, err)

	assert.NotContains(t, store.snapshot(), KeyLMSToken)
	assert.Equal(t, StateLoggedOut, svc.State())
}

func TestLoginRetryAfterNetworkFailureSucceeds(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		exchangeErr: &domain.NetworkError{Op: "exchange token", Err: errors.New("connection refused")},
	}
	store := newMemStore()
	svc := NewSessionService(lms, store, nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.True(t, domain.IsNetworkError(err))

	lms.exchangeErr = nil
	lms.grant = domain.TokenGrant{Token: "tok-456"}
	lms.identity = domain.LMSIdentity{ID: "42"}

	session, err := svc.Login(context.Background(), validCreds())
	require.NoError(t, err)
	assert.Equal(t, "tok-456", session.Token)
}

func TestConcurrentLoginsShareOneRoundTrip(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:        domain.TokenGrant{Token: "tok-shared"},
		identity:     domain.LMSIdentity{ID: "42"},
		exchangeGate: make(chan struct{}),
	}
	svc := NewSessionService(lms, newMemStore(), nil)

	const callers = 5
	sessions := make([]domain.LmsSession, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i], errs[i] = svc.Login(context.Background(), validCreds())
		}()
	}

	// Hold the exchange open long enough for every caller to pile onto the
	// same in-flight attempt, then release it once.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&lms.exchangeCalls) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(lms.exchangeGate)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-shared", sessions[i].Token)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&lms.exchangeCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&lms.identityCalls))
}

func TestRestoreRebuildsSessionWithoutNetwork(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{}
	store := newMemStore()
	store.values[KeyLMSToken] = "tok-restored"
	store.values[KeyLMSUsername] = "jane.doe"
	svc := NewSessionService(lms, store, nil)

	session, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "tok-restored", session.Token)
	assert.Equal(t, "jane.doe", session.Username)
	assert.Equal(t, StateLoggedIn, svc.State())
	assert.Zero(t, atomic.LoadInt32(&lms.exchangeCalls))
	assert.Zero(t, atomic.LoadInt32(&lms.identityCalls))
}

func TestRestoreWithNoStoredSessionIsLoggedOut(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(&fakeLMS{}, newMemStore(), nil)

	_, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateLoggedOut, svc.State())
}

func TestRestoreTreatsStoreFailureAsAbsence(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.getErr = errors.New("keyring locked")
	svc := NewSessionService(&fakeLMS{}, store, nil)

	_, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestorePropagatesContextCancellation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.getErr = context.Canceled
	svc := NewSessionService(&fakeLMS{}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := svc.Restore(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestLogoutClearsSessionAndStoredCredentials(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:    domain.TokenGrant{Token: "tok-123"},
		identity: domain.LMSIdentity{ID: "42"},
	}
	store := newMemStore()
	svc := NewSessionService(lms, store, nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))

	assert.Equal(t, StateLoggedOut, svc.State())
	_, ok := svc.Current()
	assert.False(t, ok)
	assert.NotContains(t, store.snapshot(), KeyLMSToken)
	assert.NotContains(t, store.snapshot(), KeyLMSUsername)
}

func TestLogoutWhileLoggedOutIsNoOp(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(&fakeLMS{}, newMemStore(), nil)

	require.NoError(t, svc.Logout(context.Background()))
	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, StateLoggedOut, svc.State())
}

func TestSetConferencingIdentityRequiresLogin(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(&fakeLMS{}, newMemStore(), nil)

	err := svc.SetConferencingIdentity(domain.ConferencingIdentity{Email: "jane.doe@school.edu"})
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestSetConferencingIdentityAttachesToSession(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:    domain.TokenGrant{Token: "tok-123"},
		identity: domain.LMSIdentity{ID: "42"},
	}
	svc := NewSessionService(lms, newMemStore(), nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.NoError(t, err)

	identity := domain.ConferencingIdentity{Email: "jane.doe@school.edu", Synthetic: true}
	require.NoError(t, svc.SetConferencingIdentity(identity))

	got, ok := svc.ConferencingIdentity()
	require.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestLoginResetsConferencingIdentity(t *testing.T) {
	t.Parallel()

	lms := &fakeLMS{
		grant:    domain.TokenGrant{Token: "tok-123"},
		identity: domain.LMSIdentity{ID: "42"},
	}
	svc := NewSessionService(lms, newMemStore(), nil)

	_, err := svc.Login(context.Background(), validCreds())
	require.NoError(t, err)
	require.NoError(t, svc.SetConferencingIdentity(domain.ConferencingIdentity{Email: "jane.doe@school.edu"}))

	_, err = svc.Login(context.Background(), validCreds())
	require.NoError(t, err)

	_, ok := svc.ConferencingIdentity()
	assert.False(t, ok)
}
