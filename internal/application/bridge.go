package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

type BridgeState string

const (
	BridgeUnauthenticated     BridgeState = "unauthenticated"
	BridgeEmailDerived        BridgeState = "email_derived"
	BridgeIdentitySynthesized BridgeState = "identity_synthesized"
	BridgeServerTokenObtained BridgeState = "server_token_obtained"
	BridgeUserInfoFetched     BridgeState = "user_info_fetched"
)

var ErrBridgeAlreadyLinked = errors.New("conferencing identity already linked")

// Bridge maps the authenticated LMS identity onto a conferencing-provider
// identity. Two paths exist: the derivation path synthesizes a placeholder
// identity from the institutional email convention without any provider
// round trip, and the server path performs a real Server-to-Server OAuth
// exchange. Once linked, only a full logout (Reset) returns the bridge to
// Unauthenticated.
type Bridge struct {
	gateway     ports.ConferencingGateway
	store       ports.CredentialStore
	clock       ports.Clock
	emailDomain string

	mu       sync.Mutex
	state    BridgeState
	identity *domain.ConferencingIdentity
}

func NewBridge(gateway ports.ConferencingGateway, store ports.CredentialStore, clock ports.Clock, emailDomain string) *Bridge {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Bridge{
		gateway:     gateway,
		store:       store,
		clock:       clock,
		emailDomain: emailDomain,
		state:       BridgeUnauthenticated,
	}
}

func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) Identity() (domain.ConferencingIdentity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.identity == nil {
		return domain.ConferencingIdentity{}, false
	}
	return *b.identity, true
}

// AutoLink derives the institutional email from the LMS username and
// synthesizes a placeholder identity from it. No provider round trip; the
// result is explicitly marked Synthetic.
func (b *Bridge) AutoLink(lmsUsername string) (domain.ConferencingIdentity, error) {
	if b.emailDomain == "" {
		return domain.ConferencingIdentity{}, &domain.ConfigError{Setting: "email_domain"}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BridgeUnauthenticated {
		return domain.ConferencingIdentity{}, ErrBridgeAlreadyLinked
	}

	email := domain.DeriveEmail(lmsUsername, b.emailDomain)
	b.state = BridgeEmailDerived

	identity := domain.SynthesizeIdentity(email)
	b.identity = &identity
	b.state = BridgeIdentitySynthesized

	return identity, nil
}

// ManualLink accepts a user-entered conferencing email, gated on the
// institutional domain, and synthesizes a placeholder identity from it.
func (b *Bridge) ManualLink(email string) (domain.ConferencingIdentity, error) {
	if b.emailDomain == "" {
		return domain.ConferencingIdentity{}, &domain.ConfigError{Setting: "email_domain"}
	}
	if !domain.ValidateDomain(email, b.emailDomain) {
		return domain.ConferencingIdentity{}, fmt.Errorf("email must belong to the institutional domain %s", b.emailDomain)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BridgeUnauthenticated {
		return domain.ConferencingIdentity{}, ErrBridgeAlreadyLinked
	}
	b.state = BridgeEmailDerived

	identity := domain.SynthesizeIdentity(email)
	b.identity = &identity
	b.state = BridgeIdentitySynthesized

	return identity, nil
}

// ServerLink performs the Server-to-Server OAuth exchange and resolves the
// real account behind it, persisting the obtained tokens and email under
// the conferencing namespace.
func (b *Bridge) ServerLink(ctx context.Context) (domain.ConferencingIdentity, error) {
	b.mu.Lock()
	if b.state != BridgeUnauthenticated {
		b.mu.Unlock()
		return domain.ConferencingIdentity{}, ErrBridgeAlreadyLinked
	}
	b.mu.Unlock()

	token, err := b.gateway.ExchangeServerToken(ctx)
	if err != nil {
		return domain.ConferencingIdentity{}, fmt.Errorf("link conferencing account: %w", err)
	}

	b.setState(BridgeServerTokenObtained)

	identity, err := b.gateway.FetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		b.setState(BridgeUnauthenticated)
		return domain.ConferencingIdentity{}, fmt.Errorf("link conferencing account: %w", err)
	}

	if err := b.persistToken(ctx, token, identity.Email); err != nil {
		b.setState(BridgeUnauthenticated)
		return domain.ConferencingIdentity{}, err
	}

	b.mu.Lock()
	b.identity = &identity
	b.state = BridgeUserInfoFetched
	b.mu.Unlock()

	return identity, nil
}

func (b *Bridge) persistToken(ctx context.Context, token domain.ConferencingToken, email string) error {
	if err := b.store.Put(ctx, KeyZoomAccessToken, token.AccessToken); err != nil {
		return fmt.Errorf("persist conferencing token: %w", err)
	}
	if token.RefreshToken != "" {
		if err := b.store.Put(ctx, KeyZoomRefreshToken, token.RefreshToken); err != nil {
			return fmt.Errorf("persist conferencing refresh token: %w", err)
		}
	}
	if email != "" {
		if err := b.store.Put(ctx, KeyZoomUserEmail, email); err != nil {
			return fmt.Errorf("persist conferencing email: %w", err)
		}
	}
	if token.ExpiresIn > 0 {
		expiresAt := b.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
		if err := b.store.Put(ctx, KeyZoomExpiresAt, strconv.FormatInt(expiresAt, 10)); err != nil {
			return fmt.Errorf("persist conferencing token expiry: %w", err)
		}
	}
	return nil
}

// Reset returns the bridge to Unauthenticated and clears the conferencing
// namespace from the credential store. Called on full logout; idempotent.
func (b *Bridge) Reset(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyZoomAccessToken, KeyZoomRefreshToken, KeyZoomUserEmail, KeyZoomExpiresAt} {
		if err := b.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	b.mu.Lock()
	b.identity = nil
	b.state = BridgeUnauthenticated
	b.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("clear conferencing credentials: %w", errors.Join(errs...))
	}
	return nil
}

func (b *Bridge) setState(state BridgeState) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}
