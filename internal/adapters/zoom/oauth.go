package zoom

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

const (
	defaultAuthBaseURL = "https://zoom.us"
	defaultAPIBaseURL  = "https://api.zoom.us"

	accountCredentialsGrant = "account_credentials"

	maxResponseBytes = 1 << 20
)

// OAuthClient performs the Server-to-Server OAuth exchange and user lookup
// against the conferencing provider.
type OAuthClient struct {
	AccountID    string
	ClientID     string
	ClientSecret string

	AuthBaseURL    string
	APIBaseURL     string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.ConferencingGateway = (*OAuthClient)(nil)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Type        int    `json:"type"`
}

type providerError struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e providerError) describe(statusCode int) string {
	switch {
	case e.Reason != "":
		return e.Reason
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return fmt.Sprintf("status %d", statusCode)
	}
}

// ExchangeServerToken trades the client id/secret pair for an account-level
// access token. Missing credentials fail before any network call.
func (c *OAuthClient) ExchangeServerToken(ctx context.Context) (domain.ConferencingToken, error) {
	const op = "exchange server token"

	if c.ClientID == "" {
		return domain.ConferencingToken{}, &domain.ConfigError{Setting: "zoom.client_id"}
	}
	if c.ClientSecret == "" {
		return domain.ConferencingToken{}, &domain.ConfigError{Setting: "zoom.client_secret"}
	}
	if c.AccountID == "" {
		return domain.ConferencingToken{}, &domain.ConfigError{Setting: "zoom.account_id"}
	}

	values := url.Values{}
	values.Set("grant_type", accountCredentialsGrant)
	values.Set("account_id", c.AccountID)
	endpoint := c.authBaseURL() + "/oauth/token?" + values.Encode()

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, nil)
	if err != nil {
		return domain.ConferencingToken{}, fmt.Errorf("create %s request: %w", op, err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.ConferencingToken{}, &domain.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.ConferencingToken{}, &domain.AuthError{Op: op, Reason: decodeProviderError(resp)}
	}

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.ConferencingToken{}, &domain.AuthError{Op: op, Reason: "malformed token response"}
	}
	if payload.AccessToken == "" {
		return domain.ConferencingToken{}, &domain.AuthError{Op: op, Reason: "response carried no access token"}
	}

	return domain.ConferencingToken{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
		ExpiresIn:    payload.ExpiresIn,
	}, nil
}

// FetchUserInfo resolves the identity behind an access token.
func (c *OAuthClient) FetchUserInfo(ctx context.Context, accessToken string) (domain.ConferencingIdentity, error) {
	const op = "fetch conferencing user"

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, c.apiBaseURL()+"/v2/users/me", nil)
	if err != nil {
		return domain.ConferencingIdentity{}, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.ConferencingIdentity{}, &domain.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ConferencingIdentity{}, &domain.AuthError{Op: op, Reason: decodeProviderError(resp)}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return domain.ConferencingIdentity{}, &domain.NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	var payload userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.ConferencingIdentity{}, &domain.AuthError{Op: op, Reason: "malformed user response"}
	}
	if payload.ID == "" {
		return domain.ConferencingIdentity{}, &domain.AuthError{Op: op, Reason: "response carried no user id"}
	}

	displayName := payload.DisplayName
	if displayName == "" {
		displayName = payload.FirstName + " " + payload.LastName
	}

	return domain.ConferencingIdentity{
		ID:          payload.ID,
		Email:       payload.Email,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		DisplayName: displayName,
	}, nil
}

func decodeProviderError(resp *http.Response) string {
	var payload providerError
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return payload.describe(resp.StatusCode)
}

func (c *OAuthClient) authBaseURL() string {
	if c.AuthBaseURL != "" {
		return c.AuthBaseURL
	}
	return defaultAuthBaseURL
}

func (c *OAuthClient) apiBaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return defaultAPIBaseURL
}

func (c *OAuthClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *OAuthClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}
