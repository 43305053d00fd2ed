package zoom

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

func TestExchangeServerTokenRequiresCredentialsBeforeAnyCall(t *testing.T) {
	t.Parallel()

	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name    string
		client  OAuthClient
		setting string
	}{
		{
			name:    "missing client id",
			client:  OAuthClient{ClientSecret: "secret", AccountID: "acct"},
			setting: "zoom.client_id",
		},
		{
			name:    "missing client secret",
			client:  OAuthClient{ClientID: "id", AccountID: "acct"},
			setting: "zoom.client_secret",
		},
		{
			name:    "missing account id",
			client:  OAuthClient{ClientID: "id", ClientSecret: "secret"},
			setting: "zoom.account_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := tt.client
			client.AuthBaseURL = server.URL
			client.HTTPClient = server.Client()

			_, err := client.ExchangeServerToken(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.setting)
		})
	}

	assert.False(t, called, "config errors must surface before any network call")
}

func TestExchangeServerTokenSendsBasicAuth(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.Equal(t, "account_credentials", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "acct-1", r.URL.Query().Get("account_id"))

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-1:secret-1"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"zat-abc","token_type":"bearer","expires_in":3600,"scope":"user:read"}`))
	}))
	t.Cleanup(server.Close)

	client := OAuthClient{
		AccountID:    "acct-1",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AuthBaseURL:  server.URL,
		HTTPClient:   server.Client(),
	}

	token, err := client.ExchangeServerToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "zat-abc", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.Equal(t, "user:read", token.Scope)
}

func TestExchangeServerTokenReportsProviderRejectionAsAuthError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"reason":"Invalid client_id or client_secret","error":"invalid_client"}`))
	}))
	t.Cleanup(server.Close)

	client := OAuthClient{
		AccountID:    "acct-1",
		ClientID:     "client-1",
		ClientSecret: "wrong",
		AuthBaseURL:  server.URL,
		HTTPClient:   server.Client(),
	}

	_, err := client.ExchangeServerToken(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
	assert.Contains(t, err.Error(), "Invalid client_id or client_secret")
}

func TestExchangeServerTokenReportsTransportFailureAsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := OAuthClient{
		AccountID:    "acct-1",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AuthBaseURL:  server.URL,
		HTTPClient:   server.Client(),
	}
	server.Close()

	_, err := client.ExchangeServerToken(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetworkError(err))
}

func TestFetchUserInfoParsesSuccessResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/users/me", r.URL.Path)
		assert.Equal(t, "Bearer zat-abc", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"id":"u-1","email":"jane.doe@school.edu","first_name":"Jane","last_name":"Doe","display_name":"Jane Doe","type":2}`))
	}))
	t.Cleanup(server.Close)

	client := OAuthClient{APIBaseURL: server.URL, HTTPClient: server.Client()}
	identity, err := client.FetchUserInfo(context.Background(), "zat-abc")
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.ID)
	assert.Equal(t, "jane.doe@school.edu", identity.Email)
	assert.Equal(t, "Jane Doe", identity.DisplayName)
	assert.False(t, identity.Synthetic)
}

func TestFetchUserInfoComposesDisplayName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u-1","first_name":"Jane","last_name":"Doe"}`))
	}))
	t.Cleanup(server.Close)

	client := OAuthClient{APIBaseURL: server.URL, HTTPClient: server.Client()}
	identity, err := client.FetchUserInfo(context.Background(), "zat-abc")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", identity.DisplayName)
}

func TestFetchUserInfoReportsRejectedTokenAsAuthError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid access token"}`))
	}))
	t.Cleanup(server.Close)

	client := OAuthClient{APIBaseURL: server.URL, HTTPClient: server.Client()}
	_, err := client.FetchUserInfo(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
}
