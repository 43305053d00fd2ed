package zoom

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

// TokenBundle is the JSON shape persisted to the credential store for the
// conferencing namespace.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// BundleFromToken converts an exchange result into its storable form,
// resolving the relative expiry against now.
func BundleFromToken(token domain.ConferencingToken, now time.Time) TokenBundle {
	bundle := TokenBundle{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
	}
	if token.ExpiresIn > 0 {
		bundle.ExpiresAt = now.Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
	}
	return bundle
}

func EncodeTokenBundle(bundle TokenBundle) (string, error) {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("encode token bundle: %w", err)
	}
	return string(payload), nil
}

func DecodeTokenBundle(secretValue string) (TokenBundle, error) {
	var bundle TokenBundle
	if err := json.Unmarshal([]byte(secretValue), &bundle); err != nil {
		return TokenBundle{}, fmt.Errorf("decode token bundle: %w", err)
	}
	if strings.TrimSpace(bundle.AccessToken) == "" {
		return TokenBundle{}, fmt.Errorf("token bundle missing access_token")
	}
	return bundle, nil
}

// ExpiringSoon reports whether the token expires within skew of now. A
// bundle without expiry metadata never reports soon.
func (b TokenBundle) ExpiringSoon(now time.Time, skew time.Duration) bool {
	if b.ExpiresAt <= 0 {
		return false
	}
	return !time.Unix(b.ExpiresAt, 0).After(now.Add(skew))
}
