// internal/models/settings.go
package models

import "time"

// OAuthTokens is the completed bundle handed over by the host's OAuth
// collaborator. The core never refreshes it; an expired bundle is an
// auth-category failure.
type OAuthTokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Email        string    `json:"email,omitempty"`
}

// Expired reports whether the bundle is no longer usable.
func (t *OAuthTokens) Expired(now time.Time) bool {
	return t == nil || !t.ExpiresAt.After(now)
}

// Settings is the credential bundle owned by settings storage and loaded
// once per session.
type Settings struct {
	ActiveProvider   string            `json:"activeProvider"`
	APIKeys          map[string]string `json:"apiKeys,omitempty"`
	GeminiAuthMode   string            `json:"geminiAuthMode,omitempty"` // "api_key" or "oauth"
	OAuthTokens      *OAuthTokens      `json:"oauthTokens,omitempty"`
	FigmaAccessToken string            `json:"figmaAccessToken,omitempty"`
}
