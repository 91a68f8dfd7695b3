// Package auth manages the Xero OAuth connection: application
// credentials, the persisted token set, and token refresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel authentication failures. All are fatal for the current job
// and require the user to reconnect via the settings page.
var (
	ErrNotConnected        = errors.New("xero is not connected")
	ErrRefreshTokenMissing = errors.New("token expired and no refresh token available")
	ErrCredentialsMissing  = errors.New("xero client credentials not configured")
)

// AuthError wraps an authentication failure, optionally carrying the
// remote token endpoint's response body.
type AuthError struct {
	Op         string
	Err        error
	RemoteBody string
}

func (e *AuthError) Error() string {
	if e.RemoteBody != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.RemoteBody)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Credentials are the application-level OAuth client credentials.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Valid reports whether the credentials are usable for an OAuth flow.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// TokenSet is the persisted OAuth token state, bound to the tenant it
// was issued for. Exactly one set is authoritative at a time.
type TokenSet struct {
	TenantID     string    `json:"tenant_id"`
	TenantName   string    `json:"tenant_name,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Session is a tenant-scoped snapshot of a valid token, passed into
// every remote API call so handlers never share a mutable client.
type Session struct {
	TenantID    string
	TenantName  string
	AccessToken string
}

// TokenStore persists the authoritative token set.
type TokenStore interface {
	Get(ctx context.Context) (*TokenSet, error)
	Save(ctx context.Context, ts *TokenSet) error
	Delete(ctx context.Context) error
}
