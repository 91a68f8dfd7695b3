package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidewater/xerosync/internal/crypto"
	"github.com/tidewater/xerosync/internal/store"
)

// persistedTokens is the JSON blob stored under the oauth tokens
// setting key. The access and refresh tokens are sealed.
type persistedTokens struct {
	TenantID     string `json:"tenant_id"`
	TenantName   string `json:"tenant_name,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at"`
}

// SettingsTokenStore keeps the token set as a single encrypted JSON
// blob in the app settings table. The most recent write wins.
type SettingsTokenStore struct {
	store  *store.Store
	cipher *crypto.Cipher
}

// NewSettingsTokenStore creates a token store over the datastore.
func NewSettingsTokenStore(s *store.Store, cipher *crypto.Cipher) *SettingsTokenStore {
	return &SettingsTokenStore{store: s, cipher: cipher}
}

// Get returns the current token set, or nil when none is stored.
func (s *SettingsTokenStore) Get(ctx context.Context) (*TokenSet, error) {
	setting, err := s.store.GetSetting(ctx, store.SettingOAuthTokens)
	if err != nil {
		return nil, fmt.Errorf("load token setting: %w", err)
	}
	if setting == nil {
		return nil, nil
	}

	var p persistedTokens
	if err := json.Unmarshal([]byte(setting.Value), &p); err != nil {
		return nil, fmt.Errorf("parse token setting: %w", err)
	}

	ts := &TokenSet{TenantID: p.TenantID, TenantName: p.TenantName}

	if ts.AccessToken, err = s.cipher.Decrypt(p.AccessToken); err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	if p.RefreshToken != "" {
		if ts.RefreshToken, err = s.cipher.Decrypt(p.RefreshToken); err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
	}
	if p.ExpiresAt != "" {
		if ts.ExpiresAt, err = time.Parse(time.RFC3339, p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("parse token expiry: %w", err)
		}
	}
	return ts, nil
}

// Save seals and persists the token set.
func (s *SettingsTokenStore) Save(ctx context.Context, ts *TokenSet) error {
	sealed, err := s.cipher.Encrypt(ts.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	p := persistedTokens{
		TenantID:    ts.TenantID,
		TenantName:  ts.TenantName,
		AccessToken: sealed,
		ExpiresAt:   ts.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if ts.RefreshToken != "" {
		if p.RefreshToken, err = s.cipher.Encrypt(ts.RefreshToken); err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal token setting: %w", err)
	}
	return s.store.PutSetting(ctx, store.Setting{
		Key:         store.SettingOAuthTokens,
		Value:       string(blob),
		IsEncrypted: true,
	})
}

// Delete removes the stored token set.
func (s *SettingsTokenStore) Delete(ctx context.Context) error {
	return s.store.DeleteSettings(ctx, store.SettingOAuthTokens)
}
