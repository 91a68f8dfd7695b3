package auth

import (
	"context"
	"log"
	"os"

	"github.com/tidewater/xerosync/internal/crypto"
	"github.com/tidewater/xerosync/internal/store"
)

// Resolver resolves application OAuth credentials with
// database-over-configuration precedence: a credential saved through
// the settings screen wins over the deployed defaults.
type Resolver struct {
	store    *store.Store
	cipher   *crypto.Cipher
	defaults Credentials
	logger   *log.Logger
}

// NewResolver creates a credential resolver. defaults come from the
// process configuration and may be empty.
func NewResolver(s *store.Store, cipher *crypto.Cipher, defaults Credentials, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	return &Resolver{store: s, cipher: cipher, defaults: defaults, logger: logger}
}

// Resolve returns the effective credentials. It never fails: on any
// lookup problem it degrades to the configured defaults, which may be
// empty. Callers validate with Credentials.Valid before use.
func (r *Resolver) Resolve(ctx context.Context) Credentials {
	creds := r.defaults

	clientID, ok := r.settingValue(ctx, store.SettingClientID)
	if !ok || clientID == "" {
		return creds
	}
	clientSecret, ok := r.settingValue(ctx, store.SettingClientSecret)
	if !ok || clientSecret == "" {
		return creds
	}

	creds.ClientID = clientID
	creds.ClientSecret = clientSecret
	if uri, ok := r.settingValue(ctx, store.SettingRedirectURI); ok && uri != "" {
		creds.RedirectURI = uri
	}
	return creds
}

// settingValue reads one setting, decrypting when flagged. The bool is
// false on any failure.
func (r *Resolver) settingValue(ctx context.Context, key string) (string, bool) {
	setting, err := r.store.GetSetting(ctx, key)
	if err != nil {
		r.logger.Printf("credential lookup for %s failed, using defaults: %v", key, err)
		return "", false
	}
	if setting == nil {
		return "", false
	}
	if !setting.IsEncrypted {
		return setting.Value, true
	}
	value, err := r.cipher.Decrypt(setting.Value)
	if err != nil {
		r.logger.Printf("credential decrypt for %s failed, using defaults: %v", key, err)
		return "", false
	}
	return value, true
}
