package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Setting keys used by the sync subsystem.
const (
	SettingOAuthTokens  = "xero_oauth_tokens"
	SettingClientID     = "xero_client_id"
	SettingClientSecret = "xero_client_secret"
	SettingRedirectURI  = "xero_redirect_uri"
)

// Setting is an application setting row. Secret values are stored
// sealed with IsEncrypted set.
type Setting struct {
	Key         string
	Value       string
	IsEncrypted bool
	UpdatedAt   time.Time
}

// GetSetting returns a setting by key, or nil when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var (
		out       Setting
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT key, value, is_encrypted, updated_at
		FROM app_settings WHERE key = ?`, key).
		Scan(&out.Key, &out.Value, &out.IsEncrypted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query setting %s: %w", key, err)
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutSetting upserts a setting by key.
func (s *Store) PutSetting(ctx context.Context, setting Setting) error {
	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO app_settings (key, value, is_encrypted, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value,
			is_encrypted = excluded.is_encrypted, updated_at = excluded.updated_at`,
		setting.Key, setting.Value, setting.IsEncrypted, formatTime(setting.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put setting %s: %w", setting.Key, err)
	}
	return nil
}

// DeleteSettings removes the given setting keys. Missing keys are not
// an error.
func (s *Store) DeleteSettings(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
