// Package synclog records an audit entry for every sync run.
package synclog

import (
	"context"
	"time"

	"github.com/tidewater/xerosync/internal/store"
)

// Handle identifies a pending sync log entry.
type Handle struct {
	ID       string
	SyncType string
}

// Logger creates and finalizes sync audit records. Every handler calls
// Start once and then exactly one of Complete or Fail.
type Logger struct {
	store *store.Store
	now   func() time.Time
}

// New creates a sync logger over the datastore.
func New(s *store.Store) *Logger {
	return &Logger{store: s, now: time.Now}
}

// Start creates a pending entry for a sync run.
func (l *Logger) Start(ctx context.Context, syncType string) (Handle, error) {
	id, err := l.store.CreateSyncLog(ctx, syncType, l.now())
	if err != nil {
		return Handle{}, err
	}
	return Handle{ID: id, SyncType: syncType}, nil
}

// Complete finalizes an entry as successful.
func (l *Logger) Complete(ctx context.Context, h Handle, recordsProcessed int) error {
	return l.store.CompleteSyncLog(ctx, h.ID, recordsProcessed, l.now())
}

// Fail finalizes an entry as failed.
func (l *Logger) Fail(ctx context.Context, h Handle, message string) error {
	return l.store.FailSyncLog(ctx, h.ID, message, l.now())
}
