package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync log statuses. An entry is created pending and finalized to
// exactly one of success or error.
const (
	SyncStatusPending = "pending"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncLogEntry is one audit record for a sync run.
type SyncLogEntry struct {
	ID               string
	SyncType         string
	Status           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	RecordsProcessed int
	ErrorMessage     *string
}

// CreateSyncLog inserts a pending sync log entry and returns its id.
func (s *Store) CreateSyncLog(ctx context.Context, syncType string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_log
		(id, sync_type, status, started_at, records_processed)
		VALUES (?, ?, ?, ?, 0)`,
		id, syncType, SyncStatusPending, formatTime(startedAt))
	if err != nil {
		return "", fmt.Errorf("insert sync log: %w", err)
	}
	return id, nil
}

// CompleteSyncLog finalizes a pending entry as successful.
func (s *Store) CompleteSyncLog(ctx context.Context, id string, recordsProcessed int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sync_log
		SET status = ?, records_processed = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		SyncStatusSuccess, recordsProcessed, formatTime(at), id, SyncStatusPending)
	if err != nil {
		return fmt.Errorf("complete sync log: %w", err)
	}
	return nil
}

// FailSyncLog finalizes a pending entry as failed with a message.
func (s *Store) FailSyncLog(ctx context.Context, id, message string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sync_log
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		SyncStatusError, message, formatTime(at), id, SyncStatusPending)
	if err != nil {
		return fmt.Errorf("fail sync log: %w", err)
	}
	return nil
}

const syncLogColumns = `id, sync_type, status, started_at, completed_at,
	records_processed, error_message`

func scanSyncLog(row interface{ Scan(...any) error }) (*SyncLogEntry, error) {
	var (
		e           SyncLogEntry
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&e.ID, &e.SyncType, &e.Status, &startedAt, &completedAt,
		&e.RecordsProcessed, &errMsg)
	if err != nil {
		return nil, err
	}
	if e.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if e.CompletedAt, err = scanNullTime(completedAt); err != nil {
		return nil, err
	}
	e.ErrorMessage = scanNullString(errMsg)
	return &e, nil
}

// SyncLogByID returns an entry by id, or nil when absent.
func (s *Store) SyncLogByID(ctx context.Context, id string) (*SyncLogEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+syncLogColumns+` FROM sync_log WHERE id = ?`, id)
	e, err := scanSyncLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	return e, nil
}

// RecentSyncLogs returns up to limit entries, newest first.
func (s *Store) RecentSyncLogs(ctx context.Context, limit int) ([]SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+syncLogColumns+` FROM sync_log
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync logs: %w", err)
	}
	defer rows.Close()

	var out []SyncLogEntry
	for rows.Next() {
		e, err := scanSyncLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// LatestSyncLog returns the most recently started entry, or nil when
// the log is empty.
func (s *Store) LatestSyncLog(ctx context.Context) (*SyncLogEntry, error) {
	logs, err := s.RecentSyncLogs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}
