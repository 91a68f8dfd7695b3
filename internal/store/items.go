package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityType is a billable item category. XeroItemID correlates it
// with the remote item.
type ActivityType struct {
	ID            string
	Name          string
	HourlyRate    *float64
	XeroItemID    *string
	ManagedByXero bool
	XeroSyncedAt  *time.Time
}

// CreateActivityType inserts an activity type row. A blank ID is
// assigned a fresh UUID.
func (s *Store) CreateActivityType(ctx context.Context, a *ActivityType) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var rate any
	if a.HourlyRate != nil {
		rate = *a.HourlyRate
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO activity_types
		(id, name, hourly_rate, xero_item_id, managed_by_xero, xero_synced_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, rate, nullString(a.XeroItemID), a.ManagedByXero, nullTime(a.XeroSyncedAt))
	if err != nil {
		return fmt.Errorf("insert activity type: %w", err)
	}
	return nil
}

// UnsyncedActivityTypes returns up to limit activity types without a
// Xero item id.
func (s *Store) UnsyncedActivityTypes(ctx context.Context, limit int) ([]ActivityType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, hourly_rate, xero_item_id,
		managed_by_xero, xero_synced_at FROM activity_types
		WHERE xero_item_id IS NULL ORDER BY name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced activity types: %w", err)
	}
	defer rows.Close()

	var out []ActivityType
	for rows.Next() {
		var (
			a        ActivityType
			rate     sql.NullFloat64
			itemID   sql.NullString
			syncedAt sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &rate, &itemID, &a.ManagedByXero, &syncedAt); err != nil {
			return nil, err
		}
		if rate.Valid {
			r := rate.Float64
			a.HourlyRate = &r
		}
		a.XeroItemID = scanNullString(itemID)
		if a.XeroSyncedAt, err = scanNullTime(syncedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkActivityTypeSynced records the Xero item id after a push and
// flags the item as remotely managed.
func (s *Store) MarkActivityTypeSynced(ctx context.Context, id, itemID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE activity_types
		SET xero_item_id = ?, managed_by_xero = 1, xero_synced_at = ? WHERE id = ?`,
		itemID, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark activity type synced: %w", err)
	}
	return nil
}

// ActivityTypeByID returns an activity type by primary key, or nil
// when absent.
func (s *Store) ActivityTypeByID(ctx context.Context, id string) (*ActivityType, error) {
	var (
		a        ActivityType
		rate     sql.NullFloat64
		itemID   sql.NullString
		syncedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, hourly_rate, xero_item_id,
		managed_by_xero, xero_synced_at FROM activity_types WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &rate, &itemID, &a.ManagedByXero, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query activity type: %w", err)
	}
	if rate.Valid {
		r := rate.Float64
		a.HourlyRate = &r
	}
	a.XeroItemID = scanNullString(itemID)
	if a.XeroSyncedAt, err = scanNullTime(syncedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
