package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client is a local client (contact) record. XeroContactID correlates
// it with the remote contact; nil means the record has never been
// pushed or matched.
type Client struct {
	ID             string
	UserID         *string
	Name           string
	ContactName    *string
	Email          *string
	Phone          *string
	Address        *string
	BillingAddress *string
	Status         string
	XeroContactID  *string
	XeroSyncedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const clientColumns = `id, user_id, name, contact_name, email, phone, address,
	billing_address, status, xero_contact_id, xero_synced_at, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var (
		c                                 Client
		userID, contactName, email, phone sql.NullString
		address, billing, contactID       sql.NullString
		syncedAt                          sql.NullString
		createdAt, updatedAt              string
	)
	err := row.Scan(&c.ID, &userID, &c.Name, &contactName, &email, &phone,
		&address, &billing, &c.Status, &contactID, &syncedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.UserID = scanNullString(userID)
	c.ContactName = scanNullString(contactName)
	c.Email = scanNullString(email)
	c.Phone = scanNullString(phone)
	c.Address = scanNullString(address)
	c.BillingAddress = scanNullString(billing)
	c.XeroContactID = scanNullString(contactID)

	if c.XeroSyncedAt, err = scanNullTime(syncedAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client row. A blank ID is assigned a fresh
// UUID; the assigned ID is written back to the struct.
func (s *Store) CreateClient(ctx context.Context, c *Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = "active"
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.UserID), c.Name, nullString(c.ContactName),
		nullString(c.Email), nullString(c.Phone), nullString(c.Address),
		nullString(c.BillingAddress), c.Status, nullString(c.XeroContactID),
		nullTime(c.XeroSyncedAt), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// UnsyncedClients returns up to limit clients that have no Xero
// contact id, in insertion order.
func (s *Store) UnsyncedClients(ctx context.Context, limit int) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients
		WHERE xero_contact_id IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ClientByContactID returns the client correlated with the given Xero
// contact id, or nil when none exists.
func (s *Store) ClientByContactID(ctx context.Context, contactID string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients
		WHERE xero_contact_id = ?`, contactID)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query client by contact id: %w", err)
	}
	return c, nil
}

// ClientByNameFold returns an unlinked client whose name matches
// case-insensitively, or nil when none exists. Only rows without a
// Xero contact id are candidates, so an established correlation is
// never displaced by a name collision.
func (s *Store) ClientByNameFold(ctx context.Context, name string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients
		WHERE xero_contact_id IS NULL AND name = ? COLLATE NOCASE LIMIT 1`, name)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query client by name: %w", err)
	}
	return c, nil
}

// MarkClientSynced records the Xero contact id and sync time after a
// push.
func (s *Store) MarkClientSynced(ctx context.Context, id, contactID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE clients
		SET xero_contact_id = ?, xero_synced_at = ?, updated_at = ? WHERE id = ?`,
		contactID, formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark client synced: %w", err)
	}
	return nil
}

// LinkClientContact sets the Xero contact id on an existing client
// matched by name during a pull.
func (s *Store) LinkClientContact(ctx context.Context, id, contactID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE clients
		SET xero_contact_id = ?, updated_at = ? WHERE id = ?`,
		contactID, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("link client contact: %w", err)
	}
	return nil
}

// UpdateClientFromRemote refreshes the mirrored contact fields on an
// already-correlated client.
func (s *Store) UpdateClientFromRemote(ctx context.Context, id string, name string,
	contactName, email, phone, address, billingAddress *string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE clients
		SET name = ?, contact_name = ?, email = ?, phone = ?, address = ?,
		    billing_address = ?, updated_at = ? WHERE id = ?`,
		name, nullString(contactName), nullString(email), nullString(phone),
		nullString(address), nullString(billingAddress), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update client from remote: %w", err)
	}
	return nil
}

// CountClients returns the number of client rows.
func (s *Store) CountClients(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n)
	return n, err
}

// ClientByID returns a client by primary key, or nil when absent.
func (s *Store) ClientByID(ctx context.Context, id string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query client: %w", err)
	}
	return c, nil
}
