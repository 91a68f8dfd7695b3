package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timesheet is a time entry. Approved, uninvoiced entries with a cost
// center are eligible for invoicing.
type Timesheet struct {
	ID            string
	CostCenterID  *string
	Hours         float64
	Status        string
	Invoiced      bool
	XeroInvoiceID *string
	InvoicedAt    *time.Time
}

// CreateTimesheet inserts a timesheet row. A blank ID is assigned a
// fresh UUID.
func (s *Store) CreateTimesheet(ctx context.Context, t *Timesheet) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = "draft"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO timesheets
		(id, cost_center_id, hours, status, invoiced, xero_invoice_id, invoiced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullString(t.CostCenterID), t.Hours, t.Status, t.Invoiced,
		nullString(t.XeroInvoiceID), nullTime(t.InvoicedAt))
	if err != nil {
		return fmt.Errorf("insert timesheet: %w", err)
	}
	return nil
}

// BillableTimesheets returns up to limit approved, uninvoiced
// timesheets that have a cost center.
func (s *Store) BillableTimesheets(ctx context.Context, limit int) ([]Timesheet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, cost_center_id, hours, status,
		invoiced, xero_invoice_id, invoiced_at FROM timesheets
		WHERE status = 'approved' AND invoiced = 0 AND cost_center_id IS NOT NULL
		ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query billable timesheets: %w", err)
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		var (
			t          Timesheet
			costCenter sql.NullString
			invoiceID  sql.NullString
			invoicedAt sql.NullString
		)
		if err := rows.Scan(&t.ID, &costCenter, &t.Hours, &t.Status,
			&t.Invoiced, &invoiceID, &invoicedAt); err != nil {
			return nil, err
		}
		t.CostCenterID = scanNullString(costCenter)
		t.XeroInvoiceID = scanNullString(invoiceID)
		if t.InvoicedAt, err = scanNullTime(invoicedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkTimesheetsInvoiced flags the given timesheets as invoiced with a
// back-reference to the invoice they were billed on.
func (s *Store) MarkTimesheetsInvoiced(ctx context.Context, ids []string, xeroInvoiceID string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := []any{xeroInvoiceID, formatTime(at)}
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx, `UPDATE timesheets
		SET invoiced = 1, xero_invoice_id = ?, invoiced_at = ?
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("mark timesheets invoiced: %w", err)
	}
	return nil
}

// TimesheetByID returns a timesheet by primary key, or nil when
// absent.
func (s *Store) TimesheetByID(ctx context.Context, id string) (*Timesheet, error) {
	var (
		t          Timesheet
		costCenter sql.NullString
		invoiceID  sql.NullString
		invoicedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, cost_center_id, hours, status,
		invoiced, xero_invoice_id, invoiced_at FROM timesheets WHERE id = ?`, id).
		Scan(&t.ID, &costCenter, &t.Hours, &t.Status, &t.Invoiced, &invoiceID, &invoicedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query timesheet: %w", err)
	}
	t.CostCenterID = scanNullString(costCenter)
	t.XeroInvoiceID = scanNullString(invoiceID)
	if t.InvoicedAt, err = scanNullTime(invoicedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
