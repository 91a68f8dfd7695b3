package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Invoice is a locally raised invoice covering a cost center's
// timesheets.
type Invoice struct {
	ID            string
	CostCenterID  string
	XeroInvoiceID *string
	InvoiceNumber string
	TotalAmount   float64
	PaymentStatus string
	DueDate       *time.Time
	CreatedAt     time.Time
}

// RemoteInvoice mirrors an invoice pulled from Xero.
type RemoteInvoice struct {
	ID            string
	ClientID      string
	XeroInvoiceID string
	InvoiceNumber string
	Status        string
	PaymentStatus string
	IssueDate     *time.Time
	DueDate       *time.Time
	Subtotal      *float64
	Tax           *float64
	Total         *float64
	AmountPaid    *float64
	AmountDue     *float64
	Currency      string
	UpdatedAt     time.Time
}

// InsertInvoice inserts a local invoice row. A blank ID is assigned a
// fresh UUID.
func (s *Store) InsertInvoice(ctx context.Context, inv *Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = "Draft"
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO invoices
		(id, cost_center_id, xero_invoice_id, invoice_number, total_amount,
		 payment_status, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CostCenterID, nullString(inv.XeroInvoiceID), inv.InvoiceNumber,
		inv.TotalAmount, inv.PaymentStatus, nullTime(inv.DueDate), formatTime(inv.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// InvoicesByCostCenter returns local invoices raised for a cost
// center, newest first.
func (s *Store) InvoicesByCostCenter(ctx context.Context, costCenterID string) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, cost_center_id, xero_invoice_id,
		invoice_number, total_amount, payment_status, due_date, created_at
		FROM invoices WHERE cost_center_id = ? ORDER BY created_at DESC`, costCenterID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var (
			inv       Invoice
			invoiceID sql.NullString
			dueDate   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&inv.ID, &inv.CostCenterID, &invoiceID, &inv.InvoiceNumber,
			&inv.TotalAmount, &inv.PaymentStatus, &dueDate, &createdAt); err != nil {
			return nil, err
		}
		inv.XeroInvoiceID = scanNullString(invoiceID)
		if inv.DueDate, err = scanNullTime(dueDate); err != nil {
			return nil, err
		}
		if inv.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

const remoteInvoiceColumns = `id, client_id, xero_invoice_id, invoice_number, status,
	payment_status, issue_date, due_date, subtotal, tax, total, amount_paid,
	amount_due, currency, updated_at`

func scanRemoteInvoice(row interface{ Scan(...any) error }) (*RemoteInvoice, error) {
	var (
		inv                   RemoteInvoice
		issueDate, dueDate    sql.NullString
		subtotal, tax, total  sql.NullFloat64
		amountPaid, amountDue sql.NullFloat64
		updatedAt             string
	)
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.XeroInvoiceID, &inv.InvoiceNumber,
		&inv.Status, &inv.PaymentStatus, &issueDate, &dueDate, &subtotal, &tax,
		&total, &amountPaid, &amountDue, &inv.Currency, &updatedAt)
	if err != nil {
		return nil, err
	}

	if inv.IssueDate, err = scanNullTime(issueDate); err != nil {
		return nil, err
	}
	if inv.DueDate, err = scanNullTime(dueDate); err != nil {
		return nil, err
	}
	inv.Subtotal = scanNullFloat(subtotal)
	inv.Tax = scanNullFloat(tax)
	inv.Total = scanNullFloat(total)
	inv.AmountPaid = scanNullFloat(amountPaid)
	inv.AmountDue = scanNullFloat(amountDue)
	if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// RemoteInvoiceByXeroID returns the mirrored invoice for a Xero
// invoice id, or nil when none exists.
func (s *Store) RemoteInvoiceByXeroID(ctx context.Context, xeroInvoiceID string) (*RemoteInvoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+remoteInvoiceColumns+`
		FROM remote_invoices WHERE xero_invoice_id = ?`, xeroInvoiceID)
	inv, err := scanRemoteInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query remote invoice: %w", err)
	}
	return inv, nil
}

// InsertRemoteInvoice inserts a mirrored invoice row. A blank ID is
// assigned a fresh UUID.
func (s *Store) InsertRemoteInvoice(ctx context.Context, inv *RemoteInvoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO remote_invoices (`+remoteInvoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ClientID, inv.XeroInvoiceID, inv.InvoiceNumber, inv.Status,
		inv.PaymentStatus, nullTime(inv.IssueDate), nullTime(inv.DueDate),
		nullFloat(inv.Subtotal), nullFloat(inv.Tax), nullFloat(inv.Total),
		nullFloat(inv.AmountPaid), nullFloat(inv.AmountDue), inv.Currency,
		formatTime(inv.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert remote invoice: %w", err)
	}
	return nil
}

// UpdateRemoteInvoice refreshes a mirrored invoice row in place,
// keeping its primary key.
func (s *Store) UpdateRemoteInvoice(ctx context.Context, id string, inv *RemoteInvoice) error {
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `UPDATE remote_invoices
		SET client_id = ?, invoice_number = ?, status = ?, payment_status = ?,
		    issue_date = ?, due_date = ?, subtotal = ?, tax = ?, total = ?,
		    amount_paid = ?, amount_due = ?, currency = ?, updated_at = ?
		WHERE id = ?`,
		inv.ClientID, inv.InvoiceNumber, inv.Status, inv.PaymentStatus,
		nullTime(inv.IssueDate), nullTime(inv.DueDate), nullFloat(inv.Subtotal),
		nullFloat(inv.Tax), nullFloat(inv.Total), nullFloat(inv.AmountPaid),
		nullFloat(inv.AmountDue), inv.Currency, formatTime(inv.UpdatedAt), id)
	if err != nil {
		return fmt.Errorf("update remote invoice: %w", err)
	}
	return nil
}

// CountRemoteInvoices returns the number of mirrored invoice rows.
func (s *Store) CountRemoteInvoices(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM remote_invoices`).Scan(&n)
	return n, err
}
