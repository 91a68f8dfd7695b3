package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

func TestPushInvoicesGroupsByCostCenter(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	sheets := []*store.Timesheet{
		{ID: "ts-1", CostCenterID: stringPtr("cc-alpha"), Hours: 2, Status: "approved"},
		{ID: "ts-2", CostCenterID: stringPtr("cc-beta"), Hours: 1, Status: "approved"},
		{ID: "ts-3", CostCenterID: stringPtr("cc-alpha"), Hours: 3, Status: "approved"},
	}
	for _, ts := range sheets {
		require.NoError(t, f.store.CreateTimesheet(ctx, ts))
	}

	var created []xeroclient.Invoice
	f.api.createInvoices = func(invoices []xeroclient.Invoice) ([]xeroclient.Invoice, error) {
		require.Len(t, invoices, 1)
		created = append(created, invoices[0])
		out := invoices[0]
		out.InvoiceID = "inv-" + invoices[0].Contact.Name
		out.InvoiceNumber = "INV-" + invoices[0].Contact.Name
		return []xeroclient.Invoice{out}, nil
	}

	res, err := f.svc.PushInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 0, res.Degraded)
	require.Len(t, created, 2)

	// 5 hours at the flat rate for cc-alpha, 1 hour for cc-beta.
	assert.Equal(t, "Timesheets for cc-alpha", created[0].LineItems[0].Description)
	assert.Equal(t, 5.0, created[0].LineItems[0].Quantity)
	assert.Equal(t, 100.0, created[0].LineItems[0].UnitAmount)
	assert.Equal(t, xeroclient.InvoiceTypeAccRec, created[0].Type)
	assert.Equal(t, xeroclient.InvoiceStatusAuthorised, created[0].Status)
	assert.Equal(t, "Timesheets for cc-beta", created[1].LineItems[0].Description)

	for _, ts := range sheets {
		got, err := f.store.TimesheetByID(ctx, ts.ID)
		require.NoError(t, err)
		assert.True(t, got.Invoiced)
		require.NotNil(t, got.XeroInvoiceID)
		require.NotNil(t, got.InvoicedAt)
	}

	alpha, err := f.store.InvoicesByCostCenter(ctx, "cc-alpha")
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, 500.0, alpha[0].TotalAmount)
	require.NotNil(t, alpha[0].DueDate)
	assert.True(t, alpha[0].DueDate.Equal(f.now.AddDate(0, 0, invoiceDueDays)))

	entry := f.latestLog(t)
	assert.Equal(t, TypePushInvoices, entry.SyncType)
	assert.Equal(t, 3, entry.RecordsProcessed)
}

func TestPushInvoicesRemoteFailureUsesPlaceholder(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	ts := &store.Timesheet{CostCenterID: stringPtr("cc-alpha"), Hours: 4, Status: "approved"}
	require.NoError(t, f.store.CreateTimesheet(ctx, ts))

	f.api.createInvoices = func(invoices []xeroclient.Invoice) ([]xeroclient.Invoice, error) {
		return nil, errors.New("service unavailable")
	}

	res, err := f.svc.PushInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Degraded)

	got, err := f.store.TimesheetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.True(t, got.Invoiced)
	require.NotNil(t, got.XeroInvoiceID)
	assert.True(t, strings.HasPrefix(*got.XeroInvoiceID, "XERO-INV-"))

	invoices, err := f.store.InvoicesByCostCenter(ctx, "cc-alpha")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, 400.0, invoices[0].TotalAmount)
}

func TestPushInvoicesIgnoresUnapprovedAndInvoiced(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateTimesheet(ctx, &store.Timesheet{
		CostCenterID: stringPtr("cc-alpha"), Hours: 2, Status: "draft",
	}))
	require.NoError(t, f.store.CreateTimesheet(ctx, &store.Timesheet{
		CostCenterID: stringPtr("cc-alpha"), Hours: 2, Status: "approved", Invoiced: true,
	}))
	require.NoError(t, f.store.CreateTimesheet(ctx, &store.Timesheet{
		Hours: 2, Status: "approved",
	}))

	res, err := f.svc.PushInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)

	invoices, err := f.store.InvoicesByCostCenter(ctx, "cc-alpha")
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestPushPaymentsRecordsEmptyRun(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	res, err := f.svc.PushPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)

	entry := f.latestLog(t)
	assert.Equal(t, TypePushPayments, entry.SyncType)
	assert.Equal(t, store.SyncStatusSuccess, entry.Status)
	assert.Equal(t, 0, entry.RecordsProcessed)
}
