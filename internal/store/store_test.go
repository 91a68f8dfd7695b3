package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestUnsyncedClientsExcludesCorrelatedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateClient(ctx, &Client{Name: "Acme Ltd"}))
	require.NoError(t, s.CreateClient(ctx, &Client{Name: "Beta Co"}))
	require.NoError(t, s.CreateClient(ctx, &Client{
		Name:          "Gamma Inc",
		XeroContactID: strPtr("contact-123"),
	}))

	clients, err := s.UnsyncedClients(ctx, 50)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	for _, c := range clients {
		assert.Nil(t, c.XeroContactID)
	}
}

func TestUnsyncedClientsHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateClient(ctx, &Client{Name: "Client"}))
	}

	clients, err := s.UnsyncedClients(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, clients, 3)
}

func TestMarkClientSynced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &Client{Name: "Acme Ltd"}
	require.NoError(t, s.CreateClient(ctx, c))

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkClientSynced(ctx, c.ID, "contact-9", at))

	got, err := s.ClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.XeroContactID)
	assert.Equal(t, "contact-9", *got.XeroContactID)
	require.NotNil(t, got.XeroSyncedAt)
	assert.True(t, got.XeroSyncedAt.Equal(at))
}

func TestClientByNameFoldIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &Client{Name: "Acme Ltd"}
	require.NoError(t, s.CreateClient(ctx, c))

	got, err := s.ClientByNameFold(ctx, "ACME LTD")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
}

func TestClientByNameFoldSkipsCorrelatedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateClient(ctx, &Client{
		Name:          "Acme Ltd",
		XeroContactID: strPtr("contact-1"),
	}))

	got, err := s.ClientByNameFold(ctx, "acme ltd")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBillableTimesheetSelection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTimesheet(ctx, &Timesheet{
		CostCenterID: strPtr("cc-1"), Hours: 4, Status: "approved",
	}))
	require.NoError(t, s.CreateTimesheet(ctx, &Timesheet{
		CostCenterID: strPtr("cc-1"), Hours: 2, Status: "draft",
	}))
	require.NoError(t, s.CreateTimesheet(ctx, &Timesheet{
		Hours: 8, Status: "approved",
	}))
	require.NoError(t, s.CreateTimesheet(ctx, &Timesheet{
		CostCenterID: strPtr("cc-2"), Hours: 1, Status: "approved", Invoiced: true,
	}))

	sheets, err := s.BillableTimesheets(ctx, 200)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, 4.0, sheets[0].Hours)
}

func TestMarkTimesheetsInvoiced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &Timesheet{CostCenterID: strPtr("cc-1"), Hours: 4, Status: "approved"}
	b := &Timesheet{CostCenterID: strPtr("cc-1"), Hours: 3, Status: "approved"}
	require.NoError(t, s.CreateTimesheet(ctx, a))
	require.NoError(t, s.CreateTimesheet(ctx, b))

	at := time.Now()
	require.NoError(t, s.MarkTimesheetsInvoiced(ctx, []string{a.ID, b.ID}, "inv-77", at))

	got, err := s.TimesheetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Invoiced)
	require.NotNil(t, got.XeroInvoiceID)
	assert.Equal(t, "inv-77", *got.XeroInvoiceID)

	sheets, err := s.BillableTimesheets(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, sheets)
}

func TestSyncLogLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	id, err := s.CreateSyncLog(ctx, "push-clients", started)
	require.NoError(t, err)

	entry, err := s.SyncLogByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusPending, entry.Status)
	assert.Nil(t, entry.CompletedAt)

	require.NoError(t, s.CompleteSyncLog(ctx, id, 3, started.Add(time.Minute)))

	entry, err = s.SyncLogByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusSuccess, entry.Status)
	assert.Equal(t, 3, entry.RecordsProcessed)
	require.NotNil(t, entry.CompletedAt)
}

func TestSyncLogNeverRevertsFromFinalState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	id, err := s.CreateSyncLog(ctx, "pull-clients", now)
	require.NoError(t, err)

	require.NoError(t, s.FailSyncLog(ctx, id, "remote unavailable", now))
	// A late completion must not overwrite the error outcome.
	require.NoError(t, s.CompleteSyncLog(ctx, id, 10, now))

	entry, err := s.SyncLogByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusError, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "remote unavailable", *entry.ErrorMessage)
	assert.Equal(t, 0, entry.RecordsProcessed)
}

func TestRecentSyncLogsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.CreateSyncLog(ctx, "push-items", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	logs, err := s.RecentSyncLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].StartedAt.After(logs[1].StartedAt))
}

func TestSettingsUpsertAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSetting(ctx, Setting{Key: SettingClientID, Value: "abc"}))
	require.NoError(t, s.PutSetting(ctx, Setting{Key: SettingClientID, Value: "def", IsEncrypted: true}))

	got, err := s.GetSetting(ctx, SettingClientID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "def", got.Value)
	assert.True(t, got.IsEncrypted)

	require.NoError(t, s.DeleteSettings(ctx, SettingClientID, SettingClientSecret))

	got, err = s.GetSetting(ctx, SettingClientID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoteInvoiceInsertAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv := &RemoteInvoice{
		ClientID:      "client-1",
		XeroInvoiceID: "xinv-1",
		InvoiceNumber: "INV-001",
		Status:        "AUTHORISED",
		PaymentStatus: "awaiting_payment",
		Currency:      "NZD",
	}
	require.NoError(t, s.InsertRemoteInvoice(ctx, inv))

	got, err := s.RemoteInvoiceByXeroID(ctx, "xinv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "INV-001", got.InvoiceNumber)

	inv.PaymentStatus = "paid"
	inv.Status = "PAID"
	require.NoError(t, s.UpdateRemoteInvoice(ctx, got.ID, inv))

	got, err = s.RemoteInvoiceByXeroID(ctx, "xinv-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)

	n, err := s.CountRemoteInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
