package admin

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/xerosync/internal/auth"
	"github.com/tidewater/xerosync/internal/jobs"
	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/internal/sync"
)

type stubQueue struct {
	enqueued []string
	err      error
}

func (q *stubQueue) Enqueue(ctx context.Context, name string, payload json.RawMessage) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, name)
	return "job-1", nil
}

func (q *stubQueue) Dequeue(ctx context.Context) (*jobs.Job, error) {
	return nil, nil
}

type stubAuthn struct {
	session *auth.Session
	err     error
}

func (a *stubAuthn) EnsureAuth(ctx context.Context) (*auth.Session, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

func newTestHandler(t *testing.T) (*Handler, *stubQueue, *stubAuthn, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	queue := &stubQueue{}
	authn := &stubAuthn{session: &auth.Session{TenantID: "tenant-1", TenantName: "Test Org"}}
	h := NewHandler(queue, st, authn, log.New(io.Discard, "", 0))
	return h, queue, authn, st
}

func doRequest(handler http.HandlerFunc, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestSyncHandlersEnqueueJobs(t *testing.T) {
	h, queue, _, _ := newTestHandler(t)

	cases := []struct {
		handler http.HandlerFunc
		path    string
		job     string
	}{
		{h.SyncClientsHandler, "/admin/xero/sync-clients", sync.TypePushClients},
		{h.SyncItemsHandler, "/admin/xero/sync-items", sync.TypePushItems},
		{h.SyncPaymentsHandler, "/admin/xero/sync-payments", sync.TypePushPayments},
		{h.PullClientsHandler, "/admin/xero/sync-pull-clients", sync.TypePullClients},
		{h.PullInvoicesHandler, "/admin/xero/sync-pull-invoices", sync.TypePullInvoices},
		{h.SyncAllHandler, "/admin/xero/sync-all", sync.TypeSyncAll},
		{h.CreateInvoicesHandler, "/admin/invoices/create", sync.TypePushInvoices},
	}

	for _, tc := range cases {
		t.Run(tc.job, func(t *testing.T) {
			rec, body := doRequest(tc.handler, http.MethodPost, tc.path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "queued", body["status"])
			assert.Equal(t, "job-1", body["jobId"])
			assert.NotEmpty(t, body["message"])
		})
	}
	assert.Equal(t, []string{
		sync.TypePushClients, sync.TypePushItems, sync.TypePushPayments,
		sync.TypePullClients, sync.TypePullInvoices, sync.TypeSyncAll,
		sync.TypePushInvoices,
	}, queue.enqueued)
}

func TestStatusHandlerConnected(t *testing.T) {
	h, _, _, st := newTestHandler(t)
	ctx := context.Background()

	id, err := st.CreateSyncLog(ctx, sync.TypePushClients, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.CompleteSyncLog(ctx, id, 5, time.Now()))

	rec, body := doRequest(h.StatusHandler, http.MethodGet, "/admin/xero/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, "Test Org", body["tenantName"])

	last, ok := body["lastSync"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, sync.TypePushClients, last["syncType"])
	assert.Equal(t, store.SyncStatusSuccess, last["status"])
}

func TestStatusHandlerNotConnected(t *testing.T) {
	h, _, authn, _ := newTestHandler(t)
	authn.err = auth.ErrNotConnected
	authn.session = nil

	rec, body := doRequest(h.StatusHandler, http.MethodGet, "/admin/xero/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["connected"])
	assert.NotContains(t, body, "error")
}

func TestSyncLogHandlerNewestFirst(t *testing.T) {
	h, _, _, st := newTestHandler(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	_, err := st.CreateSyncLog(ctx, sync.TypePushClients, base)
	require.NoError(t, err)
	_, err = st.CreateSyncLog(ctx, sync.TypePullInvoices, base.Add(time.Minute))
	require.NoError(t, err)

	rec, body := doRequest(h.SyncLogHandler, http.MethodGet, "/admin/xero/sync-log")
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, sync.TypePullInvoices, first["syncType"])
}

func TestEnqueueFailureReturns500(t *testing.T) {
	h, queue, _, _ := newTestHandler(t)
	queue.err = context.DeadlineExceeded

	rec, body := doRequest(h.SyncAllHandler, http.MethodPost, "/admin/xero/sync-all")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body["error"])
}
