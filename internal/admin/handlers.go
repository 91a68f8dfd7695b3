// Package admin provides the HTTP endpoints that enqueue sync jobs and
// report sync state.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tidewater/xerosync/internal/auth"
	"github.com/tidewater/xerosync/internal/jobs"
	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/internal/sync"
)

// requestTimeout bounds each admin request's database and queue work.
const requestTimeout = 5 * time.Second

// syncLogLimit is how many audit entries the log endpoint returns.
const syncLogLimit = 50

// Authenticator reports whether a usable Xero session exists.
type Authenticator interface {
	EnsureAuth(ctx context.Context) (*auth.Session, error)
}

// Handler provides the admin HTTP handlers.
type Handler struct {
	queue  jobs.Queue
	store  *store.Store
	auth   Authenticator
	logger *log.Logger
}

// NewHandler creates the admin handler.
func NewHandler(queue jobs.Queue, s *store.Store, authn Authenticator, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[admin] ", log.LstdFlags)
	}
	return &Handler{queue: queue, store: s, auth: authn, logger: logger}
}

// enqueue queues a named job and writes the standard queued response.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, jobName, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	jobID, err := h.queue.Enqueue(ctx, jobName, nil)
	if err != nil {
		h.logger.Printf("enqueue %s failed: %v", jobName, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to queue sync job",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": message,
		"jobId":   jobID,
		"status":  "queued",
	})
}

// SyncClientsHandler queues a client push.
func (h *Handler) SyncClientsHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePushClients, "Client sync started")
}

// SyncItemsHandler queues an item push.
func (h *Handler) SyncItemsHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePushItems, "Item sync started")
}

// SyncPaymentsHandler queues a payment push.
func (h *Handler) SyncPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePushPayments, "Payment sync started")
}

// PullClientsHandler queues a client pull.
func (h *Handler) PullClientsHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePullClients, "Client pull started")
}

// PullInvoicesHandler queues an invoice pull.
func (h *Handler) PullInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePullInvoices, "Invoice pull started")
}

// SyncAllHandler queues the full sync sequence.
func (h *Handler) SyncAllHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypeSyncAll, "Full sync started")
}

// CreateInvoicesHandler queues invoice creation from approved
// timesheets.
func (h *Handler) CreateInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, sync.TypePushInvoices, "Invoice creation started")
}

// StatusHandler reports the Xero connection state and the latest sync
// run.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	body := map[string]any{"connected": false}

	session, err := h.auth.EnsureAuth(ctx)
	switch {
	case err == nil:
		body["connected"] = true
		body["tenantId"] = session.TenantID
		body["tenantName"] = session.TenantName
	case errors.Is(err, auth.ErrNotConnected), errors.Is(err, auth.ErrRefreshTokenMissing),
		errors.Is(err, auth.ErrCredentialsMissing):
		// Not connected is a normal answer, not a failure.
	default:
		h.logger.Printf("status check failed: %v", err)
		body["error"] = "Could not verify Xero connection"
	}

	if latest, err := h.store.LatestSyncLog(ctx); err == nil && latest != nil {
		body["lastSync"] = syncLogJSON(*latest)
	}

	writeJSON(w, http.StatusOK, body)
}

// SyncLogHandler returns recent sync runs, newest first.
func (h *Handler) SyncLogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.store.RecentSyncLogs(ctx, syncLogLimit)
	if err != nil {
		h.logger.Printf("sync log query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to load sync log",
		})
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, syncLogJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func syncLogJSON(e store.SyncLogEntry) map[string]any {
	body := map[string]any{
		"id":               e.ID,
		"syncType":         e.SyncType,
		"status":           e.Status,
		"startedAt":        e.StartedAt.Format(time.RFC3339),
		"recordsProcessed": e.RecordsProcessed,
	}
	if e.CompletedAt != nil {
		body["completedAt"] = e.CompletedAt.Format(time.RFC3339)
	}
	if e.ErrorMessage != nil {
		body["errorMessage"] = *e.ErrorMessage
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
