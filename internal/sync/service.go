// Package sync implements the push and pull reconciliation handlers
// between the local datastore and Xero.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater/xerosync/internal/auth"
	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/internal/synclog"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// Sync types, also used as queue job names.
const (
	TypePushClients  = "push-clients"
	TypePushItems    = "push-items"
	TypePushInvoices = "push-invoices"
	TypePushPayments = "push-payments"
	TypePullClients  = "pull-clients"
	TypePullInvoices = "pull-invoices"
	TypeSyncAll      = "sync-all"
)

// Batch bounds and billing defaults.
const (
	contactBatchLimit   = 50
	itemBatchLimit      = 50
	timesheetBatchLimit = 200

	// Flat placeholder rate until per-activity rates are billed.
	fallbackHourlyRate = 100.0

	invoiceDueDays = 14
)

// Authenticator yields a tenant-scoped session with a fresh token.
type Authenticator interface {
	EnsureAuth(ctx context.Context) (*auth.Session, error)
}

// RemoteAPI is the slice of the accounting API the handlers use.
type RemoteAPI interface {
	CreateContacts(ctx context.Context, session *auth.Session, contacts []xeroclient.Contact) ([]xeroclient.Contact, error)
	GetContacts(ctx context.Context, session *auth.Session) ([]xeroclient.Contact, error)
	CreateItems(ctx context.Context, session *auth.Session, items []xeroclient.Item) ([]xeroclient.Item, error)
	CreateInvoices(ctx context.Context, session *auth.Session, invoices []xeroclient.Invoice) ([]xeroclient.Invoice, error)
	GetInvoices(ctx context.Context, session *auth.Session) ([]xeroclient.Invoice, error)
}

// PushResult summarizes a push run. Degraded counts records that were
// marked synced with a placeholder id after a remote failure.
type PushResult struct {
	Processed int
	Degraded  int
}

// PullResult summarizes a pull run.
type PullResult struct {
	Created int
	Updated int
	Skipped int
	Total   int
}

// Service holds the sync handlers' shared dependencies.
type Service struct {
	store  *store.Store
	auth   Authenticator
	api    RemoteAPI
	log    *synclog.Logger
	logger *log.Logger
	now    func() time.Time
}

// NewService creates the sync handler service.
func NewService(s *store.Store, authn Authenticator, api RemoteAPI, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Service{
		store:  s,
		auth:   authn,
		api:    api,
		log:    synclog.New(s),
		logger: logger,
		now:    time.Now,
	}
}

// failLog finalizes the audit entry for a failed run. A failure to
// write the failure itself is only logged; the original error wins.
func (s *Service) failLog(ctx context.Context, h synclog.Handle, cause error) {
	if err := s.log.Fail(ctx, h, cause.Error()); err != nil {
		s.logger.Printf("could not record sync failure for %s: %v", h.SyncType, err)
	}
}

// placeholderID builds a synthetic stand-in for a remote id when a
// create call fails: <prefix>-<first 8 of local id>-<4 random hex>.
func placeholderID(prefix, localID string) string {
	short := localID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, short, uuid.NewString()[:4])
}

// truncate returns at most n leading bytes of s.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
