package sync

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidewater/xerosync/internal/auth"
	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// stubAuth hands out a fixed session and counts calls.
type stubAuth struct {
	session *auth.Session
	err     error
	calls   int
}

func (a *stubAuth) EnsureAuth(ctx context.Context) (*auth.Session, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

// stubAPI implements RemoteAPI with per-method function hooks; a nil
// hook fails the test if the method is called.
type stubAPI struct {
	t              *testing.T
	createContacts func(contacts []xeroclient.Contact) ([]xeroclient.Contact, error)
	getContacts    func() ([]xeroclient.Contact, error)
	createItems    func(items []xeroclient.Item) ([]xeroclient.Item, error)
	createInvoices func(invoices []xeroclient.Invoice) ([]xeroclient.Invoice, error)
	getInvoices    func() ([]xeroclient.Invoice, error)
}

func (a *stubAPI) CreateContacts(ctx context.Context, session *auth.Session, contacts []xeroclient.Contact) ([]xeroclient.Contact, error) {
	if a.createContacts == nil {
		a.t.Fatal("unexpected CreateContacts call")
	}
	return a.createContacts(contacts)
}

func (a *stubAPI) GetContacts(ctx context.Context, session *auth.Session) ([]xeroclient.Contact, error) {
	if a.getContacts == nil {
		a.t.Fatal("unexpected GetContacts call")
	}
	return a.getContacts()
}

func (a *stubAPI) CreateItems(ctx context.Context, session *auth.Session, items []xeroclient.Item) ([]xeroclient.Item, error) {
	if a.createItems == nil {
		a.t.Fatal("unexpected CreateItems call")
	}
	return a.createItems(items)
}

func (a *stubAPI) CreateInvoices(ctx context.Context, session *auth.Session, invoices []xeroclient.Invoice) ([]xeroclient.Invoice, error) {
	if a.createInvoices == nil {
		a.t.Fatal("unexpected CreateInvoices call")
	}
	return a.createInvoices(invoices)
}

func (a *stubAPI) GetInvoices(ctx context.Context, session *auth.Session) ([]xeroclient.Invoice, error) {
	if a.getInvoices == nil {
		a.t.Fatal("unexpected GetInvoices call")
	}
	return a.getInvoices()
}

type syncFixture struct {
	store *store.Store
	authn *stubAuth
	api   *stubAPI
	svc   *Service
	now   time.Time
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	authn := &stubAuth{session: &auth.Session{
		TenantID:    "tenant-1",
		TenantName:  "Test Org",
		AccessToken: "at",
	}}
	api := &stubAPI{t: t}

	svc := NewService(st, authn, api, log.New(io.Discard, "", 0))
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &syncFixture{store: st, authn: authn, api: api, svc: svc, now: now}
}

// latestLog returns the most recent sync log entry and fails the test
// if there is none.
func (f *syncFixture) latestLog(t *testing.T) store.SyncLogEntry {
	t.Helper()
	entry, err := f.store.LatestSyncLog(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	return *entry
}

func floatPtr(f float64) *float64 { return &f }

func stringPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
