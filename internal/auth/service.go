package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tidewater/xerosync/config"
)

// refreshWindow is how close to expiry a token is treated as expiring.
const refreshWindow = 5 * time.Minute

// defaultExpiresIn is assumed when the token endpoint omits
// expires_in.
const defaultExpiresIn = 1800

// tokenResponse is the token endpoint's JSON body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	IDToken      string `json:"id_token"`
}

// Connection is one entry from the Xero connections endpoint.
type Connection struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	TenantType string `json:"tenantType"`
}

// Service handles OAuth 2.0 operations against Xero's identity
// endpoints and guarantees a fresh token before any remote call.
type Service struct {
	cfg      config.XeroConfig
	resolver *Resolver
	tokens   TokenStore
	client   *http.Client
	logger   *log.Logger
	now      func() time.Time

	// mu makes the check-refresh-persist sequence single-flight so
	// concurrent callers never issue duplicate refresh calls.
	mu sync.Mutex
}

// NewService creates a new auth service.
func NewService(cfg config.XeroConfig, resolver *Resolver, tokens TokenStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	return &Service{
		cfg:      cfg,
		resolver: resolver,
		tokens:   tokens,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureAuth returns a tenant-scoped session backed by a token that is
// valid for at least the refresh window. It refreshes and persists the
// token set when needed. Every sync handler calls this once per batch.
func (s *Service) EnsureAuth(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.tokens.Get(ctx)
	if err != nil {
		return nil, &AuthError{Op: "load tokens", Err: err}
	}
	if ts == nil || ts.AccessToken == "" {
		return nil, &AuthError{Op: "ensure auth", Err: ErrNotConnected}
	}

	if s.now().Before(ts.ExpiresAt.Add(-refreshWindow)) {
		return sessionFrom(ts), nil
	}

	if ts.RefreshToken == "" {
		return nil, &AuthError{Op: "ensure auth", Err: ErrRefreshTokenMissing}
	}

	refreshed, err := s.refresh(ctx, ts)
	if err != nil {
		return nil, err
	}
	return sessionFrom(refreshed), nil
}

// refresh exchanges the refresh token for a new token set and persists
// it, preserving the tenant binding.
func (s *Service) refresh(ctx context.Context, ts *TokenSet) (*TokenSet, error) {
	creds := s.resolver.Resolve(ctx)
	if !creds.Valid() {
		return nil, &AuthError{Op: "refresh token", Err: ErrCredentialsMissing}
	}

	s.logger.Printf("token expiring, refreshing for tenant %s", ts.TenantID)

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", ts.RefreshToken)

	resp, err := s.executeTokenRequest(ctx, creds, data)
	if err != nil {
		return nil, err
	}

	newSet := &TokenSet{
		TenantID:     ts.TenantID,
		TenantName:   ts.TenantName,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.expiry(resp.ExpiresIn),
	}
	// Reuse the previous refresh token when the endpoint omits one.
	if newSet.RefreshToken == "" {
		newSet.RefreshToken = ts.RefreshToken
	}

	if err := s.tokens.Save(ctx, newSet); err != nil {
		return nil, &AuthError{Op: "persist refreshed tokens", Err: err}
	}

	s.logger.Printf("token refresh successful, expires %s", newSet.ExpiresAt.Format(time.RFC3339))
	return newSet, nil
}

// Exchange trades an authorization code for a token set, binds it to
// the first returned tenant, and persists it.
func (s *Service) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	creds := s.resolver.Resolve(ctx)
	if !creds.Valid() {
		return nil, &AuthError{Op: "exchange code", Err: ErrCredentialsMissing}
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", creds.RedirectURI)

	resp, err := s.executeTokenRequest(ctx, creds, data)
	if err != nil {
		return nil, err
	}

	conns, err := s.connections(ctx, resp.AccessToken)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, &AuthError{Op: "exchange code", Err: fmt.Errorf("no xero tenants found")}
	}

	// Multi-tenant accounts are not disambiguated; the first
	// connection wins.
	tenant := conns[0]
	ts := &TokenSet{
		TenantID:     tenant.TenantID,
		TenantName:   tenant.TenantName,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.expiry(resp.ExpiresIn),
	}

	if err := s.tokens.Save(ctx, ts); err != nil {
		return nil, &AuthError{Op: "persist tokens", Err: err}
	}
	return ts, nil
}

// ConsentURL builds the Xero authorization URL for the connect flow.
func (s *Service) ConsentURL(creds Credentials, state string) string {
	u, _ := url.Parse(s.cfg.AuthURL)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", creds.ClientID)
	q.Set("redirect_uri", creds.RedirectURI)
	q.Set("scope", strings.Join(s.cfg.Scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// Disconnect removes the stored token set.
func (s *Service) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Delete(ctx)
}

// executeTokenRequest performs a request against the token endpoint
// with basic auth of the client credentials.
func (s *Service) executeTokenRequest(ctx context.Context, creds Credentials, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &AuthError{Op: "token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &AuthError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{
			Op:         "token request",
			Err:        fmt.Errorf("status %d", resp.StatusCode),
			RemoteBody: string(body),
		}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, &AuthError{Op: "parse token response", Err: err}
	}
	return &token, nil
}

// connections lists the tenants the token grants access to.
func (s *Service) connections(ctx context.Context, accessToken string) ([]Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ConnectionsURL, nil)
	if err != nil {
		return nil, &AuthError{Op: "list connections", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &AuthError{Op: "list connections", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{
			Op:         "list connections",
			Err:        fmt.Errorf("status %d", resp.StatusCode),
			RemoteBody: string(body),
		}
	}

	var conns []Connection
	if err := json.NewDecoder(resp.Body).Decode(&conns); err != nil {
		return nil, &AuthError{Op: "parse connections", Err: err}
	}
	return conns, nil
}

func (s *Service) expiry(expiresIn int) time.Time {
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return s.now().Add(time.Duration(expiresIn) * time.Second)
}

func sessionFrom(ts *TokenSet) *Session {
	return &Session{
		TenantID:    ts.TenantID,
		TenantName:  ts.TenantName,
		AccessToken: ts.AccessToken,
	}
}
