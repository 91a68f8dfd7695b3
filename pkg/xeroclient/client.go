// Package xeroclient is a minimal client for the Xero accounting API,
// covering the operations the sync subsystem needs.
package xeroclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tidewater/xerosync/internal/auth"
)

// Client is the Xero accounting API client. Every call takes the
// tenant session explicitly; the client itself holds no credential
// state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a Xero API client rooted at baseURL
// (e.g. https://api.xero.com/api.xro/2.0).
func NewClient(baseURL string) *Client {
	settings := gobreaker.Settings{
		Name:    "xero-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// CreateContacts creates contacts and returns the remote records with
// their issued ids.
func (c *Client) CreateContacts(ctx context.Context, session *auth.Session, contacts []Contact) ([]Contact, error) {
	var out contactsEnvelope
	err := c.send(ctx, session, http.MethodPut, "/Contacts", contactsEnvelope{Contacts: contacts}, &out)
	if err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// GetContacts fetches the tenant's entire contact collection.
func (c *Client) GetContacts(ctx context.Context, session *auth.Session) ([]Contact, error) {
	var out contactsEnvelope
	if err := c.send(ctx, session, http.MethodGet, "/Contacts", nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// CreateItems creates billable items.
func (c *Client) CreateItems(ctx context.Context, session *auth.Session, items []Item) ([]Item, error) {
	var out itemsEnvelope
	err := c.send(ctx, session, http.MethodPut, "/Items", itemsEnvelope{Items: items}, &out)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateInvoices creates invoices.
func (c *Client) CreateInvoices(ctx context.Context, session *auth.Session, invoices []Invoice) ([]Invoice, error) {
	var out invoicesEnvelope
	err := c.send(ctx, session, http.MethodPut, "/Invoices", invoicesEnvelope{Invoices: invoices}, &out)
	if err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

// GetInvoices fetches the tenant's entire invoice collection.
func (c *Client) GetInvoices(ctx context.Context, session *auth.Session) ([]Invoice, error) {
	var out invoicesEnvelope
	if err := c.send(ctx, session, http.MethodGet, "/Invoices", nil, &out); err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

// send makes an authenticated request through the circuit breaker and
// decodes the JSON response into out.
func (c *Client) send(ctx context.Context, session *auth.Session, method, path string, body, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, session, method, path, body, out)
	})
	return err
}

func (c *Client) do(ctx context.Context, session *auth.Session, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Xero-Tenant-Id", session.TenantID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)

		var apiErr struct {
			Type    string `json:"Type"`
			Message string `json:"Message"`
		}
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("xero API error (%s): %s", apiErr.Type, apiErr.Message)
		}
		return fmt.Errorf("xero API returned status %d: %s", resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ParseDate interprets the API's date strings, which arrive either as
// bare dates or full timestamps.
func ParseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
