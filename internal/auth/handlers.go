package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"github.com/tidewater/xerosync/internal/store"
)

// Handler provides HTTP handlers for the Xero OAuth flow.
type Handler struct {
	service     *Service
	store       *store.Store
	sessions    *sessions.CookieStore
	frontendURL string
	logger      *log.Logger
}

// NewHandler creates a new auth handler. frontendURL is where the
// callback redirects the browser after the exchange.
func NewHandler(service *Service, s *store.Store, sessionStore *sessions.CookieStore, frontendURL string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	return &Handler{
		service:     service,
		store:       s,
		sessions:    sessionStore,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// generateState creates a secure random state for OAuth.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConnectHandler initiates the Xero authorization flow.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	creds := h.service.resolver.Resolve(r.Context())
	if !creds.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Xero credentials not configured",
			"hint":  "Please configure Xero credentials in Settings",
		})
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["xero_state"] = state
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.service.ConsentURL(creds, state), http.StatusFound)
}

// CallbackHandler handles the OAuth callback from Xero and redirects
// the browser back to the frontend settings page.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	savedState, ok := session.Values["xero_state"].(string)
	if !ok || savedState == "" || savedState != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	delete(session.Values, "xero_state")
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	if _, err := h.service.Exchange(r.Context(), code); err != nil {
		h.logger.Printf("callback exchange failed: %v", err)
		http.Redirect(w, r, h.frontendURL+"/app/settings?error=xero_connection_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/app/settings?xero_connected=true", http.StatusFound)
}

// DisconnectHandler deletes stored tokens and saved credentials.
func (h *Handler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Disconnect(ctx); err != nil {
		h.logger.Printf("disconnect failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to clear OAuth tokens"})
		return
	}

	if err := h.store.DeleteSettings(ctx, store.SettingClientID, store.SettingClientSecret, store.SettingRedirectURI); err != nil {
		// Tokens are already gone; report success but note the leftover.
		h.logger.Printf("credential cleanup failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Disconnected from Xero and cleared all credentials",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
