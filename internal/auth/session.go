package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "xero-auth-session"

// NewSessionStore creates the cookie store that carries the OAuth
// state nonce between connect and callback.
func NewSessionStore(secret []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600, // state only needs to survive the consent round-trip
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
