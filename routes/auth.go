package routes

import (
	"github.com/gorilla/mux"

	"github.com/tidewater/xerosync/internal/auth"
)

// RegisterAuthRoutes registers the Xero OAuth routes.
func RegisterAuthRoutes(router *mux.Router, authHandler *auth.Handler) {
	router.HandleFunc("/xero/connect", authHandler.ConnectHandler).Methods("GET")
	router.HandleFunc("/xero/callback", authHandler.CallbackHandler).Methods("GET")
	router.HandleFunc("/xero/disconnect", authHandler.DisconnectHandler).Methods("POST")
}
