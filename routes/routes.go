// Package routes wires the HTTP handlers onto the router.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tidewater/xerosync/internal/admin"
	"github.com/tidewater/xerosync/internal/auth"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *mux.Router, authHandler *auth.Handler, adminHandler *admin.Handler) {
	router.HandleFunc("/health", healthHandler).Methods("GET")

	RegisterAuthRoutes(router, authHandler)
	RegisterAdminRoutes(router, adminHandler)

	// The frontend settings page polls connection state here.
	router.HandleFunc("/xero/status", adminHandler.StatusHandler).Methods("GET")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
