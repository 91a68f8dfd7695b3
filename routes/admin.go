package routes

import (
	"github.com/gorilla/mux"

	"github.com/tidewater/xerosync/internal/admin"
)

// RegisterAdminRoutes registers the sync trigger and reporting routes.
func RegisterAdminRoutes(router *mux.Router, adminHandler *admin.Handler) {
	xero := router.PathPrefix("/admin/xero").Subrouter()
	xero.HandleFunc("/sync-clients", adminHandler.SyncClientsHandler).Methods("POST")
	xero.HandleFunc("/sync-items", adminHandler.SyncItemsHandler).Methods("POST")
	xero.HandleFunc("/sync-payments", adminHandler.SyncPaymentsHandler).Methods("POST")
	xero.HandleFunc("/sync-pull-clients", adminHandler.PullClientsHandler).Methods("POST")
	xero.HandleFunc("/sync-pull-invoices", adminHandler.PullInvoicesHandler).Methods("POST")
	xero.HandleFunc("/sync-all", adminHandler.SyncAllHandler).Methods("POST")
	xero.HandleFunc("/status", adminHandler.StatusHandler).Methods("GET")
	xero.HandleFunc("/sync-log", adminHandler.SyncLogHandler).Methods("GET")

	router.HandleFunc("/admin/invoices/create", adminHandler.CreateInvoicesHandler).Methods("POST")
}
