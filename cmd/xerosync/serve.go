package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/tidewater/xerosync/config"
	"github.com/tidewater/xerosync/infrastructure"
	"github.com/tidewater/xerosync/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the sync worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	container, err := infrastructure.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker drains the queue on its own goroutine; sync jobs run
	// one at a time.
	container.Worker.Start(ctx)

	router := mux.NewRouter()
	router.Use(routes.RequestLogger(log.New(os.Stderr, "[http] ", log.LstdFlags)))
	routes.SetupRoutes(router, container.AuthHandler, container.AdminHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Stop the worker after the HTTP server so no new jobs arrive while
	// the in-flight one finishes.
	cancel()
	container.Worker.Wait()

	log.Println("Server gracefully stopped")
	return nil
}
