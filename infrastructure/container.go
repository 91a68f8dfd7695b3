// Package infrastructure assembles the application's dependencies.
package infrastructure

import (
	"fmt"
	"log"
	"os"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/tidewater/xerosync/config"
	"github.com/tidewater/xerosync/infrastructure/redis"
	"github.com/tidewater/xerosync/internal/admin"
	"github.com/tidewater/xerosync/internal/auth"
	"github.com/tidewater/xerosync/internal/crypto"
	"github.com/tidewater/xerosync/internal/jobs"
	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/internal/sync"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// Container provides application dependencies.
type Container struct {
	// Services
	AuthService *auth.Service
	SyncService *sync.Service

	// Handlers
	AuthHandler  *auth.Handler
	AdminHandler *admin.Handler

	// Infrastructure
	Store       *store.Store
	RedisClient goredis.UniversalClient
	RedisHealth *redis.HealthChecker
	Queue       *jobs.RedisQueue
	Worker      *jobs.Worker
}

// NewContainer creates and wires the dependency container.
func NewContainer(cfg config.Config) (*Container, error) {
	c := &Container{}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	c.Store = st

	cipher, err := crypto.NewCipher(cfg.Encryption.Key)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build cipher: %w", err)
	}

	c.RedisClient = redis.NewClient(cfg.Redis)
	c.RedisHealth = redis.NewHealthChecker(c.RedisClient, 30*time.Second)
	c.Queue = jobs.NewRedisQueue(c.RedisClient, cfg.Redis.KeyPrefix+":jobs")

	authLogger := log.New(os.Stderr, "[auth] ", log.LstdFlags)
	resolver := auth.NewResolver(st, cipher, auth.Credentials{
		ClientID:     cfg.Xero.ClientID,
		ClientSecret: cfg.Xero.ClientSecret,
		RedirectURI:  cfg.Xero.RedirectURI,
	}, authLogger)
	tokens := auth.NewSettingsTokenStore(st, cipher)
	c.AuthService = auth.NewService(cfg.Xero, resolver, tokens, authLogger)

	apiClient := xeroclient.NewClient(cfg.Xero.APIBaseURL)
	c.SyncService = sync.NewService(st, c.AuthService, apiClient,
		log.New(os.Stderr, "[sync] ", log.LstdFlags))
	c.Worker = jobs.NewWorker(c.Queue, c.SyncService,
		log.New(os.Stderr, "[worker] ", log.LstdFlags))

	sessionStore := auth.NewSessionStore([]byte(cfg.Session.Secret))
	c.AuthHandler = auth.NewHandler(c.AuthService, st, sessionStore, cfg.Frontend.URL, authLogger)
	c.AdminHandler = admin.NewHandler(c.Queue, st, c.AuthService,
		log.New(os.Stderr, "[admin] ", log.LstdFlags))

	return c, nil
}

// Shutdown gracefully closes connections.
func (c *Container) Shutdown() {
	if c.RedisHealth != nil {
		c.RedisHealth.Stop()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			log.Printf("Error closing datastore: %v", err)
		}
	}
}
