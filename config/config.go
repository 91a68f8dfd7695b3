// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings, constructed once at process
// start and passed by dependency injection.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Xero       XeroConfig
	Encryption EncryptionConfig
	Session    SessionConfig
	Frontend   FrontendConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

// DatabaseConfig holds the SQLite datastore location.
type DatabaseConfig struct {
	Path string
}

// RedisConfig holds job queue connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// XeroConfig holds OAuth client defaults and endpoint URLs. Client
// credentials stored in the datastore take precedence over these at
// runtime; see auth.Resolver.
type XeroConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	Scopes         []string
	AuthURL        string
	TokenURL       string
	ConnectionsURL string
	APIBaseURL     string
}

// EncryptionConfig holds the key used to seal secrets at rest.
// The key is hex-encoded and must decode to 32 bytes.
type EncryptionConfig struct {
	Key string
}

// SessionConfig holds the cookie session secret.
type SessionConfig struct {
	Secret string
}

// FrontendConfig holds the URL the OAuth callback redirects back to.
type FrontendConfig struct {
	URL string
}

// DefaultScopes are the Xero OAuth scopes requested during connect.
var DefaultScopes = []string{
	"openid",
	"profile",
	"email",
	"accounting.transactions",
	"accounting.contacts",
	"accounting.settings",
	"offline_access",
}

// Load reads configuration from xerosync.yaml (working directory or
// /etc/xerosync) and XEROSYNC_* environment variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("xerosync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/xerosync")

	v.SetEnvPrefix("XEROSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "3001")
	v.SetDefault("server.timeout", "15s")
	v.SetDefault("database.path", "xerosync.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyprefix", "xerosync")
	v.SetDefault("xero.redirecturi", "http://localhost:3001/xero/callback")
	v.SetDefault("xero.scopes", DefaultScopes)
	v.SetDefault("xero.authurl", "https://login.xero.com/identity/connect/authorize")
	v.SetDefault("xero.tokenurl", "https://identity.xero.com/connect/token")
	v.SetDefault("xero.connectionsurl", "https://api.xero.com/connections")
	v.SetDefault("xero.apibaseurl", "https://api.xero.com/api.xro/2.0")
	v.SetDefault("frontend.url", "http://localhost:5173")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
