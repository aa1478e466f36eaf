package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config is the API server configuration. Values come from flags, TODO_*
// environment variables and config.yaml, in that order of precedence.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (TODO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AutoMigrate bool   `default:"true" usage:"Apply pending migrations on start-up" flag:"auto-migrate"`
	Database    DatabaseConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// DatabaseConfig tunes the connection pool.
type DatabaseConfig struct {
	MaxConns int32 `default:"10" usage:"Maximum open database connections" flag:"db-max-conns"`
}

// RateLimitConfig controls the per-client rate limiter. Max 0 disables it.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*"     usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads the configuration from the command line, environment and
// YAML files.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	base.EnvPrefix = "TODO"
	if base.Files == nil {
		base.Files = []string{"config.yaml", "/etc/todo/config.yaml"}
	}
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set TODO_DATABASE_URL or DATABASE_URL")
	}
	return &cfg, nil
}

// applyPlatformDefaults honours DATABASE_URL and PORT, which hosting
// platforms set without the TODO_ prefix.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
