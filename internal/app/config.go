package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (MENUFLOW_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MENUFLOW_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OrderLimit  RateLimitConfig
	CORS        CORSConfig
	Push        PushConfig
	Tasks       TasksConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client-per-menu order submission limiter.
type RateLimitConfig struct {
	Max    int           `default:"30" usage:"Max order submissions per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// PushConfig holds the Web Push VAPID credentials.
type PushConfig struct {
	Subscriber      string `default:"" usage:"VAPID subscriber contact (mailto: address)" flag:"push-subscriber"`
	VAPIDPublicKey  string `usage:"VAPID public key" flag:"vapid-public-key"`
	VAPIDPrivateKey string `usage:"VAPID private key" flag:"vapid-private-key"`
	TTL             int    `default:"60" usage:"Push message TTL in seconds" flag:"push-ttl"`
}

// TasksConfig controls the best-effort background task runner.
type TasksConfig struct {
	Timeout       time.Duration `default:"30s" usage:"Per-task execution timeout"`
	ShutdownGrace time.Duration `default:"10s" usage:"Wait for in-flight tasks at shutdown" flag:"tasks-shutdown-grace"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MENUFLOW",
		Files:     []string{"config.yaml", "/etc/menuflow/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MENUFLOW_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) using standard names like DATABASE_URL and PORT
// onto the MENUFLOW_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
