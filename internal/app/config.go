package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (LUNCH_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string        `usage:"PostgreSQL connection URL (LUNCH_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL       string        `default:"" usage:"Redis URL enabling Idempotency-Key support on order creation" flag:"redis-url"`
	AMQPURL        string        `default:"" usage:"RabbitMQ URL for order events; empty disables publishing" flag:"amqp-url"`
	IdempotencyTTL time.Duration `default:"24h" usage:"How long an Idempotency-Key is remembered" flag:"idempotency-ttl"`
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CORSConfig controls Cross-Origin Resource Sharing headers for the web UI.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from command-line args, environment
// variables and YAML config files, then applies platform defaults.
func LoadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		Args:      args,
		EnvPrefix: "LUNCH",
		Files:     []string{"config.yaml", "/etc/lunch/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set LUNCH_DATABASE_URL or DATABASE_URL")
	}
	if c.RedisURL != "" && c.IdempotencyTTL <= 0 {
		return errors.New("idempotency TTL must be positive when Redis is configured")
	}
	return nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL, REDIS_URL and
// PORT variables set by hosting platforms onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
