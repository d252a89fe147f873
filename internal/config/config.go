// Package config loads the coffee shop service configuration.
//
// Sources are layered in order, later ones overriding earlier ones:
// built-in defaults, an optional YAML file, COFFEESHOP_* environment
// variables. Finally file:// references are replaced by file contents.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/deepworx/coffeeshop/internal/api"
	"github.com/deepworx/coffeeshop/internal/auth"
	"github.com/deepworx/coffeeshop/pkg/grpchealth"
	"github.com/deepworx/coffeeshop/pkg/httpmw/deadline"
	"github.com/deepworx/coffeeshop/pkg/httpmw/requestid"
	"github.com/deepworx/coffeeshop/pkg/koanfutil"
	"github.com/deepworx/coffeeshop/pkg/otel"
	"github.com/deepworx/coffeeshop/pkg/postgres"
	"github.com/deepworx/coffeeshop/pkg/slogutil"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "COFFEESHOP_"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// listKeys are split on commas when set from the environment.
var listKeys = []string{
	"auth.algorithms",
	"cors.allowed_origins",
}

var (
	// ErrInvalidStore is returned for an unknown store backend.
	ErrInvalidStore = errors.New("invalid store backend")

	// ErrAddrRequired is returned when the listen address is empty.
	ErrAddrRequired = errors.New("server addr is required")
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig      `koanf:"server"`
	Log       slogutil.Config   `koanf:"log"`
	OTel      otel.Config       `koanf:"otel"`
	Auth      auth.Config       `koanf:"auth"`
	Store     StoreConfig       `koanf:"store"`
	Database  postgres.Config   `koanf:"database"`
	CORS      api.CORSConfig    `koanf:"cors"`
	Health    grpchealth.Config `koanf:"health"`
	Deadline  deadline.Config   `koanf:"deadline"`
	RequestID requestid.Config  `koanf:"request_id"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig selects the drink store.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `koanf:"backend"`

	// Seed inserts the sample drinks on startup.
	Seed bool `koanf:"seed"`
}

// Default returns the configuration used when no source overrides a value.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Log:       slogutil.DefaultConfig(),
		OTel:      otel.DefaultConfig(),
		Auth:      auth.DefaultConfig(),
		Store:     StoreConfig{Backend: StoreMemory},
		Database:  postgres.DefaultConfig(),
		CORS:      api.DefaultCORSConfig(),
		Health:    grpchealth.DefaultConfig(),
		Deadline:  deadline.DefaultConfig(),
		RequestID: requestid.DefaultConfig(),
	}
}

// Load reads the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(koanfutil.WithDefaults(Default()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(koanfutil.Env(EnvPrefix, listKeys...), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Load(koanfutil.FileResolver(k), nil); err != nil {
		return Config{}, fmt.Errorf("resolve file references: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-section constraints and each section's own rules.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Deadline.Validate(); err != nil {
		return fmt.Errorf("deadline: %w", err)
	}
	if c.Server.Addr == "" {
		return ErrAddrRequired
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStore, c.Store.Backend)
	}
	return nil
}
