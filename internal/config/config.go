// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and BRANDBOARD_ env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	Store      StoreConfig       `koanf:"store"`
	Breaker    BreakerConfig     `koanf:"breaker"`
	Selection  SelectionConfig   `koanf:"selection"`
	Timeline   TimelineConfig    `koanf:"timeline"`
	Attributes []AttributeConfig `koanf:"attributes" validate:"min=1,dive"`
	Session    SessionConfig     `koanf:"session"`
	HTTP       HTTPConfig        `koanf:"http"`
}

// StoreConfig selects and configures the row store backend.
type StoreConfig struct {
	// Driver is one of memory, postgres, sqlite, mysql, mongo.
	Driver string `koanf:"driver" validate:"oneof=memory postgres sqlite mysql mongo"`

	// DSN is the connection string for every driver except memory.
	DSN string `koanf:"dsn" validate:"required_unless=Driver memory"`

	// Database names the mongo database.
	Database string `koanf:"database" validate:"required_if=Driver mongo"`

	// Fixtures is an optional YAML file seeding the memory driver.
	Fixtures string `koanf:"fixtures"`

	Tables TablesConfig `koanf:"tables"`
}

// TablesConfig names the tables the query layer reads.
type TablesConfig struct {
	Places     string `koanf:"places" validate:"ident"`
	Likes      string `koanf:"likes" validate:"ident"`
	Dislikes   string `koanf:"dislikes" validate:"ident"`
	Profiles   string `koanf:"profiles" validate:"ident"`
	Onboarding string `koanf:"onboarding" validate:"ident"`
}

// BreakerConfig tunes the circuit breaker in front of the row store.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// SelectionConfig sizes the selection worker pool and viewer state.
type SelectionConfig struct {
	WorkerCount int `koanf:"worker_count" validate:"min=1"`
	QueueSize   int `koanf:"queue_size" validate:"min=1"`

	// IdleTTL evicts viewer state untouched for this long.
	IdleTTL time.Duration `koanf:"idle_ttl" validate:"min=1s"`
}

// TimelineConfig controls calendar math for the timeline.
type TimelineConfig struct {
	// Location is the IANA zone used to bucket timestamps.
	Location           string `koanf:"location" validate:"timezone"`
	DefaultGranularity string `koanf:"default_granularity" validate:"oneof=weekly monthly"`
}

// AttributeConfig is one entry of the attribute taxonomy.
type AttributeConfig struct {
	Key   string `koanf:"key" validate:"required"`
	Label string `koanf:"label" validate:"required"`
}

// SessionConfig configures the session/redirect middleware.
type SessionConfig struct {
	Enabled         bool     `koanf:"enabled"`
	CookieName      string   `koanf:"cookie_name" validate:"required"`
	JWTSecret       string   `koanf:"jwt_secret" validate:"required_if=Enabled true"`
	ProtectedPaths  []string `koanf:"protected_paths"`
	OnboardingPaths []string `koanf:"onboarding_paths"`
	LoginPath       string   `koanf:"login_path" validate:"required"`
	OnboardingPath  string   `koanf:"onboarding_path" validate:"required"`
	ErrorPath       string   `koanf:"error_path" validate:"required"`
}

// HTTPConfig tunes the HTTP server and API surface.
type HTTPConfig struct {
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`

	// MaxPlaces caps GET /api/places results; 0 means unlimited.
	MaxPlaces int `koanf:"max_places" validate:"gte=0"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Store: StoreConfig{
			Driver: "memory",
			Tables: TablesConfig{
				Places:     "places",
				Likes:      "likes",
				Dislikes:   "dislikes",
				Profiles:   "profiles",
				Onboarding: "onboarding",
			},
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
		Selection: SelectionConfig{
			WorkerCount: runtime.NumCPU() * 2,
			QueueSize:   1024,
			IdleTTL:     30 * time.Minute,
		},
		Timeline: TimelineConfig{
			Location:           "UTC",
			DefaultGranularity: "weekly",
		},
		Attributes: []AttributeConfig{
			{Key: "1", Label: "Nightlife Enthusiast"},
			{Key: "2", Label: "Luxury-Seeking"},
			{Key: "4", Label: "Solitary"},
			{Key: "9", Label: "Adventurous"},
			{Key: "10", Label: "Social"},
		},
		Session: SessionConfig{
			Enabled:         false,
			CookieName:      "sb-access-token",
			ProtectedPaths:  []string{"/discover", "/curated", "/feed/", "/profile", "/onboarding"},
			OnboardingPaths: []string{"/discover", "/curated", "/profile/edit"},
			LoginPath:       "/login",
			OnboardingPath:  "/onboarding",
			ErrorPath:       "/error",
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: []string{"*"},
			RateLimitRequests:  300,
			RateLimitWindow:    time.Minute,
			MaxPlaces:          500,
			ReadTimeout:        5 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        60 * time.Second,
		},
	}
}
