package app

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/techgear-labs/storefront/internal/browse"
)

// Storage driver names.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (TECHGEAR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	Storage      StorageConfig
	Catalog      CatalogConfig
	Listing      ListingConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where per-client state blobs live.
type StorageConfig struct {
	Driver      string `default:"memory" usage:"State storage driver: memory, file, or postgres"`
	Dir         string `default:"./data" usage:"Blob directory for the file driver"`
	DatabaseURL string `usage:"PostgreSQL connection URL for the postgres driver (TECHGEAR_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// CatalogConfig controls catalog loading and hot reload.
type CatalogConfig struct {
	Path     string        `default:"" usage:"External catalog file (JSON, .gz supported); empty uses the embedded seed"`
	Watch    bool          `default:"false" usage:"Reload the catalog file when it changes"`
	Debounce time.Duration `default:"400ms" usage:"Quiet period before a catalog reload"`
}

// ListingConfig controls the viewport-to-page-size table used by product
// listings.
type ListingConfig struct {
	Breakpoints     string `default:"640:4,1024:6,1440:9" usage:"Ascending maxWidth:pageSize pairs, comma-separated"`
	DesktopPageSize int    `default:"12" usage:"Items per page at or above the last breakpoint" flag:"desktop-page-size"`
}

// Table parses the breakpoint pairs into a browse table. The desktop page
// size is appended as a final catch-all bucket so it is configurable too.
func (c ListingConfig) Table() (browse.Breakpoints, error) {
	if c.DesktopPageSize < 1 {
		return nil, errors.Errorf("desktop page size must be positive, got %d", c.DesktopPageSize)
	}

	var table browse.Breakpoints
	prevWidth := 0
	for _, pair := range strings.Split(c.Breakpoints, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		width, size, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, errors.Errorf("breakpoint %q: want maxWidth:pageSize", pair)
		}
		w, err := strconv.Atoi(strings.TrimSpace(width))
		if err != nil || w <= prevWidth {
			return nil, errors.Errorf("breakpoint %q: widths must be positive and ascending", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(size))
		if err != nil || n < 1 {
			return nil, errors.Errorf("breakpoint %q: page size must be positive", pair)
		}
		table = append(table, browse.Breakpoint{MaxWidth: w, PageSize: n})
		prevWidth = w
	}

	table = append(table, browse.Breakpoint{MaxWidth: math.MaxInt, PageSize: c.DesktopPageSize})
	return table, nil
}

// SessionConfig controls in-memory session lifecycle.
type SessionConfig struct {
	TTL             time.Duration `default:"30m" usage:"Idle time before a session's in-memory state is evicted"`
	CleanupInterval time.Duration `default:"5m" usage:"Idle session sweep interval" flag:"session-cleanup"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	// AllowCredentials must be paired with explicit Origins for the session
	// cookie to flow cross-origin; the wildcard default serves header-based
	// sessions.
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
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
		EnvPrefix: "TECHGEAR",
		Files:     []string{"config.yaml", "/etc/techgear/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Storage.Driver {
	case StorageMemory, StorageFile:
	case StoragePostgres:
		if cfg.Storage.DatabaseURL == "" {
			return nil, errors.New("database URL is required for the postgres driver: set TECHGEAR_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Catalog.Watch && cfg.Catalog.Path == "" {
		return nil, errors.New("catalog watch requires a catalog path")
	}

	if _, err := cfg.Listing.Table(); err != nil {
		return nil, errors.Wrap(err, "listing config")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's TECHGEAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
