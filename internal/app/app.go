package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/internal/catalog"
	"github.com/techgear-labs/storefront/internal/handler"
	"github.com/techgear-labs/storefront/internal/session"
	"github.com/techgear-labs/storefront/internal/storage/postgres"
	"github.com/techgear-labs/storefront/pkg/blobstore"
	"github.com/techgear-labs/storefront/pkg/health"
	"github.com/techgear-labs/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Per-client state storage.
	blobs, cleanup, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "create blob store")
	}
	defer cleanup()

	// Product catalog: embedded seed or external file.
	cat, err := newCatalog(cfg.Catalog)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.Int("products", cat.Len()))

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cat, cfg.Catalog.Path, cfg.Catalog.Debounce, lg.Named("watch"))
		if err != nil {
			return errors.Wrap(err, "create catalog watcher")
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				lg.Error("Catalog watcher stopped", zap.Error(err))
			}
		}()
	}

	// Sessions.
	sessions := session.NewManager(cat, blobs, cfg.Session.TTL, lg)
	sessions.StartCleanup(ctx, cfg.Session.CleanupInterval)

	// Health check service.
	healthSvc := health.New()
	if pinger, ok := blobs.(blobstore.Pinger); ok {
		healthSvc.AddReadinessCheck("storage", 5*time.Second, pinger.Ping)
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	breakpoints, err := cfg.Listing.Table()
	if err != nil {
		return errors.Wrap(err, "listing config")
	}
	h := handler.New(handler.Config{
		ImageBaseURL: cfg.ImageBaseURL,
		Breakpoints:  breakpoints,
	}, cat, sessions, lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Session-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.Labeler(),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newBlobStore builds the configured blob store. The returned cleanup
// releases driver resources (the postgres pool) and is safe to call for
// every driver.
func newBlobStore(ctx context.Context, cfg StorageConfig) (blobstore.Store, func(), error) {
	switch cfg.Driver {
	case StorageMemory:
		return blobstore.NewMemory(), func() {}, nil

	case StorageFile:
		store, err := blobstore.NewFile(cfg.Dir)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "file store at %s", cfg.Dir)
		}
		return store, func() {}, nil

	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewBlobs(pool), pool.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newCatalog loads the external catalog file when configured, otherwise the
// embedded seed.
func newCatalog(cfg CatalogConfig) (*catalog.Store, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	products, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(products)
}
