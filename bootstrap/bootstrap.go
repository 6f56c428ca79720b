// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/auth"
	"github.com/scribefox/creditgate/adapters/clock"
	"github.com/scribefox/creditgate/adapters/hasher"
	"github.com/scribefox/creditgate/adapters/idgen"
	"github.com/scribefox/creditgate/adapters/memory"
	"github.com/scribefox/creditgate/adapters/metrics"
	"github.com/scribefox/creditgate/adapters/remote"
	"github.com/scribefox/creditgate/adapters/sqlite"
	"github.com/scribefox/creditgate/app"
	"github.com/scribefox/creditgate/config"
	"github.com/scribefox/creditgate/ports"
	"github.com/scribefox/creditgate/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Catalog    *app.CatalogService
	Generation *app.GenerationService
	Guests     *app.GuestService

	holder    *config.Holder
	generator *swappableGenerator
}

// swappableGenerator lets config hot reload replace the backend client
// without restarting in-flight services.
type swappableGenerator struct {
	current atomic.Pointer[remote.Generator]
}

func (g *swappableGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	return g.current.Load().Generate(ctx, req)
}

func (g *swappableGenerator) swap(cfg config.GeneratorConfig) {
	g.current.Store(remote.NewGenerator(remote.GeneratorConfig{
		BaseURL: cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}))
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload creates the application with config file watching.
// Generator settings and log level apply without restart.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := setupLogger(&config.Config{Logging: config.LoggingConfig{Level: "info", Format: "console"}})

	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}

	a, err := build(holder.Get(), holder)
	if err != nil {
		return nil, err
	}

	holder.OnChange(func(newCfg *config.Config) {
		a.generator.swap(newCfg.Generator)
		setLogLevel(newCfg.Logging.Level)
	})
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watching unavailable")
	}
	holder.WatchSignals()

	return a, nil
}

func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := setupLogger(cfg)
	logger.Info().Msg("initializing creditgate")

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	clk := clock.Real{}
	ids := idgen.UUID{}

	configStore := sqlite.NewConfigStore(db)
	userStore := sqlite.NewUserStore(db)
	auditStore := sqlite.NewAuditStore(db)
	guestStore := memory.NewGuestStore()

	gen := &swappableGenerator{}
	gen.swap(cfg.Generator)

	catalog := app.NewCatalogService(app.CatalogDeps{
		Store:   configStore,
		Audit:   auditStore,
		IDGen:   ids,
		Clock:   clk,
		Logger:  logger,
		Metrics: collector,
	})
	generation := app.NewGenerationService(app.GenerationDeps{
		Catalog:   catalog,
		Users:     userStore,
		Generator: gen,
		Clock:     clk,
		Logger:    logger,
		Metrics:   collector,
	})
	guests := app.NewGuestService(app.GuestDeps{
		Shadows:   guestStore,
		Generator: gen,
		Clock:     clk,
		Logger:    logger,
		Metrics:   collector,
	})

	if _, err := catalog.Load(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("initial catalog load failed")
	}

	handler := web.NewHandler(web.Deps{
		Catalog:     catalog,
		Generation:  generation,
		Guests:      guests,
		Users:       userStore,
		Audit:       auditStore,
		Identity:    auth.NewHeaderIdentity(userStore),
		Hasher:      hasher.NewBcrypt(0),
		AdminToken:  []byte(cfg.Admin.TokenHash),
		Logger:      logger,
		Metrics:     cfg.Metrics.Enabled,
		MetricsPath: cfg.Metrics.Path,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		Logger:     logger,
		DB:         db,
		HTTPServer: server,
		Metrics:    collector,
		Catalog:    catalog,
		Generation: generation,
		Guests:     guests,
		holder:     holder,
		generator:  gen,
	}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if a.holder != nil {
		a.holder.Stop()
	}
	return a.DB.Close()
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	setLogLevel(cfg.Logging.Level)

	if cfg.Logging.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
