package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/diacritics-settings/internal/api"
	"github.com/eugenenazirov/diacritics-settings/internal/config"
	"github.com/eugenenazirov/diacritics-settings/internal/diacritics"
	"github.com/eugenenazirov/diacritics-settings/internal/metrics"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	settings *diacritics.VersionConfig
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
	watcher  *config.Watcher
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	settings := diacritics.New(
		diacritics.WithObserver(metrics.RecordVersionUpdate),
		diacritics.WithObserver(versionUpdateLogger(logger)),
	)
	metrics.SetAPIVersion(settings.Version())

	handler := api.NewHandler(settings)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	app := &App{
		settings: settings,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, BuildRootHandler(apiRouter)),
	}

	if err := app.ApplyConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply API version: %w", err)
	}

	return app, nil
}

// BuildRootHandler routes API requests and exposes Prometheus metrics.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// ApplyConfig requests the configured API version, if any. Only downgrades take
// effect; an upgrade request is logged and ignored. A malformed version is an error.
func (a *App) ApplyConfig(cfg config.Config) error {
	if cfg.APIVersion == "" {
		return nil
	}

	_, err := a.settings.TrySetVersion(cfg.APIVersion)
	if err != nil && !errors.Is(err, diacritics.ErrUpgrade) {
		return err
	}
	return nil
}

// WatchConfig reapplies the API version whenever the config file changes.
func (a *App) WatchConfig(ctx context.Context, overrides config.CLIOverrides) error {
	w, err := config.Watch(ctx, overrides, a.logger, func(cfg config.Config) {
		if err := a.ApplyConfig(cfg); err != nil {
			a.logger.Warn("reloaded API version rejected", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	a.watcher = w
	return nil
}

// Settings returns the shared diacritics settings.
func (a *App) Settings() *diacritics.VersionConfig {
	return a.settings
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("api_endpoint", a.settings.Endpoint()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close stops the config watcher, if one is running.
func (a *App) Close() error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Close()
}

func versionUpdateLogger(logger *zap.Logger) diacritics.Observer {
	return func(res diacritics.UpdateResult) {
		fields := []zap.Field{
			zap.String("version", res.Version),
			zap.String("previous_version", res.Previous),
			zap.String("outcome", string(res.Outcome)),
		}
		if res.Applied {
			logger.Info("API version updated", fields...)
			return
		}
		logger.Warn("API version update ignored", fields...)
	}
}
