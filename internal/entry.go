// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/tubenotes/internal/api"
	"github.com/starford/tubenotes/internal/engine"
	"github.com/starford/tubenotes/internal/index"
	"github.com/starford/tubenotes/internal/mcpserver"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/noteservice"
	"github.com/starford/tubenotes/internal/notestore"
	"github.com/starford/tubenotes/internal/progress"
	"github.com/starford/tubenotes/internal/provider"
	"github.com/starford/tubenotes/internal/resolver"
	"github.com/starford/tubenotes/internal/runservice"
	"github.com/starford/tubenotes/internal/scheduler"
	"github.com/starford/tubenotes/internal/sse"
)

// pipeline holds the components shared by every entry point.
type pipeline struct {
	cfg      *Config
	logger   *slog.Logger
	store    *notestore.Store
	resolver resolver.Resolver
	provider provider.Provider
}

func newApplication(opts []Option, defaultLog io.Writer) (*application, *slog.Logger, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	w := app.logOutput
	if w == nil {
		w = defaultLog
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

func newPipeline(ctx context.Context, cfg *Config, logger *slog.Logger) (*pipeline, error) {
	dbPath := cfg.SQLite.ResolvePath(cfg.Notes.Directory)
	logger.Info("Configuration loaded",
		slog.String("notes_dir", cfg.Notes.Directory),
		slog.String("sqlite_path", dbPath),
		slog.String("backend", cfg.Provider.Backend),
		slog.Int("concurrency", cfg.Sync.Concurrency),
		slog.String("log_level", cfg.App.LogLevel.String()))

	var (
		playlists resolver.Resolver
		fetcher   provider.Provider
	)
	switch cfg.Provider.Backend {
	case BackendAPI:
		r, err := resolver.NewAPI(ctx, cfg.Provider.APIKey)
		if err != nil {
			return nil, fmt.Errorf("init resolver: %w", err)
		}
		p, err := provider.NewAPI(ctx, cfg.Provider.APIKey, cfg.Provider.Region)
		if err != nil {
			return nil, fmt.Errorf("init provider: %w", err)
		}
		playlists, fetcher = r, p
	default:
		playlists = resolver.NewYtdlp(cfg.Provider.YtdlpPath)
		fetcher = provider.NewYtdlp(cfg.Provider.YtdlpPath)
	}

	store, err := notestore.Open(cfg.Notes.Directory, dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("init note store: %w", err)
	}

	return &pipeline{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		resolver: resolver.NewAuto(playlists),
		provider: provider.NewRetrying(fetcher, cfg.Provider.RetryConfig(), cfg.Provider.Timeout(), logger),
	}, nil
}

// runFunc builds one engine per run so force can vary per request.
func (p *pipeline) runFunc(reporter progress.Reporter) runservice.RunFunc {
	return func(ctx context.Context, ref string, force bool) (*models.RunReport, error) {
		e := engine.New(p.resolver, p.provider, p.store, engine.Config{
			ForceRefresh: force || p.cfg.Sync.ForceRefresh,
			Concurrency:  p.cfg.Sync.Concurrency,
		}, engine.WithLogger(p.logger), engine.WithReporter(reporter))
		return e.Run(ctx, ref)
	}
}

// Sync performs a single run over ref and returns its report. Logs go to
// stderr unless WithLogOutput says otherwise.
func Sync(ctx context.Context, ref string, force bool, opts ...Option) (*models.RunReport, error) {
	app, logger, err := newApplication(opts, os.Stderr)
	if err != nil {
		return nil, err
	}
	p, err := newPipeline(ctx, app.config, logger)
	if err != nil {
		return nil, err
	}
	defer p.store.Close()

	reporter := progress.Multi{progress.Log{Logger: logger}}
	if app.reporter != nil {
		reporter = append(reporter, app.reporter)
	}
	return p.runFunc(reporter)(ctx, ref, force)
}

// ServeMCP exposes the pipeline as MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	p, err := newPipeline(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer p.store.Close()

	runs := runservice.New(ctx, p.runFunc(progress.Log{Logger: logger}), logger)
	defer runs.Wait()

	srv := mcpserver.New(noteservice.NewService(p.store), runs)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// Run starts the HTTP control API, the notes watcher and the scheduler, and
// blocks until ctx is cancelled or a termination signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.store.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	g, gCtx := errgroup.WithContext(ctx)

	reporter := progress.Multi{progress.Log{Logger: logger}, broker}
	runs := runservice.New(gCtx, p.runFunc(reporter), logger)

	notes := noteservice.NewService(p.store)
	apiRouter := api.NewRouter(notes, runs, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(p.store.Root()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"notes directory unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Watch the notes directory; hand edits reconcile the ledger and reach
	// SSE subscribers.
	g.Go(func() error {
		if err := index.Watch(gCtx, p.store.Root(), p.store, logger, broker.PublishNoteEvent); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Schedule.Enabled {
		sched, err := scheduler.New(cfg.Schedule.Cron, cfg.Schedule.Timezone, cfg.Schedule.Playlists, runs, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		runs.Cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	err = g.Wait()
	runs.Wait()
	if err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher and scheduler stop with the
// HTTP server.
var errShutdown = errors.New("shutdown")
