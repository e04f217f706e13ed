// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/export"
	"github.com/starford/dagaz/internal/inbox"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/lock"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/streak"
)

// components is the object graph shared by every command.
type components struct {
	db       *store.DB
	journal  *journal.Service
	streaks  *streak.Engine
	stats    *analytics.Engine
	session  *lock.Session
	exporter *export.Exporter
}

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{version: "dev", logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// open connects the store and builds the services. A store that cannot be
// opened is fatal; a failed seed is logged and the journal starts anyway.
func (a *application) open(ctx context.Context, logger *slog.Logger, notifier journal.Notifier) (*components, error) {
	cfg := a.config

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := db.Seed(ctx); err != nil {
		logger.Warn("seed failed", slog.String("error", err.Error()))
	}

	exportDir, err := storage.NewFS(cfg.Export.Path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init export dir: %w", err)
	}

	svcOpts := []journal.Option{journal.WithLogger(logger)}
	if notifier != nil {
		svcOpts = append(svcOpts, journal.WithNotifier(notifier))
	}

	return &components{
		db:       db,
		journal:  journal.NewService(db, svcOpts...),
		streaks:  streak.New(db),
		stats:    analytics.New(db),
		session:  lock.NewSession(db),
		exporter: export.NewExporter(db, exportDir, logger),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("export_path", cfg.Export.Path),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.StatsThrottle)
	defer broker.Close()

	c, err := app.open(ctx, logger, broker)
	if err != nil {
		return err
	}
	defer c.db.Close()

	apiRouter := api.NewRouter(api.Deps{
		Journal:     c.journal,
		Streaks:     c.streaks,
		Stats:       c.stats,
		Exporter:    c.exporter,
		Session:     c.session,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Events:      broker,
	})

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.db.Version(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Import pending inbox documents, then keep watching.
	if cfg.Inbox.Enabled() {
		inboxDir, err := storage.NewFS(cfg.Inbox.Path)
		if err != nil {
			return fmt.Errorf("init inbox dir: %w", err)
		}
		box := inbox.New(inboxDir, c.journal, logger)
		if rep, err := box.Sync(ctx); err != nil {
			logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("inbox synced",
				slog.Int("imported", rep.Imported),
				slog.Int("rejected", rep.Rejected),
				slog.Int("failed", rep.Failed))
		}

		g.Go(func() error {
			return box.Watch(gCtx, func(e *models.JournalEntry) {
				logger.Info("inbox entry imported",
					slog.Int64("id", e.ID),
					slog.String("date", models.FormatDay(e.Date)))
			})
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the journal to an MCP client over stdio until the client
// disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}

	c, err := app.open(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	srv := mcpserver.New(c.journal, c.streaks, c.stats, app.version)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp serve: %w", err)
	}
	return nil
}

// RunExport writes the Markdown export of [from, to] into the configured
// export directory.
func RunExport(ctx context.Context, from, to time.Time, opts ...Option) (*export.Result, error) {
	app, logger, err := setup(opts)
	if err != nil {
		return nil, err
	}

	c, err := app.open(ctx, logger, nil)
	if err != nil {
		return nil, err
	}
	defer c.db.Close()

	return c.exporter.Export(ctx, from, to)
}
