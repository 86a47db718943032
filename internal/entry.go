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

	"github.com/starford/bedrock/internal/api"
	"github.com/starford/bedrock/internal/index"
	"github.com/starford/bedrock/internal/mcpserver"
	"github.com/starford/bedrock/internal/noteservice"
	"github.com/starford/bedrock/internal/preview"
	"github.com/starford/bedrock/internal/sse"
	"github.com/starford/bedrock/internal/storage"
)

// Run starts the HTTP server, the vault watcher and the event broker.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts...)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := app.logger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("autosave_delay", cfg.Editor.AutosaveDelay),
		slog.Bool("previews", cfg.Preview.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svcOpts := []noteservice.Option{
		noteservice.WithAutosaveDelay(cfg.Editor.AutosaveDelay),
		noteservice.WithPublisher(broker),
	}

	// Image previews.
	var previewCache *preview.Cache
	if cfg.Preview.Enabled {
		previewCache = preview.NewCache()
		loader := preview.NewLoader(previewCache, cfg.Preview.Workers, cfg.Preview.MaxBytes, logger, broker.PublishPreviewReady)
		defer loader.Close()
		svcOpts = append(svcOpts, noteservice.WithPreview(loader))
	}

	core, err := openCore(ctx, cfg, logger, svcOpts...)
	if err != nil {
		return err
	}
	defer core.close(logger)

	apiRouter := api.NewRouter(core.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, previewCache)

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

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; external edits are published to SSE clients.
	g.Go(func() error {
		err := index.Watch(gCtx, core.svc, core.store.Root(), logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

		// Stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts...)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := app.logger(os.Stderr)

	core, err := openCore(ctx, cfg, logger, noteservice.WithAutosaveDelay(cfg.Editor.AutosaveDelay))
	if err != nil {
		return err
	}
	defer core.close(logger)

	logger.Info("MCP server starting", slog.String("vault_path", cfg.Vault.Path))
	return mcpserver.New(core.store, core.svc, core.db).ServeStdio()
}

var errShutdown = errors.New("shutdown requested")

// core is the storage, index and note service shared by every entry point.
type core struct {
	store storage.Provider
	db    *index.DB
	svc   *noteservice.Service
}

func openCore(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...noteservice.Option) (*core, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svc := noteservice.NewService(store, db, logger, opts...)
	if err := svc.Load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load vault: %w", err)
	}
	logger.Info("Vault loaded", slog.Int("notes", len(svc.Paths())))

	return &core{store: store, db: db, svc: svc}, nil
}

// close flushes open sessions before the index goes away.
func (c *core) close(logger *slog.Logger) {
	if err := c.svc.Close(); err != nil {
		logger.Error("flush sessions", slog.String("error", err.Error()))
	}
	if err := c.db.Close(); err != nil {
		logger.Error("close index", slog.String("error", err.Error()))
	}
}
