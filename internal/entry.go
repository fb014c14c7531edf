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

	"golang.org/x/sync/errgroup"

	"github.com/kexin94yyds/RI-Flow/internal/api"
	"github.com/kexin94yyds/RI-Flow/internal/desktop"
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
	"github.com/kexin94yyds/RI-Flow/internal/itemstore"
	"github.com/kexin94yyds/RI-Flow/internal/mcpserver"
	"github.com/kexin94yyds/RI-Flow/internal/metadata"
	"github.com/kexin94yyds/RI-Flow/internal/sse"
	"github.com/kexin94yyds/RI-Flow/internal/storage"
)

// App holds the wired components shared by the server, the MCP server and
// the one-shot CLI commands.
type App struct {
	Config   *Config
	Logger   *slog.Logger
	Service  *itemservice.Service
	Provider storage.Provider

	logCloser io.Closer
}

// Close releases the storage backend and the log file.
func (a *App) Close() error {
	err := a.Provider.Close()
	return errors.Join(err, a.logCloser.Close())
}

// Open builds an App from the options: logger, storage backend (probed
// once), item store and service. extra options are applied to the service.
func Open(ctx context.Context, opts []Option, extra ...itemservice.Option) (*App, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger, logCloser := newLogger(cfg.App, app.logOutput)
	slog.SetDefault(logger)

	provider, err := storage.Open(ctx, cfg.Storage.Options(), logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", provider.Name()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := itemstore.New(provider, logger)
	fetcher := metadata.NewFetcher(cfg.Metadata.Timeout, cfg.Metadata.UserAgent, logger)
	dc := desktop.NewClient(cfg.Desktop.Port, cfg.Desktop.Timeout, logger)

	svcOpts := []itemservice.Option{
		itemservice.WithLogger(logger),
		itemservice.WithFetcher(fetcher),
		itemservice.WithDesktop(dc, cfg.Desktop.Hosts),
	}
	svcOpts = append(svcOpts, extra...)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Service:   itemservice.New(store, svcOpts...),
		Provider:  provider,
		logCloser: logCloser,
	}, nil
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	a, err := Open(ctx, opts, itemservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.Config, a.Logger

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           api.NewRootRouter(a.Service, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// External edits of the data directory only exist for the file backend.
	if fs, ok := a.Provider.(*storage.FS); ok {
		g.Go(func() error {
			if err := storage.Watch(gCtx, fs, 300*time.Millisecond, logger, a.Service.NotifyExternalChange); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append(opts, WithLogOutput(os.Stderr))
	a, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Logger.Info("MCP server starting on stdio")
	return mcpserver.New(a.Service).ServeStdio()
}
