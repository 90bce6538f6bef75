// Package app wires the serve mode together: configuration, logger, board
// registry, keycode resolver, orchestrator, and the HTTP server, plus
// graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"keyforge/internal/board"
	"keyforge/internal/config"
	"keyforge/internal/ctxlog"
	"keyforge/internal/joblog"
	"keyforge/internal/keycode"
	"keyforge/internal/orchestrator"
	"keyforge/internal/server"
)

// App encapsulates the serve mode's dependencies and lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	orch   *orchestrator.Orchestrator
	srv    *http.Server
}

// New builds a fully wired application from validated configuration.
func New(cfg *config.Config, outW io.Writer) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	boards, err := board.LoadRegistry(ctx, cfg.BoardsDir)
	if err != nil {
		return nil, fmt.Errorf("loading boards: %w", err)
	}
	logger.Info("Boards loaded.", "count", len(boards.List()))

	resolver, err := keycode.NewBuiltinResolver()
	if err != nil {
		return nil, fmt.Errorf("loading keycode database: %w", err)
	}

	logs, err := joblog.Open(cfg.LogsDir)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(orchestrator.Config{
		ToolchainPath: cfg.ToolchainPath,
		OutputRoot:    cfg.OutputDir,
	}, boards, resolver, logs)

	api := server.New(orch, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ListenPort),
		Handler: api.Handler(),
	}

	return &App{cfg: cfg, logger: logger, orch: orch, srv: srv}, nil
}

// Run starts the job worker and the HTTP server and blocks until the context
// is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	go a.orch.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting.", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("Shutting down HTTP server.")
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
