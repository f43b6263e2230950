package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/proofengine/internal/api"
	"github.com/gyaneshwarpardhi/proofengine/internal/history"
	"github.com/gyaneshwarpardhi/proofengine/internal/logging"
)

var serveFlags struct {
	addr    string
	archive string
	watch   bool
	rate    float64
	burst   int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compliance API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", ":8080", "HTTP listen address")
	f.StringVar(&serveFlags.archive, "archive", "", "Directory for the result archive (disabled when empty)")
	f.BoolVar(&serveFlags.watch, "watch", true, "Hot-reload the catalog when the file changes")
	f.Float64Var(&serveFlags.rate, "rate", 0, "Max requests per second (0 = unlimited)")
	f.IntVar(&serveFlags.burst, "burst", 20, "Burst size for --rate")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.New("server")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeQuietly(a, "evidence store")
	logger.Info("catalog loaded", "path", a.loader.Path(), "queries", a.engine.Catalog().Len())

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// api.New subscribes the engine to the loader, so file changes and
	// POST /v1/catalog/reload share one validate, build and swap path.
	if serveFlags.watch {
		stopWatch, err := a.loader.Watch()
		if err != nil {
			logger.Warn("catalog watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── Result archive ────────────────────────────────────────────────────────
	opts := []api.Option{
		api.WithLogger(logging.New("api")),
		api.WithRateLimit(serveFlags.rate, serveFlags.burst),
	}
	if serveFlags.archive != "" {
		arc, err := history.Open(history.Config{Path: serveFlags.archive, Logger: logging.New("archive")})
		if err != nil {
			return err
		}
		defer closeQuietly(arc, "result archive")
		opts = append(opts, api.WithArchive(arc))
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         serveFlags.addr,
		Handler:      api.New(a.engine, a.loader, opts...),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second, // summaries may run up to the summary timeout
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errC := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", serveFlags.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("shutdown incomplete", "err", err)
	}
	logger.Info("goodbye")
	return nil
}
