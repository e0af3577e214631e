package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/obsidianstack/relayd/internal/admin"
	"github.com/obsidianstack/relayd/internal/config"
	"github.com/obsidianstack/relayd/internal/diag"
	"github.com/obsidianstack/relayd/internal/engine"
	"github.com/obsidianstack/relayd/internal/spool"
	"github.com/obsidianstack/relayd/internal/transport"
	"github.com/obsidianstack/relayd/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("relayd starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"endpoint", cfg.Relay.Endpoint,
		"spool_dir", cfg.Relay.SpoolDir,
		"flush_interval", cfg.Relay.FlushInterval,
		"max_attempts", cfg.Relay.Retry.MaxAttempts,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := spool.Open(cfg.Relay.SpoolDir)
	if err != nil {
		slog.Error("failed to open spool", "dir", cfg.Relay.SpoolDir, "err", err)
		os.Exit(1)
	}

	tr, err := transport.NewCloudEvents(cfg.Relay)
	if err != nil {
		slog.Error("failed to build transport", "err", err)
		os.Exit(1)
	}

	// Diagnostics fan out to structured logs, delivery counters and the
	// live WebSocket event stream.
	counters := diag.NewCounters()
	hub := ws.New()
	go hub.Run(ctx)

	eng := engine.New(store, tr,
		engine.NewRetryPolicy(cfg.Relay.Retry),
		engine.Multi{diag.NewLogger(), counters, hub},
	)
	go eng.Run(ctx)

	// Flush interval is hot-swappable; reads go through an atomic so the
	// periodic loop below picks up reloads without a restart.
	var flushInterval atomic.Int64
	flushInterval.Store(int64(cfg.Relay.FlushInterval))

	// Config hot reload: retry policy and flush interval only.
	go func() {
		err := config.Watch(ctx, *configPath, cfg, func(updated *config.Config) {
			eng.SetRetryPolicy(engine.NewRetryPolicy(updated.Relay.Retry))
			flushInterval.Store(int64(updated.Relay.FlushInterval))
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// A new bundle handed off by the collector triggers a flush right away.
	go func() {
		if err := spool.Watch(ctx, store.Dir(), eng.TriggerFlush); err != nil {
			slog.Error("spool watcher stopped", "err", err)
		}
	}()

	// Admin surface: health, metrics, event stream.
	var adminSrv *http.Server
	if cfg.Admin.HTTPPort >= 0 {
		adm := admin.New(store, eng, counters, hub, cfg.Relay.Endpoint)
		mux := http.NewServeMux()
		mux.Handle("/api/", adm)
		mux.Handle("/metrics", adm)
		mux.Handle("/ws/events", hub)

		adminSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Admin.HTTPPort),
			Handler: mux,
		}
		go func() {
			slog.Info("admin server listening", "port", cfg.Admin.HTTPPort)
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("admin server stopped", "err", err)
			}
		}()
	}

	// Drain whatever survived the last run, then keep flushing on the
	// configured interval. Spool and operator triggers arrive in between.
	eng.TriggerFlush()
	go func() {
		for {
			timer := time.NewTimer(time.Duration(flushInterval.Load()))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				eng.TriggerFlush()
			}
		}
	}()

	<-ctx.Done()
	slog.Info("relayd shutting down")

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("admin server shutdown", "err", err)
		}
	}
}
