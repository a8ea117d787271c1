package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/poruru210/sankey-copier-sub002/pkg/config"
	"github.com/poruru210/sankey-copier-sub002/pkg/dashboard"
	"github.com/poruru210/sankey-copier-sub002/pkg/health"
	"github.com/poruru210/sankey-copier-sub002/pkg/layout"
	"github.com/poruru210/sankey-copier-sub002/pkg/linkstore"
	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/registry"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)

	logger.Info("copier dashboard starting",
		"relay", cfg.Relay.BaseURL,
		"poll_interval", cfg.PollInterval(),
	)

	client := relay.NewClient(cfg.Relay.BaseURL, cfg.RelayTimeout(), logger)
	bus := pubsub.NewBus()
	defer bus.Shutdown()

	store := linkstore.New(client, bus, logger, linkstore.Options{
		DebounceWindow: cfg.DebounceWindow(),
	})
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial authoritative load. The push stream keeps it reconciled
	// from here on; resync events trigger a refetch inside the store.
	if err := store.Refetch(); err != nil {
		logger.Error("initial settings fetch failed", "error", err)
		os.Exit(1)
	}
	logger.Info("settings loaded", "links", store.Count())

	push := relay.NewPushStream(cfg.Relay.PushURL, store.ApplyEvent, logger)
	if err := push.Connect(); err != nil {
		// Degraded but workable: polling still refreshes liveness and a
		// later resync can recover settings.
		logger.Warn("push channel unavailable", "error", err)
	}

	reg := registry.New(client, bus, logger, registry.Options{
		PollInterval:        cfg.PollInterval(),
		HeartbeatStaleAfter: cfg.HeartbeatStaleAfter(),
	})

	engine := dashboard.New(store, reg, bus, logger, dashboard.Options{
		TouchCapable:  cfg.Dashboard.TouchCapable,
		RelayoutDelay: cfg.RelayoutDelay(),
		Layout:        layout.Config{Width: cfg.Dashboard.CanvasWidth},
		Push:          push,
	})

	checker := health.NewChecker()
	checker.Register("relay", health.RelayCheck(func(ctx context.Context) error {
		_, err := client.GetConnections(ctx)
		return err
	}))
	checker.Register("push_stream", health.PushStreamCheck(push.IsActive))
	checker.Register("poll_freshness", health.PollFreshnessCheck(reg.LastSync, 3*cfg.PollInterval()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.DefaultRegistry().Handler())
	mux.HandleFunc("/health", checker.HTTPHandler())
	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}

	go func() {
		logger.Info("metrics and health listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	go engine.Run(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	engine.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	logger.Info("copier dashboard stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "pretty" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
