// Entry point for the consync agent: a headless sync engine that watches the
// OrderNow backend the way the restaurant console does — live order polling,
// offline substitution, busy/degraded signals — and exposes the inspect
// surface for operators.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ordernow/consync/config"
	"github.com/ordernow/consync/console"
	"github.com/ordernow/consync/dbopen"
	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/inspect"
	"github.com/ordernow/consync/metrics"
	"github.com/ordernow/consync/notify"
	"github.com/ordernow/consync/offline"
	"github.com/ordernow/consync/signals"
	"github.com/ordernow/consync/viewcache"
)

func main() {
	configPath := flag.String("config", env("CONSYNC_CONFIG", ""), "path to YAML configuration")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var lvl slog.Level
	switch env("LOG_LEVEL", cfg.LogLevel) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics DB (optional).
	var recorder *metrics.Manager
	if cfg.Metrics.Path != "" {
		db, err := dbopen.Open(cfg.Metrics.Path, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("metrics db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := metrics.Init(db); err != nil {
			slog.Error("metrics init", "error", err)
			os.Exit(1)
		}
		recorder = metrics.NewManager(db, cfg.Metrics.BufferSize, cfg.Metrics.FlushInterval.Std())
		defer recorder.Close()
	}

	hub := signals.NewHub(signals.WithLogger(logger))
	center := notify.NewCenter(notify.WithLogger(logger))

	var store *offline.Store
	if !cfg.Offline.Disabled {
		s, err := offline.Fixtures()
		if err != nil {
			slog.Error("offline fixtures", "error", err)
			os.Exit(1)
		}
		store = s
	}

	gwOpts := []gateway.Option{
		gateway.WithHub(hub),
		gateway.WithNotifier(center),
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Backend.Timeout.Std()),
	}
	if store != nil {
		gwOpts = append(gwOpts, gateway.WithOfflineStore(store))
	}
	if recorder != nil {
		gwOpts = append(gwOpts, gateway.WithRecorder(recorder))
	}
	gw, err := gateway.New(cfg.Backend.Origin, gwOpts...)
	if err != nil {
		slog.Error("gateway", "error", err, "origin", cfg.Backend.Origin)
		os.Exit(1)
	}
	defer gw.Close()

	cacheOpts := []viewcache.Option{viewcache.WithLogger(logger)}
	if recorder != nil {
		cacheOpts = append(cacheOpts, viewcache.WithRecorder(recorder))
	}
	cache := viewcache.New(cacheOpts...)

	cons := console.New(gw, cache, cfg.Backend.OwnerID,
		console.WithOrdersPollInterval(cfg.Orders.PollInterval.Std()))

	// Log busy/degraded transitions and surfaced notifications.
	events, unsubEvents := hub.Subscribe()
	defer unsubEvents()
	toasts, unsubToasts := center.Subscribe()
	defer unsubToasts()
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Kind {
				case signals.KindDegradedEntered:
					slog.Warn("degraded mode entered", "path", ev.Reason)
				case signals.KindBusyChanged:
					slog.Debug("busy counter", "busy", ev.Busy)
				}
			case n, ok := <-toasts:
				if !ok {
					return
				}
				slog.Info("notification", "level", n.Level, "message", n.Message)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watch the New orders tab; this is the subscription that polls.
	sub := cons.Orders.Subscribe(console.TabNew)
	defer sub.Close()
	go func() {
		for snap := range sub.Updates() {
			switch snap.Status {
			case viewcache.StatusSuccess:
				orders, err := console.DecodeOrders(snap)
				if err != nil {
					slog.Warn("decode orders", "error", err)
					continue
				}
				slog.Info("new orders", "count", len(orders), "stale", snap.Stale)
			case viewcache.StatusError:
				slog.Warn("order watch", "error", snap.Err)
			}
		}
	}()

	// Inspect surface (optional).
	if cfg.Inspect.Addr != "" {
		srv := &http.Server{
			Addr: cfg.Inspect.Addr,
			Handler: inspect.New(inspect.Config{
				Hub:    hub,
				Center: center,
				Cache:  cache,
				Store:  store,
				Logger: logger,
			}).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("inspect listening", "addr", cfg.Inspect.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("inspect server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("consync started",
		"origin", cfg.Backend.Origin,
		"poll_interval", cfg.Orders.PollInterval.Std(),
		"offline", store != nil)

	<-ctx.Done()
	slog.Info("shutting down")
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
