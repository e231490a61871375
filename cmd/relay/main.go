package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yatin-commits/crypto-relay/internal/cache"
	"github.com/yatin-commits/crypto-relay/internal/config"
	"github.com/yatin-commits/crypto-relay/internal/feed"
	"github.com/yatin-commits/crypto-relay/internal/model"
	"github.com/yatin-commits/crypto-relay/internal/registry"
	"github.com/yatin-commits/crypto-relay/internal/relay"
	"github.com/yatin-commits/crypto-relay/internal/server"
	"github.com/yatin-commits/crypto-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"upstream_url", cfg.Upstream.URL,
		"addr", cfg.Server.Addr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Shared relay state
	reg := registry.New()
	prices := cache.New()

	// Upstream feed
	upstream := feed.New(feed.Config{
		URL:            cfg.Upstream.URL,
		ReconnectDelay: cfg.Upstream.ReconnectDelay,
		WriteTimeout:   cfg.Upstream.WriteTimeout,
		PingInterval:   cfg.Upstream.PingInterval,
		PingTimeout:    cfg.Upstream.PingTimeout,
		BufferSize:     cfg.Upstream.BufferSize,
	}, logger.With("component", "feed"))

	// Supervisor
	supervisor := relay.NewSupervisor(
		relay.Config{EventBufferSize: cfg.Relay.EventBufferSize},
		reg,
		prices,
		upstream,
		upstream.Ticks(),
		logger.With("component", "relay"),
	)

	// A reconnect subscribes the active set as it stands at reconnect time.
	upstream.SetActiveSource(supervisor.ActiveSymbols)

	if err := supervisor.Start(ctx); err != nil {
		logger.Error("failed to start supervisor", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		supervisor.Stop(shutdownCtx)
	}()

	if err := upstream.Start(ctx); err != nil {
		logger.Error("failed to start upstream feed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		upstream.Stop(shutdownCtx)
	}()

	// Downstream transport + HTTP surface
	wsHandler := server.NewHandler(server.Config{
		WriteTimeout:   cfg.Server.WriteTimeout,
		PongTimeout:    cfg.Server.PongTimeout,
		PingInterval:   cfg.Server.PingInterval,
		SendBufferSize: cfg.Server.SendBufferSize,
		ReadLimit:      cfg.Server.ReadLimit,
	}, supervisor, logger.With("component", "server"))

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.HandleFunc("/healthz", healthHandler(upstream, supervisor))
	mux.HandleFunc("/api/prices", pricesHandler(prices))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("relay running", "instance_id", cfg.Instance.ID)

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("relay stopped")
}

// healthHandler reports feed and supervisor state.
func healthHandler(upstream *feed.Feed, supervisor *relay.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feedStats := upstream.Stats()
		relayStats := supervisor.Stats()

		status := "healthy"
		if feedStats.State != feed.StateConnected {
			// Clients are still served from the cache while reconnecting.
			status = "degraded"
		}

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status: status,
			Components: map[string]any{
				"upstream_feed": map[string]any{
					"state":              string(feedStats.State),
					"subscribed_symbols": feedStats.SubscribedSymbols,
					"ticks_parsed":       feedStats.TicksParsed,
					"frames_discarded":   feedStats.FramesDiscarded,
					"reconnects":         feedStats.Reconnects,
				},
				"relay": map[string]any{
					"clients":        relayStats.Clients,
					"active_symbols": relayStats.ActiveSymbols,
					"cached_symbols": relayStats.CachedSymbols,
					"pushes_sent":    relayStats.PushesSent,
					"pushes_dropped": relayStats.PushesDropped,
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}
}

// pricesHandler serves the latest cached prices over plain HTTP, e.g.
// GET /api/prices?symbols=BTC,ETH
func pricesHandler(prices *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("symbols")
		if raw == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "symbols query parameter is required",
			})
			return
		}

		var symbols []string
		for _, part := range strings.Split(raw, ",") {
			if sym := model.NormalizeSymbol(part); sym != "" {
				symbols = append(symbols, sym)
			}
		}

		snaps := prices.GetMany(symbols)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.NewPushMessage(time.Now(), snaps...))
	}
}
