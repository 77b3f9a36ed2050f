// synctest connects to the CRM realtime endpoint and streams parsed events
// to console, exercising the full client stack: storage, cache, router,
// connection manager, and notification bridge.
// Usage: go run ./cmd/synctest --config configs/client.example.yaml
//
// Optional environment variables:
//
//	CRM_AUTH_TOKEN - auth token to store before connecting
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pipedesk/clientsync/internal/api"
	"github.com/pipedesk/clientsync/internal/cache"
	"github.com/pipedesk/clientsync/internal/config"
	"github.com/pipedesk/clientsync/internal/connection"
	"github.com/pipedesk/clientsync/internal/notify"
	"github.com/pipedesk/clientsync/internal/router"
	"github.com/pipedesk/clientsync/internal/storage"
	"github.com/pipedesk/clientsync/internal/version"
	"github.com/pipedesk/clientsync/internal/wire"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Open local storage; it is also the token source for both transports.
	store, err := storage.Open(cfg.Storage.Dir, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if tok := os.Getenv("CRM_AUTH_TOKEN"); tok != "" {
		if err := store.SetToken(tok); err != nil {
			logger.Error("failed to store auth token", "error", err)
			os.Exit(1)
		}
		logger.Info("stored auth token from environment")
	}

	// Create REST API client
	apiClient := api.NewClient(cfg.API.BaseURL, store,
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithLogger(logger),
	)

	// Create Connection Manager
	connCfg := connection.DefaultManagerConfig()
	connCfg.URL = cfg.Realtime.URL
	connCfg.TokenParam = cfg.Realtime.TokenParam
	connCfg.ReconnectBaseDelay = cfg.Realtime.ReconnectBaseDelay
	connCfg.ReconnectMaxDelay = cfg.Realtime.ReconnectMaxDelay
	connCfg.MaxReconnectAttempts = cfg.Realtime.MaxReconnectAttempts
	connCfg.PingInterval = cfg.Realtime.PingInterval
	connCfg.PingTimeout = cfg.Realtime.ReadTimeout

	connMgr := connection.NewManager(connCfg, store, logger)

	// Create Router fed by the Connection Manager
	rtr := router.New(connMgr, logger)
	connMgr.OnEnvelope(rtr.Dispatch)
	connMgr.OnStateChange(func(s connection.State) {
		logger.Info("connection state changed", "state", s)
	})

	// Create cache and bind server push invalidation
	cacheStore := cache.New(cache.Config{
		DefaultStaleTime: cfg.Cache.StaleTime,
	}, store, logger)
	unbind := cacheStore.BindRouter(rtr, cache.DefaultRules())
	defer unbind()

	// Start background refresher
	refresher := cache.NewRefresher(cache.RefresherConfig{
		Interval:    cfg.Cache.RefreshInterval,
		Concurrency: cfg.Cache.RefreshConcurrency,
		Timeout:     cfg.Cache.RefreshTimeout,
	}, cacheStore, logger)
	if err := refresher.Start(ctx); err != nil {
		logger.Error("failed to start refresher", "error", err)
		os.Exit(1)
	}

	// Bridge user-facing events to console alerts
	var bridge *notify.Bridge
	if cfg.Notifications.Enabled {
		bridge = notify.NewBridge(notify.SinkFunc(func(a notify.Alert) {
			fmt.Printf("[ALERT] %s: %s\n", a.Title, a.Body)
		}), cfg.Notifications.RecentLimit, logger)
		bridge.Bind(rtr)
	}

	// Console printer for every inbound event
	unsubAll := rtr.Subscribe(router.ChannelAll, func(env wire.Envelope) {
		if *verbose {
			data, _ := json.MarshalIndent(env, "", "  ")
			fmt.Printf("[EVENT] %s\n", data)
		} else {
			fmt.Printf("[EVENT] type=%s at=%s\n", env.Type, env.Timestamp.Format(time.RFC3339))
		}
	})
	defer unsubAll()

	// Warm the cache with a contacts query so push invalidation and the
	// refresher have something to work on.
	go func() {
		res, err := cacheStore.Query(ctx, "contact:list", func(ctx context.Context) (any, error) {
			return apiClient.ListContacts(ctx, api.ContactFilter{})
		}, 0)
		if err != nil {
			logger.Warn("initial contacts query failed", "error", err)
			return
		}
		logger.Info("contacts cached", "stale", res.Stale, "fetched_at", res.FetchedAt)
	}()

	logger.Info("connecting to realtime endpoint", "url", cfg.Realtime.URL)
	connMgr.Connect()

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("stats",
					"conn_state", connMgr.State(),
					"reconnect_attempts", connMgr.Attempts(),
					"cache_entries", cacheStore.Len(),
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	if bridge != nil {
		bridge.Close()
	}
	if err := refresher.Stop(shutdownCtx); err != nil {
		logger.Warn("refresher stop timed out", "error", err)
	}
	connMgr.Disconnect()

	logger.Info("shutdown complete")
}
