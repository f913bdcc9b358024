package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/auth"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/backend"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/buffer"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/config"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/hub"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/metrics"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/presence"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/relay"
	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/riverflowd.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting riverflowd",
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
		"addr", cfg.Server.Addr,
		"backend_url", cfg.Backend.BaseURL,
		"redis_enabled", cfg.Redis.Enabled,
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

	// Probe the durable queue store. A failed probe is not fatal: the
	// pipeline runs on the in-memory path instead.
	var (
		redisClient *redis.Client
		durable     *buffer.RedisQueue
	)
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)

		probeCtx, probeCancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
		err = redisClient.Ping(probeCtx).Err()
		probeCancel()
		if err != nil {
			logger.Warn("durable queue store unreachable, buffering in memory", "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("durable queue store connected")
			durable = buffer.NewRedisQueue(redisClient, buffer.DefaultQueueKey, cfg.Buffer.MaxBufferSize, cfg.Redis.Timeout)
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Document backend client
	docs := backend.NewClient(
		cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger),
	)

	// WebSocket hub
	hubCfg := hub.DefaultConfig()
	hubCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	h := hub.New(hubCfg, auth.NewVerifier(cfg.Auth.SigningSecret), logger)

	// Buffered broadcast pipeline
	pipe := buffer.New(buffer.Config{
		FlushInterval:    cfg.Buffer.FlushInterval,
		MaxBufferSize:    cfg.Buffer.MaxBufferSize,
		MaxChunkSize:     cfg.Buffer.MaxChunkSize,
		FailureThreshold: cfg.Redis.FailureThreshold,
	}, h, durable, logger)

	// Relay coordinator
	registry := presence.NewRegistry()
	coordinator := relay.New(relay.DefaultConfig(), h, docs, pipe, registry, logger)
	h.SetHandler(coordinator)

	if err := pipe.Start(ctx); err != nil {
		logger.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	// WebSocket listener
	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", h)
	wsServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: wsMux,
	}
	go func() {
		logger.Info("starting websocket server", "addr", cfg.Server.Addr)
		if err := wsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("websocket server error", "error", err)
			cancel()
		}
	}()

	// Metrics and health endpoints
	obsMux := http.NewServeMux()
	obsMux.Handle(cfg.Metrics.Path, metrics.Handler())
	obsMux.Handle("/health", createHealthHandler(h, pipe, coordinator, redisClient))
	obsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: obsMux,
	}
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := obsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("riverflowd running",
		"ws_url", fmt.Sprintf("ws://localhost%s/ws", cfg.Server.Addr),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Flush buffered traffic while clients are still connected, then
	// close the sockets and the listeners.
	if err := pipe.Stop(shutdownCtx); err != nil {
		logger.Warn("pipeline stop", "error", err)
	}
	h.Close()
	wsServer.Shutdown(shutdownCtx)
	obsServer.Shutdown(shutdownCtx)

	logger.Info("riverflowd stopped")
}

// createHealthHandler reports component status: queue backend mode,
// durable store reachability, and live connection counts.
func createHealthHandler(h *hub.Hub, pipe *buffer.Pipeline, coordinator *relay.Coordinator, redisClient *redis.Client) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		bufStats := pipe.Stats()
		health.Components["buffer"] = map[string]interface{}{
			"mode":        bufStats.Mode,
			"queue_depth": bufStats.QueueLen,
			"flushed":     bufStats.Flushed,
			"fallbacks":   bufStats.Fallbacks,
		}

		if redisClient == nil {
			health.Components["redis"] = "disabled"
		} else if err := redisClient.Ping(ctx).Err(); err != nil {
			// The in-memory path keeps the relay serving, so a lost
			// durable store degrades rather than fails the process.
			health.Status = "degraded"
			health.Components["redis"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["redis"] = "connected"
		}

		hubStats := h.Stats()
		health.Components["hub"] = map[string]interface{}{
			"connections": hubStats.Connections,
			"rooms":       hubStats.Rooms,
			"send_drops":  hubStats.SendDrops,
		}

		relayStats := coordinator.Stats()
		health.Components["relay"] = map[string]interface{}{
			"sessions": relayStats.Sessions,
			"gestures": relayStats.Gestures,
			"audits":   relayStats.Audits,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
