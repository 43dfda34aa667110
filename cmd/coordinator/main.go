// The coordinator binary serves the routing API: table and shard
// registration plus consistently-hashed CRUD forwarding.
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

	"github.com/gin-gonic/gin"

	"shardkv/internal/catalog"
	"shardkv/internal/config"
	"shardkv/internal/coordinator"
	"shardkv/internal/metrics"
	"shardkv/internal/registry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "coordinator"))

	cfg, err := config.LoadCoordinator(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)

	cat := catalog.New()
	reg := registry.New(cfg.VirtualNodes)
	m := metrics.New()
	client := coordinator.NewShardClient(cfg.ShardTimeout)
	co := coordinator.New(cat, reg, client, logger)
	srv := coordinator.NewServer(co, cat, reg, m, logger)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}

	go func() {
		logger.Info("coordinator listening",
			slog.String("addr", cfg.ListenAddr),
			slog.Int("virtual_nodes", cfg.VirtualNodes),
			slog.Duration("shard_timeout", cfg.ShardTimeout),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
}
