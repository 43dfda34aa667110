// The shard binary serves a storage node's local CRUD API and registers
// itself with the coordinator on startup.
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

	"shardkv/internal/config"
	"shardkv/internal/shard"
	"shardkv/internal/storage"
)

const (
	shutdownTimeout = 5 * time.Second
	registerTimeout = 5 * time.Second
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "shard"))

	cfg, err := config.LoadShard(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger = logger.With(slog.String("shard", cfg.Name))

	gin.SetMode(gin.ReleaseMode)

	store := storage.NewStore()
	srv := shard.NewServer(cfg.Name, store, logger)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}

	go func() {
		logger.Info("shard listening", slog.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Announce ourselves once the listener goroutine is up. Registration
	// failure is fatal: an unregistered shard receives no traffic.
	registerCtx, cancelRegister := context.WithTimeout(context.Background(), registerTimeout)
	err = shard.Register(registerCtx, &http.Client{Timeout: registerTimeout},
		cfg.CoordinatorURL, cfg.Name, cfg.AdvertiseURL, logger)
	cancelRegister()
	if err != nil {
		logger.Error("registration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

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
