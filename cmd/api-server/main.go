package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recommendr/internal/config"
	"recommendr/internal/logger"
	httpapi "recommendr/internal/microservices/http-api"
	"recommendr/internal/recommend"
	"recommendr/internal/store"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup structured logging
	logger := logger.New(os.Stdout, cfg.LogLevel, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewRedisStore(ctx, store.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisDialTimeout,
	})
	if err != nil {
		logger.Error("redis_connect_failed", "redis_addr", cfg.RedisAddr(), "error", err)
		os.Exit(1)
	}
	defer st.Close()

	engine := recommend.NewEngine(st, recommend.EngineConfig{RecommendLimit: cfg.RecommendLimit}, logger)

	opts, err := httpapi.RouterOptionsFromConfig(cfg)
	if err != nil {
		logger.Error("invalid_router_options", "error", err)
		os.Exit(1)
	}
	router := httpapi.NewRouter(engine, opts, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("starting_api_server",
		"http_addr", addr,
		"redis_addr", cfg.RedisAddr(),
		"env", cfg.GoEnv,
	)

	if err := httpapi.Serve(ctx, addr, router, 10*time.Second, logger); err != nil {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}
	logger.Info("server_stopped_gracefully")
}
