package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"salestrack/app"
	"salestrack/types/config"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := buildConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("wiring container", zap.Error(err))
	}
	defer container.Close()

	if err := container.Runner.Start(ctx); err != nil {
		logger.Fatal("starting queue runner", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- container.RouteHandler.Serve()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("dashboard server stopped", zap.Error(err))
	}
	container.Runner.Stop()
}

func buildConfig() (*config.Config, error) {
	instance := envOr("TRACKER_INSTANCE", "salestrack")

	opts := []config.Option{
		config.WithEndpoint(
			envOr("TRACKER_COLLECTION", "goals"),
			splitList(envOr("TRACKER_BASE_PATHS", "/api"))...,
		),
	}

	if url := os.Getenv("TRACKER_POSTGRES_URL"); url != "" {
		opts = append(opts, config.WithPostgresConfig(config.PostgresConfig{ConnectionUrl: url}))
	}
	if addr := os.Getenv("TRACKER_REDIS_ADDR"); addr != "" {
		opts = append(opts, config.WithRedisConfig(config.RedisConfig{
			Address:  addr,
			Password: os.Getenv("TRACKER_REDIS_PASSWORD"),
		}))
	}
	if url := os.Getenv("TRACKER_RABBITMQ_URL"); url != "" {
		opts = append(opts, config.WithRabbitMQBus(config.RabbitMQConfig{URL: url}))
	}

	return config.NewConfig(instance, opts...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
