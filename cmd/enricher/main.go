// Package main runs the enrichment worker: it consumes jobs from the Redis
// stream and publishes results on the event bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goalcheck/goalcheck/config"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/queue"
	"github.com/goalcheck/goalcheck/internal/redisx"
	"github.com/goalcheck/goalcheck/internal/worker"
)

const workerVersion = "0.3.0"

func main() {
	cfg := config.Load()
	logger := logutil.New(os.Stderr, logutil.ParseLevel(cfg.LogLevel)).With(logutil.Fields{"service": "enricher"})
	logutil.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("worker_bootstrap", logutil.Fields{
		"version":        workerVersion,
		"redisAddr":      cfg.RedisAddr,
		"redisJobStream": cfg.RedisJobStream,
		"redisJobGroup":  cfg.RedisJobGroup,
	})

	redisClient, err := redisx.NewClient(redisx.FromConfig(cfg))
	if err != nil {
		log.Fatalf("enricher: failed to connect to redis: %v", err)
	}
	if redisClient == nil {
		log.Fatal("enricher: REDIS_ADDR is required")
	}
	defer redisClient.Close()

	eventBus := events.NewBus(events.Options{
		Client:  redisClient,
		Logger:  logger,
		Channel: cfg.EventsChannel,
	})
	defer eventBus.Close()

	consumerName := cfg.WorkerName
	if consumerName == "" {
		host, _ := os.Hostname()
		consumerName = fmt.Sprintf("%s-%d", host, time.Now().UnixNano())
	}

	runner := worker.New(worker.Options{
		Jobs:      queue.NewConsumer(redisClient, cfg.RedisJobStream, cfg.RedisJobGroup, consumerName),
		Events:    eventBus,
		Generator: generator.New(),
		Logger:    logger,
	})

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_stopped", err, nil)
		os.Exit(1)
	}
	logger.Info("worker_exited", nil)
}
