// Package main is the entry point for the goalcheck development backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goalcheck/goalcheck/config"
	"github.com/goalcheck/goalcheck/internal/devserver"
	"github.com/goalcheck/goalcheck/internal/enrich"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/graphqlapi"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/queue"
	"github.com/goalcheck/goalcheck/internal/redisx"
	"github.com/goalcheck/goalcheck/internal/store"
)

const (
	version         = "0.3.0"
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logutil.New(os.Stderr, logutil.ParseLevel(cfg.LogLevel)).With(logutil.Fields{"service": "devserver"})
	logutil.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("devserver_bootstrap", logutil.Fields{
		"version":         version,
		"port":            cfg.ServerPort,
		"datastoreDriver": cfg.DataStoreDriver,
		"redisAddr":       cfg.RedisAddr,
	})

	stateStore, err := store.Open(cfg.DataStoreDSN, cfg.DataStoreDriver)
	if err != nil {
		log.Fatalf("devserver: failed to open datastore: %v", err)
	}
	defer stateStore.Close()

	redisClient, err := redisx.NewClient(redisx.FromConfig(cfg))
	if err != nil {
		log.Fatalf("devserver: failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	eventBus := events.NewBus(events.Options{
		Client:  redisClient,
		Logger:  logger,
		Channel: cfg.EventsChannel,
	})
	defer eventBus.Close()

	gen := generator.New()
	var source enrich.Source = enrich.NewInline(gen, cfg.StreamDelay)
	if redisClient != nil {
		producer := queue.NewProducer(redisClient, cfg.RedisJobStream)
		source = enrich.NewQueued(producer, eventBus, cfg.EnrichTimeout, logger)
		logger.Info("enrichment_queued", logutil.Fields{"stream": cfg.RedisJobStream})
	}

	gqlHandler, err := graphqlapi.NewHandler(graphqlapi.Config{Store: stateStore})
	if err != nil {
		log.Fatalf("devserver: failed to build graphql schema: %v", err)
	}

	server := devserver.NewServer(devserver.Options{
		Store:          stateStore,
		Generator:      gen,
		Enricher:       source,
		Bus:            eventBus,
		Logger:         logger,
		GraphQLHandler: gqlHandler,
		AccessTTL:      cfg.AccessTokenTTL,
		RefreshTTL:     cfg.RefreshTokenTTL,
		InitialCredits: cfg.InitialCredits,
		StreamDelay:    cfg.StreamDelay,
	})
	srv := server.Start(":" + cfg.ServerPort)
	logger.Info("devserver_listening", logutil.Fields{"addr": srv.Addr})

	<-ctx.Done()
	logger.Info("devserver_shutdown", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("devserver_forced_shutdown", err, nil)
	}
}
