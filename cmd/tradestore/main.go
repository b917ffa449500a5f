package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradestore/config"
	"tradestore/internal/jobs"
	"tradestore/internal/matrix"
	"tradestore/logger"
	"tradestore/pkg/gateway"
	"tradestore/pkg/notify"
	"tradestore/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// real-time relay
	relay := gateway.New(cfg.Gateway, log)
	defer relay.Close()

	// outbound notifications, disabled unless a webhook is configured
	var sender notify.Sender
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}
	notifier := notify.NewDispatcher(sender, log)
	defer notifier.Close()

	// store
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true, log, relay)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// reconcile the tracked coin set and rebuild the ratio matrix
	if err := store.SetCoins(ctx, cfg.Trading.Symbols); err != nil {
		log.Fatal("failed to set coins", zap.Error(err))
	}
	pairs, err := store.EnabledPairs(ctx)
	if err != nil {
		log.Fatal("failed to load pairs", zap.Error(err))
	}
	ratios, err := matrix.NewManager(pairs)
	if err != nil {
		log.Fatal("failed to build ratio matrix", zap.Error(err))
	}
	log.Info("ratio matrix ready",
		zap.Int("coins", len(ratios.Symbols())), zap.Int("pairs", len(pairs)))
	notifier.Enqueue(fmt.Sprintf("tradestore started: tracking %d coins, %d pairs",
		len(ratios.Symbols()), len(pairs)))

	// periodic batch jobs
	runner := jobs.NewRunner(log)
	if err := jobs.RegisterStoreJobs(runner, cfg.Jobs, cfg.Trading, store, ratios); err != nil {
		log.Fatal("failed to register jobs", zap.Error(err))
	}
	runner.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	runner.Stop()
}
