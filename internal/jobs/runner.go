// Package jobs drives the periodic batch operations of the store: ratio
// matrix sync, value-history retention, and scout-record pruning.
package jobs

import (
	"context"
	"time"

	"tradestore/config"
	"tradestore/internal/matrix"
	"tradestore/pkg/storage/postgres"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

// Runner wraps the cron scheduler with logging around each job run.
type Runner struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		cron:   cron.New(),
		logger: logger,
	}
}

// Add registers fn under the given cron schedule. Failures are logged, never
// fatal; the next tick retries.
func (r *Runner) Add(schedule, name string, fn func(ctx context.Context) error) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		r.logger.Debug("job completed", zap.String("job", name))
	})
	if err != nil {
		return err
	}
	r.logger.Info("job registered",
		zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

// RegisterStoreJobs wires the store's periodic batch operations into the
// runner with the configured schedules.
func RegisterStoreJobs(r *Runner, cfg config.JobsConfig, trading config.TradingConfig,
	store *postgres.Store, ratios *matrix.Manager) error {

	if err := r.Add(cfg.RatioSync, "ratio-sync", func(ctx context.Context) error {
		return store.CommitRatios(ctx, ratios)
	}); err != nil {
		return err
	}

	if err := r.Add(cfg.ValueRetention, "value-retention", func(ctx context.Context) error {
		return store.PruneValueHistory(ctx, time.Now())
	}); err != nil {
		return err
	}

	scoutRetention := time.Duration(trading.ScoutRetentionHours) * time.Hour
	return r.Add(cfg.ScoutRetention, "scout-retention", func(ctx context.Context) error {
		return store.PruneScoutRecords(ctx, time.Now(), scoutRetention)
	})
}
