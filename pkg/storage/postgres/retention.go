package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PruneValueHistory runs one idempotent retention pass over coin_value.
//
// Reclassification first: over a snapshot of all samples, the latest sample
// per (coin, hour-of-day), (coin, year+day-of-year) and (coin, ISO year-week)
// bucket is relabelled hourly, daily and weekly in that order, so a row
// representing several buckets keeps the coarsest tag. Bucketing over all
// samples, not just raw ones, is what makes repeated passes converge: the
// representatives are the same rows every time.
//
// Pruning second, against wall-clock now: raw older than 1 day, hourly older
// than 1 month, daily older than 1 year. Weekly rows are kept indefinitely.
func (s *Store) PruneValueHistory(ctx context.Context, now time.Time) error {
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		var samples []CoinValue
		if err := tx.Find(&samples).Error; err != nil {
			return err
		}

		steps := []struct {
			interval Interval
			ids      []uint
		}{
			{IntervalHourly, latestPerBucket(samples, hourBucket)},
			{IntervalDaily, latestPerBucket(samples, dayBucket)},
			{IntervalWeekly, latestPerBucket(samples, weekBucket)},
		}
		for _, step := range steps {
			if len(step.ids) == 0 {
				continue
			}
			if err := tx.Model(&CoinValue{}).Where("id IN ?", step.ids).
				Update("interval", step.interval).Error; err != nil {
				return err
			}
		}

		windows := []struct {
			interval Interval
			cutoff   time.Time
		}{
			{IntervalRaw, now.AddDate(0, 0, -1)},
			{IntervalHourly, now.AddDate(0, -1, 0)},
			{IntervalDaily, now.AddDate(-1, 0, 0)},
		}
		for _, w := range windows {
			if err := tx.Where("interval = ? AND datetime < ?", w.interval, w.cutoff).
				Delete(&CoinValue{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune value history: %w", err)
	}
	return nil
}

// PruneScoutRecords deletes scout evaluations older than retention.
func (s *Store) PruneScoutRecords(ctx context.Context, now time.Time, retention time.Duration) error {
	cutoff := now.Add(-retention)
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Where("datetime < ?", cutoff).Delete(&ScoutRecord{}).Error
	})
	if err != nil {
		return fmt.Errorf("prune scout history: %w", err)
	}
	return nil
}

// latestPerBucket picks, per (coin, bucket) group, the id of the sample with
// the greatest datetime.
func latestPerBucket(samples []CoinValue, bucket func(time.Time) string) []uint {
	type best struct {
		id uint
		at time.Time
	}
	latest := make(map[string]best)
	for _, sample := range samples {
		key := sample.CoinSymbol + "|" + bucket(sample.Datetime)
		if cur, ok := latest[key]; !ok || sample.Datetime.After(cur.at) {
			latest[key] = best{id: sample.ID, at: sample.Datetime}
		}
	}
	ids := make([]uint, 0, len(latest))
	for _, b := range latest {
		ids = append(ids, b.id)
	}
	return ids
}

// hourBucket keys by hour of day (00-23), matching the reporting layer's
// bucketing, not by date+hour.
func hourBucket(t time.Time) string {
	return t.Format("15")
}

func dayBucket(t time.Time) string {
	return fmt.Sprintf("%04d-%03d", t.Year(), t.YearDay())
}

// weekBucket follows ISO-8601 week numbering.
func weekBucket(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}
