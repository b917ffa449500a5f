package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ScoutEntry is one ratio-comparison evaluation handed in by the scouting
// loop; the insert timestamp is assigned here, once per batch.
type ScoutEntry struct {
	PairID           uint
	RatioDiff        float64
	TargetRatio      float64
	CurrentCoinPrice float64
	OtherCoinPrice   float64
}

// BatchInsertCoinValues writes a sampler batch as one multi-row insert.
func (s *Store) BatchInsertCoinValues(ctx context.Context, batch []CoinValue) error {
	if len(batch) == 0 {
		return nil
	}
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		return fmt.Errorf("batch insert coin values: %w", err)
	}
	return nil
}

// BatchLogScouts appends a batch of scout evaluations, all stamped with the
// same insert time.
func (s *Store) BatchLogScouts(ctx context.Context, entries []ScoutEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	records := make([]ScoutRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, ScoutRecord{
			PairID:           e.PairID,
			RatioDiff:        e.RatioDiff,
			TargetRatio:      e.TargetRatio,
			CurrentCoinPrice: e.CurrentCoinPrice,
			OtherCoinPrice:   e.OtherCoinPrice,
			Datetime:         now,
		})
	}
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("batch log scouts: %w", err)
	}
	return nil
}
