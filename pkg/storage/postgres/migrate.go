package postgres

import (
	"fmt"

	"go.uber.org/zap"
)

// Migrate creates or updates the schema for every entity. The ratio_diff
// backfill runs first so that stores created before the column existed get
// it through the explicit path; its failure is logged but does not abort
// initialization, since AutoMigrate adds the column anyway.
func (s *Store) Migrate() error {
	s.backfillScoutRatioDiff()

	err := s.DB.AutoMigrate(
		&Coin{},
		&Pair{},
		&CurrentCoin{},
		&CoinValue{},
		&ScoutRecord{},
		&Trade{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// backfillScoutRatioDiff adds the ratio_diff column to a pre-existing
// scout_history table that lacks it. Fresh stores have no table yet and are
// handled by AutoMigrate. The check is explicit column metadata, not a
// swallowed ALTER TABLE failure, so genuine migration errors still surface
// in the log.
func (s *Store) backfillScoutRatioDiff() {
	migrator := s.DB.Migrator()
	if !migrator.HasTable(&ScoutRecord{}) || migrator.HasColumn(&ScoutRecord{}, "ratio_diff") {
		return
	}
	if err := migrator.AddColumn(&ScoutRecord{}, "RatioDiff"); err != nil {
		s.logger.Warn("scout_history ratio_diff backfill failed", zap.Error(err))
	}
}
