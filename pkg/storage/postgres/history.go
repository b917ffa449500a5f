package postgres

import (
	"context"

	"gorm.io/gorm"
)

// ValueHistory returns stored value samples ordered by time, optionally
// filtered to one coin (empty symbol returns everything).
func (s *Store) ValueHistory(ctx context.Context, symbol string) ([]CoinValue, error) {
	var values []CoinValue
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		q := tx.Order("datetime")
		if symbol != "" {
			q = q.Where("coin_symbol = ?", symbol)
		}
		return q.Find(&values).Error
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ScoutHistory returns the logged scout evaluations for one pair, oldest
// first.
func (s *Store) ScoutHistory(ctx context.Context, pairID uint) ([]ScoutRecord, error) {
	var records []ScoutRecord
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Where("pair_id = ?", pairID).Order("datetime").Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
