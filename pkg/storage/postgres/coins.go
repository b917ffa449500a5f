package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SetCoins reconciles the tracked coin set with symbols. Coins missing from
// symbols are disabled (never deleted, so history keeps valid references);
// listed symbols are enabled, created when absent. A Pair row is then lazily
// created for every ordered pair of distinct enabled coins that does not
// have one yet, and pair enabledness is reconciled to follow both coins: a
// pair touching a disabled coin is disabled, a pair between two enabled
// coins is re-enabled. Pairs are never deleted, so their identities stay
// stable across runs.
func (s *Store) SetCoins(ctx context.Context, symbols []string) error {
	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		wanted[symbol] = true
	}

	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		var coins []Coin
		if err := tx.Find(&coins).Error; err != nil {
			return err
		}

		existing := make(map[string]bool, len(coins))
		for _, coin := range coins {
			existing[coin.Symbol] = true
			if !wanted[coin.Symbol] && coin.Enabled {
				if err := tx.Model(&Coin{}).Where("symbol = ?", coin.Symbol).
					Update("enabled", false).Error; err != nil {
					return err
				}
			}
		}

		for _, symbol := range symbols {
			if !existing[symbol] {
				if err := tx.Create(&Coin{Symbol: symbol, Enabled: true}).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&Coin{}).Where("symbol = ?", symbol).
				Update("enabled", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set coins: %w", err)
	}

	err = s.WithSession(ctx, func(tx *gorm.DB) error {
		var enabled []Coin
		if err := tx.Where("enabled = ?", true).Order("symbol").Find(&enabled).Error; err != nil {
			return err
		}

		if len(enabled) == 0 {
			return tx.Model(&Pair{}).Where("enabled = ?", true).
				Update("enabled", false).Error
		}

		enabledSymbols := make([]string, 0, len(enabled))
		for _, coin := range enabled {
			enabledSymbols = append(enabledSymbols, coin.Symbol)
		}

		for _, from := range enabled {
			for _, to := range enabled {
				if from.Symbol == to.Symbol {
					continue
				}
				var count int64
				if err := tx.Model(&Pair{}).
					Where("from_coin_symbol = ? AND to_coin_symbol = ?", from.Symbol, to.Symbol).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					pair := Pair{
						FromCoinSymbol: from.Symbol,
						ToCoinSymbol:   to.Symbol,
						Enabled:        true,
					}
					if err := tx.Create(&pair).Error; err != nil {
						return err
					}
				}
			}
		}

		// a pair is enabled exactly when both its coins are
		if err := tx.Model(&Pair{}).
			Where("enabled = ?", true).
			Where("from_coin_symbol NOT IN ? OR to_coin_symbol NOT IN ?",
				enabledSymbols, enabledSymbols).
			Update("enabled", false).Error; err != nil {
			return err
		}
		return tx.Model(&Pair{}).
			Where("enabled = ?", false).
			Where("from_coin_symbol IN ? AND to_coin_symbol IN ?",
				enabledSymbols, enabledSymbols).
			Update("enabled", true).Error
	})
	if err != nil {
		return fmt.Errorf("create pairs: %w", err)
	}

	return nil
}

// GetCoins returns tracked coins, optionally filtered to enabled ones.
func (s *Store) GetCoins(ctx context.Context, onlyEnabled bool) ([]Coin, error) {
	var coins []Coin
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		q := tx.Order("symbol")
		if onlyEnabled {
			q = q.Where("enabled = ?", true)
		}
		return q.Find(&coins).Error
	})
	if err != nil {
		return nil, err
	}
	return coins, nil
}

func (s *Store) GetCoin(ctx context.Context, symbol string) (*Coin, error) {
	var coin Coin
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.First(&coin, "symbol = ?", symbol).Error
	})
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// SetCurrentCoin appends a pointer row marking symbol as the coin currently
// held, then announces the change to the relay.
func (s *Store) SetCurrentCoin(ctx context.Context, symbol string) error {
	current := CurrentCoin{CoinSymbol: symbol, Datetime: time.Now()}
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&Coin{}, "symbol = ?", symbol).Error; err != nil {
			return fmt.Errorf("unknown coin %q: %w", symbol, err)
		}
		return tx.Create(&current).Error
	})
	if err != nil {
		return err
	}
	s.notify(&current)
	return nil
}

// GetCurrentCoin returns the coin currently held, or nil when no switch has
// been recorded yet.
func (s *Store) GetCurrentCoin(ctx context.Context) (*Coin, error) {
	var coin *Coin
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		var current CurrentCoin
		result := tx.Order("datetime DESC").Limit(1).Find(&current)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		var c Coin
		if err := tx.First(&c, "symbol = ?", current.CoinSymbol).Error; err != nil {
			return err
		}
		coin = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coin, nil
}

func (s *Store) GetPair(ctx context.Context, fromSymbol, toSymbol string) (*Pair, error) {
	var pair Pair
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.First(&pair,
			"from_coin_symbol = ? AND to_coin_symbol = ?", fromSymbol, toSymbol).Error
	})
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// EnabledPairs returns every enabled pair ordered by identity; the in-memory
// ratio matrix rebuilds its index-to-identity mapping from this.
func (s *Store) EnabledPairs(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Where("enabled = ?", true).Order("id").Find(&pairs).Error
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
