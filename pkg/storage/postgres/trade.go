package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidTransition reports an attempt to move a trade out of order, e.g.
// completing a trade that was never ordered. This is a programming-contract
// violation, not a condition to recover from.
var ErrInvalidTransition = errors.New("invalid trade state transition")

// TradeLog tracks one trade through INITIAL -> ORDERED -> COMPLETE. It holds
// only the trade's stable id; every transition reloads the row inside its
// own transactional unit, so the log may outlive any session.
type TradeLog struct {
	store   *Store
	tradeID uint
}

// StartTradeLog creates the trade in INITIAL state, announces it, and
// returns the log used to advance it.
func (s *Store) StartTradeLog(ctx context.Context, fromSymbol, toSymbol string, selling bool) (*TradeLog, error) {
	trade := Trade{
		FromCoinSymbol: fromSymbol,
		ToCoinSymbol:   toSymbol,
		Selling:        selling,
		State:          TradeStateInitial,
		Datetime:       time.Now(),
	}
	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(&trade).Error
	})
	if err != nil {
		return nil, fmt.Errorf("start trade log: %w", err)
	}

	s.notify(&trade)
	return &TradeLog{store: s, tradeID: trade.ID}, nil
}

// TradeID returns the stable identity of the tracked trade.
func (l *TradeLog) TradeID() uint {
	return l.tradeID
}

// SetOrdered records the starting balances and the ordered amount. Only a
// trade in INITIAL state may be ordered.
func (l *TradeLog) SetOrdered(ctx context.Context, altStartingBalance, cryptoStartingBalance, altTradeAmount float64) error {
	var trade Trade
	err := l.store.WithSession(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&trade, l.tradeID).Error; err != nil {
			return err
		}
		if trade.State != TradeStateInitial {
			return fmt.Errorf("%w: trade %d is %s, want %s",
				ErrInvalidTransition, trade.ID, trade.State, TradeStateInitial)
		}
		trade.AltStartingBalance = &altStartingBalance
		trade.CryptoStartingBalance = &cryptoStartingBalance
		trade.AltTradeAmount = &altTradeAmount
		trade.State = TradeStateOrdered
		return tx.Save(&trade).Error
	})
	if err != nil {
		return err
	}

	l.store.notify(&trade)
	return nil
}

// SetComplete records the final traded amount and moves the trade to its
// terminal state. Only a trade in ORDERED state may be completed.
func (l *TradeLog) SetComplete(ctx context.Context, cryptoTradeAmount float64) error {
	var trade Trade
	err := l.store.WithSession(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&trade, l.tradeID).Error; err != nil {
			return err
		}
		if trade.State != TradeStateOrdered {
			return fmt.Errorf("%w: trade %d is %s, want %s",
				ErrInvalidTransition, trade.ID, trade.State, TradeStateOrdered)
		}
		trade.CryptoTradeAmount = &cryptoTradeAmount
		trade.State = TradeStateComplete
		return tx.Save(&trade).Error
	})
	if err != nil {
		return err
	}

	l.store.notify(&trade)
	return nil
}
