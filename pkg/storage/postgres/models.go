package postgres

import "time"

// Interval is the time-bucket resolution a stored value sample represents.
type Interval string

const (
	IntervalRaw    Interval = "raw"
	IntervalHourly Interval = "hourly"
	IntervalDaily  Interval = "daily"
	IntervalWeekly Interval = "weekly"
)

// TradeState is the lifecycle state of a trade record. Transitions are
// strictly forward: INITIAL -> ORDERED -> COMPLETE.
type TradeState string

const (
	TradeStateInitial  TradeState = "INITIAL"
	TradeStateOrdered  TradeState = "ORDERED"
	TradeStateComplete TradeState = "COMPLETE"
)

// Coin is a tracked tradable symbol. Coins are never deleted, only disabled,
// so historical rows keep a valid reference.
type Coin struct {
	Symbol  string `gorm:"primaryKey;type:varchar(16)"`
	Enabled bool   `gorm:"not null"`
}

func (Coin) TableName() string {
	return "coins"
}

func (c *Coin) Snapshot() map[string]any {
	return map[string]any{
		"symbol":  c.Symbol,
		"enabled": c.Enabled,
	}
}

// Pair is an ordered (from, to) relation between two coins. Exactly one row
// exists per ordered pair of distinct enabled coins; the row id is the stable
// identity the in-memory ratio matrix maps its cells to.
type Pair struct {
	ID             uint    `gorm:"primaryKey"`
	FromCoinSymbol string  `gorm:"type:varchar(16);not null;uniqueIndex:idx_pair_from_to"`
	ToCoinSymbol   string  `gorm:"type:varchar(16);not null;uniqueIndex:idx_pair_from_to"`
	Enabled        bool    `gorm:"not null"`
	Ratio          float64 `gorm:"not null"`
}

func (Pair) TableName() string {
	return "pairs"
}

func (p *Pair) Snapshot() map[string]any {
	return map[string]any{
		"id":        p.ID,
		"from_coin": p.FromCoinSymbol,
		"to_coin":   p.ToCoinSymbol,
		"enabled":   p.Enabled,
		"ratio":     p.Ratio,
	}
}

// CurrentCoin is an append-only pointer to the coin currently held. The
// current coin is the most recent row by datetime.
type CurrentCoin struct {
	ID         uint      `gorm:"primaryKey"`
	CoinSymbol string    `gorm:"type:varchar(16);not null"`
	Datetime   time.Time `gorm:"not null;index:idx_current_coin_datetime"`
}

func (CurrentCoin) TableName() string {
	return "current_coin_history"
}

func (c *CurrentCoin) Snapshot() map[string]any {
	return map[string]any{
		"id":       c.ID,
		"coin":     c.CoinSymbol,
		"datetime": c.Datetime,
	}
}

// CoinValue is one timestamped observation of a coin's balance and prices.
// Rows start out raw and are reclassified / pruned by the retention engine.
type CoinValue struct {
	ID         uint      `gorm:"primaryKey"`
	CoinSymbol string    `gorm:"type:varchar(16);not null;index:idx_coin_value_coin"`
	Balance    float64   `gorm:"not null"`
	UsdPrice   float64   `gorm:"not null"`
	BtcPrice   float64   `gorm:"not null"`
	Interval   Interval  `gorm:"type:varchar(10);not null;index:idx_coin_value_interval"`
	Datetime   time.Time `gorm:"not null;index:idx_coin_value_datetime"`
}

func (CoinValue) TableName() string {
	return "coin_value"
}

func (v *CoinValue) Snapshot() map[string]any {
	return map[string]any{
		"id":        v.ID,
		"coin":      v.CoinSymbol,
		"balance":   v.Balance,
		"usd_price": v.UsdPrice,
		"btc_price": v.BtcPrice,
		"interval":  string(v.Interval),
		"datetime":  v.Datetime,
	}
}

// ScoutRecord logs one ratio-comparison evaluation against a pair.
type ScoutRecord struct {
	ID               uint      `gorm:"primaryKey"`
	PairID           uint      `gorm:"not null;index:idx_scout_pair"`
	RatioDiff        float64   `gorm:"not null;default:0"`
	TargetRatio      float64   `gorm:"not null"`
	CurrentCoinPrice float64   `gorm:"not null"`
	OtherCoinPrice   float64   `gorm:"not null"`
	Datetime         time.Time `gorm:"not null;index:idx_scout_datetime"`
}

func (ScoutRecord) TableName() string {
	return "scout_history"
}

func (s *ScoutRecord) Snapshot() map[string]any {
	return map[string]any{
		"id":                 s.ID,
		"pair_id":            s.PairID,
		"ratio_diff":         s.RatioDiff,
		"target_ratio":       s.TargetRatio,
		"current_coin_price": s.CurrentCoinPrice,
		"other_coin_price":   s.OtherCoinPrice,
		"datetime":           s.Datetime,
	}
}

// Trade is one executed trade attempt. Balance fields stay nil until the
// corresponding lifecycle transition records them.
type Trade struct {
	ID             uint       `gorm:"primaryKey"`
	FromCoinSymbol string     `gorm:"type:varchar(16);not null"`
	ToCoinSymbol   string     `gorm:"type:varchar(16);not null"`
	Selling        bool       `gorm:"not null"`
	State          TradeState `gorm:"type:varchar(10);not null"`

	AltStartingBalance    *float64
	AltTradeAmount        *float64
	CryptoStartingBalance *float64
	CryptoTradeAmount     *float64

	Datetime time.Time `gorm:"not null;index:idx_trade_datetime"`
}

func (Trade) TableName() string {
	return "trade_history"
}

func (t *Trade) Snapshot() map[string]any {
	return map[string]any{
		"id":                      t.ID,
		"from_coin":               t.FromCoinSymbol,
		"to_coin":                 t.ToCoinSymbol,
		"selling":                 t.Selling,
		"state":                   string(t.State),
		"alt_starting_balance":    floatOrNil(t.AltStartingBalance),
		"alt_trade_amount":        floatOrNil(t.AltTradeAmount),
		"crypto_starting_balance": floatOrNil(t.CryptoStartingBalance),
		"crypto_trade_amount":     floatOrNil(t.CryptoTradeAmount),
		"datetime":                t.Datetime,
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
