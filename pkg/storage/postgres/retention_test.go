package postgres_test

import (
	"context"
	"testing"
	"time"

	"tradestore/pkg/storage/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(symbol string, interval postgres.Interval, at time.Time) postgres.CoinValue {
	return postgres.CoinValue{
		CoinSymbol: symbol,
		Balance:    1.5,
		UsdPrice:   100,
		BtcPrice:   0.01,
		Interval:   interval,
		Datetime:   at,
	}
}

func valueByID(t *testing.T, store *postgres.Store, id uint) (*postgres.CoinValue, bool) {
	t.Helper()
	values, err := store.ValueHistory(context.Background(), "")
	require.NoError(t, err)
	for i := range values {
		if values[i].ID == id {
			return &values[i], true
		}
	}
	return nil, false
}

func TestReclassificationTagsLatestPerHourBucket(t *testing.T) {
	store := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"BTC"}))

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	hour := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	// three raw samples inside one hour, plus a later one that takes the
	// day/week representative role
	batch := []postgres.CoinValue{
		sampleAt("BTC", postgres.IntervalRaw, hour.Add(5*time.Minute)),
		sampleAt("BTC", postgres.IntervalRaw, hour.Add(20*time.Minute)),
		sampleAt("BTC", postgres.IntervalRaw, hour.Add(40*time.Minute)),
		sampleAt("BTC", postgres.IntervalRaw, hour.Add(70*time.Minute)),
	}
	require.NoError(t, store.BatchInsertCoinValues(ctx, batch))

	require.NoError(t, store.PruneValueHistory(ctx, now))

	values, err := store.ValueHistory(ctx, "BTC")
	require.NoError(t, err)
	require.Len(t, values, 4)

	byInterval := make(map[postgres.Interval]int)
	for _, v := range values {
		byInterval[v.Interval]++
	}

	// exactly one hourly representative for the 10:00 bucket; the two older
	// samples of that hour stay raw and thus prunable on schedule
	assert.Equal(t, 2, byInterval[postgres.IntervalRaw])
	assert.Equal(t, 1, byInterval[postgres.IntervalHourly])
	// the latest sample overall represents day and week; coarsest tag wins
	assert.Equal(t, 1, byInterval[postgres.IntervalWeekly])

	hourly, ok := valueByID(t, store, batch[2].ID)
	require.True(t, ok)
	assert.Equal(t, postgres.IntervalHourly, hourly.Interval,
		"the most recent sample of the hour bucket becomes hourly")
}

func TestReclassificationIsPerCoin(t *testing.T) {
	store := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"BTC", "ETH"}))

	at := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	batch := []postgres.CoinValue{
		sampleAt("BTC", postgres.IntervalRaw, at),
		sampleAt("ETH", postgres.IntervalRaw, at.Add(time.Minute)),
	}
	require.NoError(t, store.BatchInsertCoinValues(ctx, batch))
	require.NoError(t, store.PruneValueHistory(ctx, at.Add(time.Hour)))

	// both coins get their own representatives, none shadows the other
	for _, symbol := range []string{"BTC", "ETH"} {
		values, err := store.ValueHistory(ctx, symbol)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.Equal(t, postgres.IntervalWeekly, values[0].Interval)
	}
}

func TestRetentionWindows(t *testing.T) {
	store := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"BTC"}))

	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

	// Every pruning candidate is shadowed in its buckets by a later sample,
	// so reclassification does not silently promote it out of its window.
	staleRaw := sampleAt("BTC", postgres.IntervalRaw, time.Date(2026, 9, 1, 10, 5, 0, 0, time.UTC))
	freshRaw := sampleAt("BTC", postgres.IntervalRaw, time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC))
	// staleHourly loses its day and week buckets to julyRep; nothing newer
	// shares hour-of-day 08, so it keeps its hourly tag
	staleHourly := sampleAt("BTC", postgres.IntervalHourly, time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC))
	julyRep := sampleAt("BTC", postgres.IntervalRaw, time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC))
	// staleDaily loses hour-of-day 12 and its week to sep2024Rep
	staleDaily := sampleAt("BTC", postgres.IntervalDaily, time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC))
	sep2024Rep := sampleAt("BTC", postgres.IntervalRaw, time.Date(2024, 9, 3, 12, 30, 0, 0, time.UTC))
	oldWeekly := sampleAt("BTC", postgres.IntervalWeekly, time.Date(2021, 9, 2, 6, 0, 0, 0, time.UTC))
	current := sampleAt("BTC", postgres.IntervalRaw, time.Date(2026, 9, 2, 11, 30, 0, 0, time.UTC))

	batch := []postgres.CoinValue{
		staleRaw, freshRaw, staleHourly, julyRep, staleDaily, sep2024Rep, oldWeekly, current,
	}
	require.NoError(t, store.BatchInsertCoinValues(ctx, batch))

	require.NoError(t, store.PruneValueHistory(ctx, now))

	_, ok := valueByID(t, store, batch[0].ID)
	assert.False(t, ok, "raw sample older than 1 day must be pruned")

	promoted, ok := valueByID(t, store, batch[1].ID)
	require.True(t, ok, "bucket representatives survive the raw window")
	assert.Equal(t, postgres.IntervalDaily, promoted.Interval)

	_, ok = valueByID(t, store, batch[2].ID)
	assert.False(t, ok, "hourly sample older than 1 month must be pruned")

	_, ok = valueByID(t, store, batch[4].ID)
	assert.False(t, ok, "daily sample older than 1 year must be pruned")

	kept, ok := valueByID(t, store, batch[6].ID)
	require.True(t, ok, "weekly samples are retained indefinitely")
	assert.Equal(t, postgres.IntervalWeekly, kept.Interval)

	weekRep, ok := valueByID(t, store, batch[5].ID)
	require.True(t, ok)
	assert.Equal(t, postgres.IntervalWeekly, weekRep.Interval,
		"each week's latest sample is promoted to the indefinite tier")
}

func TestRetentionPassIsIdempotent(t *testing.T) {
	store := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"BTC"}))

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	batch := []postgres.CoinValue{
		sampleAt("BTC", postgres.IntervalRaw, now.Add(-10*time.Minute)),
		sampleAt("BTC", postgres.IntervalRaw, now.Add(-5*time.Minute)),
	}
	require.NoError(t, store.BatchInsertCoinValues(ctx, batch))

	require.NoError(t, store.PruneValueHistory(ctx, now))
	first, err := store.ValueHistory(ctx, "BTC")
	require.NoError(t, err)

	require.NoError(t, store.PruneValueHistory(ctx, now))
	second, err := store.ValueHistory(ctx, "BTC")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPruneScoutRecords(t *testing.T) {
	store := openTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"BTC", "ETH"}))

	pair, err := store.GetPair(ctx, "BTC", "ETH")
	require.NoError(t, err)

	entries := []postgres.ScoutEntry{
		{PairID: pair.ID, RatioDiff: 0.01, TargetRatio: 14.0, CurrentCoinPrice: 61000, OtherCoinPrice: 4300},
		{PairID: pair.ID, RatioDiff: -0.02, TargetRatio: 14.1, CurrentCoinPrice: 61050, OtherCoinPrice: 4310},
	}
	require.NoError(t, store.BatchLogScouts(ctx, entries))

	// nothing older than an hour yet
	require.NoError(t, store.PruneScoutRecords(ctx, time.Now(), time.Hour))
	records, err := store.ScoutHistory(ctx, pair.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// pruning against a future clock removes everything
	require.NoError(t, store.PruneScoutRecords(ctx, time.Now().Add(2*time.Hour), time.Hour))
	records, err = store.ScoutHistory(ctx, pair.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
