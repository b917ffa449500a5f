package postgres_test

import (
	"testing"

	"tradestore/pkg/storage/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openBareDB opens an in-memory database without running migrations.
func openBareDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get raw DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func TestMigrateBackfillsScoutRatioDiff(t *testing.T) {
	db := openBareDB(t)

	// scout_history as it looked before ratio_diff was recorded
	require.NoError(t, db.Exec(`CREATE TABLE scout_history (
		id integer PRIMARY KEY AUTOINCREMENT,
		pair_id integer NOT NULL,
		target_ratio real NOT NULL,
		current_coin_price real NOT NULL,
		other_coin_price real NOT NULL,
		datetime datetime NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO scout_history
		(pair_id, target_ratio, current_coin_price, other_coin_price, datetime)
		VALUES (1, 1.5, 100.0, 50.0, CURRENT_TIMESTAMP)`).Error)

	store := postgres.NewStore(db, zap.NewNop(), nil)
	require.NoError(t, store.Migrate())

	assert.True(t, db.Migrator().HasColumn(&postgres.ScoutRecord{}, "ratio_diff"))

	// the pre-existing row survives with a zero-valued diff
	var records []postgres.ScoutRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].RatioDiff)

	// running migrations again is a no-op
	require.NoError(t, store.Migrate())
}

func TestMigrateFreshDatabase(t *testing.T) {
	db := openBareDB(t)

	store := postgres.NewStore(db, zap.NewNop(), nil)
	require.NoError(t, store.Migrate())

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable(&postgres.ScoutRecord{}))
	assert.True(t, migrator.HasColumn(&postgres.ScoutRecord{}, "ratio_diff"))
}
