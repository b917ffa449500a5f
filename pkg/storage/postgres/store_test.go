package postgres_test

import (
	"sync"
	"testing"

	"tradestore/pkg/storage/postgres"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// captureRelay records every relayed change event.
type captureRelay struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Table string
	Data  map[string]any
}

func (r *captureRelay) Notify(table string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, capturedEvent{Table: table, Data: data})
}

func (r *captureRelay) Events() []capturedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]capturedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// openTestStore opens a migrated in-memory store. relay may be nil.
func openTestStore(t *testing.T, relay postgres.Notifier) *postgres.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	// a second pool connection would see a different :memory: database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get raw DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := postgres.NewStore(db, zap.NewNop(), relay)
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}
