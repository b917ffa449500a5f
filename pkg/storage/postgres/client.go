package postgres

import (
	"context"
	"fmt"

	"tradestore/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Snapshotter is implemented by every persisted entity; the relay payload is
// the flat column map it returns.
type Snapshotter interface {
	TableName() string
	Snapshot() map[string]any
}

// Notifier pushes a change event for one entity to an external observer.
// Delivery is best-effort; implementations must not return errors to callers.
type Notifier interface {
	Notify(table string, data map[string]any)
}

// Store wraps the relational store and carries the relay used to announce
// durable changes.
type Store struct {
	DB     *gorm.DB
	logger *zap.Logger
	relay  Notifier
}

// NewStore wires an open gorm handle into a Store. relay may be nil, in
// which case change events are not announced.
func NewStore(db *gorm.DB, logger *zap.Logger, relay Notifier) *Store {
	return &Store{DB: db, logger: logger, relay: relay}
}

// Open connects to the store configured by cfg, choosing the driver from
// cfg.Driver ("sqlite" or "postgres").
func Open(cfg config.PostgresConfig, env string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if cfg.Driver == "sqlite" {
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN(env)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return db, nil
}

// InitializeAndMigrate connects to the store, optionally creates the
// database first (postgres only), and runs the schema migrations.
func InitializeAndMigrate(cfg config.PostgresConfig, env string, createDB bool, logger *zap.Logger, relay Notifier) (*Store, error) {
	if createDB && cfg.Driver != "sqlite" {
		if err := CreateDatabase(cfg); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	db, err := Open(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	store := NewStore(db, logger, relay)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) IsHealthy(ctx context.Context) bool {
	db, err := s.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (s *Store) Close() error {
	db, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}

// notify relays m's snapshot to the observer after a successful commit.
// It must never be called from inside a transaction.
func (s *Store) notify(m Snapshotter) {
	if s.relay == nil {
		return
	}
	s.relay.Notify(m.TableName(), m.Snapshot())
}
