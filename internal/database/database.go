package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // goqu sqlite3 dialect
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")
	ErrVariantNotFound     = errors.New("variant not found or not capacity-limited")
	ErrInsufficientPoints  = errors.New("insufficient loyalty balance")
	ErrIntegrationNotFound = errors.New("partner integration not found")
	ErrEntryNotFound       = errors.New("reconciliation entry not found")
)

const dialectSQLite = "sqlite3"

// DB is the sqlite-backed booking store.
type DB struct {
	*sqlx.DB
	dialect goqu.DialectWrapper
	logger  *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite допускает одного писателя; к тому же :memory: живет в рамках соединения
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	db := &DB{DB: sqlDB, dialect: goqu.Dialect(dialectSQLite), logger: logger}
	if err := db.createTables(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS partners (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            contact_email TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS partner_integrations (
            partner_id INTEGER NOT NULL,
            provider TEXT NOT NULL,
            access_token TEXT NOT NULL,
            calendar_id TEXT,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (partner_id, provider)
        )`,
		`CREATE TABLE IF NOT EXISTS offers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            cancellation_policy TEXT NOT NULL DEFAULT 'moderate',
            booking_type TEXT NOT NULL DEFAULT 'event',
            event_start_at DATETIME,
            partner_id INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS offer_variants (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            offer_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            capacity_limited BOOLEAN NOT NULL DEFAULT 0,
            stock INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            offer_id INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            scheduled_at DATETIME,
            booking_date DATETIME NOT NULL,
            variant_id INTEGER,
            payment_ref TEXT NOT NULL DEFAULT '',
            source TEXT NOT NULL DEFAULT 'direct',
            external_event_ref TEXT,
            amount TEXT NOT NULL DEFAULT '0',
            currency TEXT NOT NULL DEFAULT '',
            cancellation_reason TEXT,
            cancelled_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS loyalty_ledger (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            points INTEGER NOT NULL,
            reason TEXT NOT NULL,
            metadata TEXT,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reconciliation_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            effect TEXT NOT NULL,
            payload TEXT NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'pending',
            last_error TEXT,
            created_at DATETIME NOT NULL,
            resolved_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_partner_id ON offers(partner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_loyalty_ledger_user_id ON loyalty_ledger(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_status ON reconciliation_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// execBuilt runs a goqu dataset and returns the affected row count.
func (db *DB) execBuilt(ctx context.Context, ds interface {
	ToSQL() (string, []interface{}, error)
}) (int64, int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build query: %w", err)
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	lastID, _ := res.LastInsertId()
	return affected, lastID, nil
}
