package database

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// AwardPoints appends a signed entry to the user's loyalty ledger. A negative
// amount that would take the balance below zero is refused with
// ErrInsufficientPoints and nothing is written.
func (db *DB) AwardPoints(ctx context.Context, userID string, amount int64, reason string, metadata map[string]any) error {
	if amount == 0 {
		return nil
	}

	var meta []byte
	if len(metadata) > 0 {
		var err error
		meta, err = jsoniter.ConfigFastest.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode loyalty metadata: %w", err)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if amount < 0 {
		var balance int64
		if err := tx.GetContext(ctx, &balance,
			`SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to read loyalty balance: %w", err)
		}
		if balance+amount < 0 {
			return ErrInsufficientPoints
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO loyalty_ledger (user_id, points, reason, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, amount, reason, nullableString(meta), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write loyalty entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit loyalty entry: %w", err)
	}
	return nil
}

func (db *DB) GetPointsBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := db.GetContext(ctx, &balance,
		`SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read loyalty balance: %w", err)
	}
	return balance, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
