package database

import (
	"context"
	"fmt"
	"time"

	"cancelsaga/internal/models"
)

func (db *DB) CreateReconciliationEntry(ctx context.Context, entry *models.ReconciliationEntry) error {
	if entry.Status == "" {
		entry.Status = models.ReconcilePending
	}
	if entry.Payload == "" {
		entry.Payload = "{}"
	}
	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO reconciliation_queue (booking_id, effect, payload, status, last_error, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`,
		entry.BookingID,
		entry.Effect,
		entry.Payload,
		entry.Status,
		entry.LastError,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

func (db *DB) GetPendingReconciliation(ctx context.Context, limit int) ([]models.ReconciliationEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	var entries []models.ReconciliationEntry
	err := db.SelectContext(ctx, &entries, `SELECT id, booking_id, effect, payload, status, last_error, created_at, resolved_at
              FROM reconciliation_queue
              WHERE status = ?
              ORDER BY created_at ASC, id ASC LIMIT ?`, models.ReconcilePending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reconciliation entries: %w", err)
	}
	return entries, nil
}

func (db *DB) ResolveReconciliationEntry(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE reconciliation_queue SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		models.ReconcileResolved, time.Now(), id, models.ReconcilePending)
	if err != nil {
		return fmt.Errorf("failed to resolve reconciliation entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}
