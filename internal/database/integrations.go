package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cancelsaga/internal/models"
)

func (db *DB) GetPartnerIntegration(ctx context.Context, partnerID int64, provider string) (*models.PartnerIntegration, error) {
	var in models.PartnerIntegration
	err := db.GetContext(ctx, &in, `SELECT partner_id, provider, access_token, calendar_id, updated_at
        FROM partner_integrations WHERE partner_id = ? AND provider = ?`, partnerID, provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("failed to get partner integration: %w", err)
	}
	if in.AccessToken == "" {
		return nil, ErrIntegrationNotFound
	}
	return &in, nil
}

func (db *DB) UpsertPartnerIntegration(ctx context.Context, in *models.PartnerIntegration) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `INSERT INTO partner_integrations (partner_id, provider, access_token, calendar_id, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(partner_id, provider) DO UPDATE SET
            access_token = excluded.access_token,
            calendar_id = excluded.calendar_id,
            updated_at = excluded.updated_at`,
		in.PartnerID, in.Provider, in.AccessToken, in.CalendarID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert partner integration: %w", err)
	}
	in.UpdatedAt = now
	return nil
}
