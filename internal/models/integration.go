package models

import (
	"database/sql"
	"time"
)

// PartnerIntegration is a partner's credential for an external system.
type PartnerIntegration struct {
	PartnerID   int64          `db:"partner_id"`
	Provider    string         `db:"provider"`
	AccessToken string         `db:"access_token"`
	CalendarID  sql.NullString `db:"calendar_id"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// EventRef identifies an event in a partner's external calendar.
type EventRef struct {
	CalendarID string
	EventID    string
}
