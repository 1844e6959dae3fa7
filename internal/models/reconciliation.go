package models

import "time"

const (
	ReconcilePending  = "pending"
	ReconcileResolved = "resolved"
)

// ReconciliationEntry is a failed or dropped secondary effect handed off
// to the out-of-band reconciliation process.
type ReconciliationEntry struct {
	ID         int64      `json:"id" db:"id"`
	BookingID  int64      `json:"booking_id" db:"booking_id"`
	Effect     string     `json:"effect" db:"effect"`
	Payload    string     `json:"payload" db:"payload"`
	Status     string     `json:"status" db:"status"`
	LastError  *string    `json:"last_error" db:"last_error"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at" db:"resolved_at"`
}
