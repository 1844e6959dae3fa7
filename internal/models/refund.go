package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reference date sources, in precedence order.
const (
	ReferenceScheduled   = "scheduled"
	ReferenceEventStart  = "event_start"
	ReferenceBookingDate = "booking_date"
)

type ReferenceDate struct {
	At     time.Time `json:"at"`
	Source string    `json:"source"`
}

// RefundDecision is derived per request and never persisted.
type RefundDecision struct {
	Eligible       bool          `json:"eligible"`
	PolicyApplied  string        `json:"policy_applied"`
	Overridden     bool          `json:"overridden"`
	Reference      ReferenceDate `json:"reference"`
	Remaining      time.Duration `json:"remaining"`
	HoursRemaining int64         `json:"hours_remaining"`
	DaysRemaining  int64         `json:"days_remaining"`
	Threshold      time.Duration `json:"threshold"`
}

// RefundRequest is a full reversal of the booking's charge.
type RefundRequest struct {
	BookingID int64
	ChargeRef string
	Amount    decimal.Decimal
	Currency  string
	Reason    string
	Metadata  map[string]string
}
