package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a user's claim on a slot or good tied to an Offer.
type Booking struct {
	ID                 int64           `json:"id" db:"id"`
	UserID             string          `json:"user_id" db:"user_id"`
	OfferID            int64           `json:"offer_id" db:"offer_id"`
	Status             string          `json:"status" db:"status"` // pending, paid, cancelled
	ScheduledAt        *time.Time      `json:"scheduled_at,omitempty" db:"scheduled_at"`
	BookingDate        time.Time       `json:"booking_date" db:"booking_date"`
	VariantID          *int64          `json:"variant_id,omitempty" db:"variant_id"`
	PaymentRef         string          `json:"payment_ref" db:"payment_ref"`
	Source             string          `json:"source" db:"source"` // direct, external_calendar
	ExternalEventRef   *string         `json:"external_event_ref,omitempty" db:"external_event_ref"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	Currency           string          `json:"currency" db:"currency"`
	CancellationReason *string         `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

func (b *Booking) FromExternalCalendar() bool {
	return b.Source == SourceExternalCalendar
}

// Offer is a partner-provided sellable unit.
type Offer struct {
	ID                 int64      `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	CancellationPolicy string     `json:"cancellation_policy" db:"cancellation_policy"`
	BookingType        string     `json:"booking_type" db:"booking_type"`
	EventStartAt       *time.Time `json:"event_start_at,omitempty" db:"event_start_at"`
	PartnerID          int64      `json:"partner_id" db:"partner_id"`
}

type Partner struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	ContactEmail string `json:"contact_email" db:"contact_email"`
}

type Customer struct {
	UserID string `json:"user_id" db:"user_id"`
	Email  string `json:"email" db:"email"`
	Name   string `json:"name" db:"name"`
}

// Variant is a capacity-limited sub-unit of an offer (time slot, ticket tier).
type Variant struct {
	ID              int64  `json:"id" db:"id"`
	OfferID         int64  `json:"offer_id" db:"offer_id"`
	Name            string `json:"name" db:"name"`
	CapacityLimited bool   `json:"capacity_limited" db:"capacity_limited"`
	Stock           int64  `json:"stock" db:"stock"`
}

// BookingView is the booking joined with everything the cancellation flow reads.
type BookingView struct {
	Booking
	Offer    Offer
	Partner  Partner
	Customer Customer
	// VariantCapacityLimited is false when the booking holds no variant.
	VariantCapacityLimited bool
}
