package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cancelsaga/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
)

// bookingViewRow is the flat shape of the booking+offer+partner+customer join.
type bookingViewRow struct {
	ID                 int64           `db:"id"`
	UserID             string          `db:"user_id"`
	OfferID            int64           `db:"offer_id"`
	Status             string          `db:"status"`
	ScheduledAt        *time.Time      `db:"scheduled_at"`
	BookingDate        time.Time       `db:"booking_date"`
	VariantID          *int64          `db:"variant_id"`
	PaymentRef         string          `db:"payment_ref"`
	Source             string          `db:"source"`
	ExternalEventRef   *string         `db:"external_event_ref"`
	Amount             decimal.Decimal `db:"amount"`
	Currency           string          `db:"currency"`
	CancellationReason *string         `db:"cancellation_reason"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`

	OfferTitle        string     `db:"offer_title"`
	OfferPolicy       string     `db:"offer_policy"`
	OfferBookingType  string     `db:"offer_booking_type"`
	OfferEventStartAt *time.Time `db:"offer_event_start_at"`

	PartnerID    int64  `db:"partner_id"`
	PartnerName  string `db:"partner_name"`
	PartnerEmail string `db:"partner_email"`

	CustomerEmail sql.NullString `db:"customer_email"`
	CustomerName  sql.NullString `db:"customer_name"`

	VariantCapacityLimited sql.NullBool `db:"variant_capacity_limited"`
}

func (r *bookingViewRow) toView() *models.BookingView {
	return &models.BookingView{
		Booking: models.Booking{
			ID:                 r.ID,
			UserID:             r.UserID,
			OfferID:            r.OfferID,
			Status:             r.Status,
			ScheduledAt:        r.ScheduledAt,
			BookingDate:        r.BookingDate,
			VariantID:          r.VariantID,
			PaymentRef:         r.PaymentRef,
			Source:             r.Source,
			ExternalEventRef:   r.ExternalEventRef,
			Amount:             r.Amount,
			Currency:           r.Currency,
			CancellationReason: r.CancellationReason,
			CancelledAt:        r.CancelledAt,
			CreatedAt:          r.CreatedAt,
			UpdatedAt:          r.UpdatedAt,
		},
		Offer: models.Offer{
			ID:                 r.OfferID,
			Title:              r.OfferTitle,
			CancellationPolicy: r.OfferPolicy,
			BookingType:        r.OfferBookingType,
			EventStartAt:       r.OfferEventStartAt,
			PartnerID:          r.PartnerID,
		},
		Partner: models.Partner{
			ID:           r.PartnerID,
			Name:         r.PartnerName,
			ContactEmail: r.PartnerEmail,
		},
		Customer: models.Customer{
			UserID: r.UserID,
			Email:  r.CustomerEmail.String,
			Name:   r.CustomerName.String,
		},
		VariantCapacityLimited: r.VariantCapacityLimited.Valid && r.VariantCapacityLimited.Bool,
	}
}

// GetBookingView reads a booking together with its offer, partner and customer
// in one statement.
func (db *DB) GetBookingView(ctx context.Context, bookingID int64) (*models.BookingView, error) {
	ds := db.dialect.
		From(goqu.T("bookings").As("b")).
		Join(goqu.T("offers").As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("b.offer_id")))).
		Join(goqu.T("partners").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("o.partner_id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.user_id")))).
		LeftJoin(goqu.T("offer_variants").As("v"), goqu.On(goqu.I("v.id").Eq(goqu.I("b.variant_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.user_id"), goqu.I("b.offer_id"), goqu.I("b.status"),
			goqu.I("b.scheduled_at"), goqu.I("b.booking_date"), goqu.I("b.variant_id"),
			goqu.I("b.payment_ref"), goqu.I("b.source"), goqu.I("b.external_event_ref"),
			goqu.I("b.amount"), goqu.I("b.currency"), goqu.I("b.cancellation_reason"),
			goqu.I("b.cancelled_at"), goqu.I("b.created_at"), goqu.I("b.updated_at"),
			goqu.I("o.title").As("offer_title"),
			goqu.I("o.cancellation_policy").As("offer_policy"),
			goqu.I("o.booking_type").As("offer_booking_type"),
			goqu.I("o.event_start_at").As("offer_event_start_at"),
			goqu.I("p.id").As("partner_id"),
			goqu.I("p.name").As("partner_name"),
			goqu.I("p.contact_email").As("partner_email"),
			goqu.I("u.email").As("customer_email"),
			goqu.I("u.name").As("customer_name"),
			goqu.I("v.capacity_limited").As("variant_capacity_limited"),
		).
		Where(goqu.I("b.id").Eq(bookingID)).
		Prepared(true)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build booking view query: %w", err)
	}

	var row bookingViewRow
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking view: %w", err)
	}
	return row.toView(), nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := db.GetContext(ctx, &b, `SELECT id, user_id, offer_id, status, scheduled_at, booking_date, variant_id,
            payment_ref, source, external_event_ref, amount, currency, cancellation_reason, cancelled_at,
            created_at, updated_at
        FROM bookings WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// CommitCancellation is the single authoritative status write. Exactly one
// caller wins; everyone else gets ErrAlreadyCancelled.
func (db *DB) CommitCancellation(ctx context.Context, bookingID int64, reason string, at time.Time) error {
	ds := db.dialect.Update("bookings").
		Set(goqu.Record{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        at,
			"updated_at":          at,
		}).
		Where(
			goqu.C("id").Eq(bookingID),
			goqu.C("status").Neq(models.StatusCancelled),
		).
		Prepared(true)

	affected, _, err := db.execBuilt(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// 0 строк: либо брони нет, либо ее уже отменили
	var exists int
	if err := db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM bookings WHERE id = ?`, bookingID); err != nil {
		return fmt.Errorf("failed to check booking after commit: %w", err)
	}
	if exists == 0 {
		return ErrBookingNotFound
	}
	return ErrAlreadyCancelled
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if booking.Source == "" {
		booking.Source = models.SourceDirect
	}
	if booking.BookingDate.IsZero() {
		booking.BookingDate = now
	}

	ds := db.dialect.Insert("bookings").Rows(goqu.Record{
		"user_id":             booking.UserID,
		"offer_id":            booking.OfferID,
		"status":              booking.Status,
		"scheduled_at":        booking.ScheduledAt,
		"booking_date":        booking.BookingDate,
		"variant_id":          booking.VariantID,
		"payment_ref":         booking.PaymentRef,
		"source":              booking.Source,
		"external_event_ref":  booking.ExternalEventRef,
		"amount":              booking.Amount.String(),
		"currency":            booking.Currency,
		"cancellation_reason": booking.CancellationReason,
		"cancelled_at":        booking.CancelledAt,
		"created_at":          now,
		"updated_at":          now,
	}).Prepared(true)

	_, id, err := db.execBuilt(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) CreateOffer(ctx context.Context, offer *models.Offer) error {
	ds := db.dialect.Insert("offers").Rows(goqu.Record{
		"title":               offer.Title,
		"cancellation_policy": offer.CancellationPolicy,
		"booking_type":        offer.BookingType,
		"event_start_at":      offer.EventStartAt,
		"partner_id":          offer.PartnerID,
	}).Prepared(true)

	_, id, err := db.execBuilt(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	offer.ID = id
	return nil
}

func (db *DB) CreatePartner(ctx context.Context, partner *models.Partner) error {
	res, err := db.ExecContext(ctx, `INSERT INTO partners (name, contact_email) VALUES (?, ?)`,
		partner.Name, partner.ContactEmail)
	if err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	partner.ID = id
	return nil
}

func (db *DB) UpsertCustomer(ctx context.Context, c *models.Customer) error {
	_, err := db.ExecContext(ctx, `INSERT INTO users (id, email, name) VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name`,
		c.UserID, c.Email, c.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}
