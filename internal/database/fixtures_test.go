package database

import (
	"context"
	"io"
	"testing"
	"time"

	"cancelsaga/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	partner models.Partner
	offer   models.Offer
	variant models.Variant
	booking models.Booking
}

func seedBooking(t *testing.T, db *DB, scheduled *time.Time) fixture {
	t.Helper()
	ctx := context.Background()

	f := fixture{}
	f.partner = models.Partner{Name: "Yoga Loft", ContactEmail: "ops@yogaloft.test"}
	require.NoError(t, db.CreatePartner(ctx, &f.partner))

	require.NoError(t, db.UpsertCustomer(ctx, &models.Customer{UserID: "user-1", Email: "anna@example.com", Name: "Anna"}))

	eventStart := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.offer = models.Offer{
		Title:              "Morning flow",
		CancellationPolicy: models.PolicyModerate,
		BookingType:        models.BookingTypeEvent,
		EventStartAt:       &eventStart,
		PartnerID:          f.partner.ID,
	}
	require.NoError(t, db.CreateOffer(ctx, &f.offer))

	f.variant = models.Variant{OfferID: f.offer.ID, Name: "9:00 slot", CapacityLimited: true, Stock: 3}
	require.NoError(t, db.CreateVariant(ctx, &f.variant))

	ref := "https://www.googleapis.com/calendar/v3/calendars/primary/events/evt123"
	f.booking = models.Booking{
		UserID:           "user-1",
		OfferID:          f.offer.ID,
		Status:           models.StatusPaid,
		ScheduledAt:      scheduled,
		BookingDate:      time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		VariantID:        &f.variant.ID,
		PaymentRef:       "chrg_test_5xyz",
		Source:           models.SourceExternalCalendar,
		ExternalEventRef: &ref,
		Amount:           decimal.RequireFromString("49.90"),
		Currency:         "THB",
	}
	require.NoError(t, db.CreateBooking(ctx, &f.booking))
	return f
}
