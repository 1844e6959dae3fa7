package notification

import (
	"testing"
	"time"

	"cancelsaga/internal/config"
	"cancelsaga/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(config.NotificationsConfig{
		Timezone:   "Asia/Bangkok",
		DateFormat: "2 Jan 2006 15:04",
		BrandName:  "Slotly",
	}, "help@slotly.test")
	require.NoError(t, err)
	return c
}

func testView() *models.BookingView {
	scheduled := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	reason := "plans changed"
	return &models.BookingView{
		Booking: models.Booking{
			ID:                 77,
			ScheduledAt:        &scheduled,
			BookingDate:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Amount:             decimal.RequireFromString("1200"),
			Currency:           "THB",
			CancellationReason: &reason,
		},
		Offer:    models.Offer{Title: "Sunset yoga"},
		Partner:  models.Partner{Name: "Yoga Loft", ContactEmail: "ops@yogaloft.test"},
		Customer: models.Customer{Email: "anna@example.com", Name: "Anna"},
	}
}

func TestVariant(t *testing.T) {
	tests := []struct {
		name     string
		decision models.RefundDecision
		want     string
	}{
		{"eligible", models.RefundDecision{Eligible: true, PolicyApplied: models.PolicyStrict}, VariantRefund},
		{"late flexible", models.RefundDecision{PolicyApplied: models.PolicyFlexible}, VariantLateFlexible},
		{"late moderate", models.RefundDecision{PolicyApplied: models.PolicyModerate}, VariantLateWindowed},
		{"late strict", models.RefundDecision{PolicyApplied: models.PolicyStrict}, VariantLateWindowed},
		{"non refundable", models.RefundDecision{PolicyApplied: models.PolicyNonRefundable}, VariantNonRefundable},
		{"purchase override", models.RefundDecision{PolicyApplied: models.PolicyNonRefundable, Overridden: true}, VariantNonRefundable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Variant(tt.decision))
		})
	}
}

func TestDisplayDate(t *testing.T) {
	view := testView()
	assert.Equal(t, view.ScheduledAt, DisplayDate(view))

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	view.ScheduledAt = nil
	view.Offer.EventStartAt = &start
	assert.Equal(t, &start, DisplayDate(view))

	view.Offer.EventStartAt = nil
	assert.Nil(t, DisplayDate(view), "booking date is never shown as the appointment date")
}

func TestCustomerEmail(t *testing.T) {
	c := newTestComposer(t)
	view := testView()

	t.Run("Refund", func(t *testing.T) {
		email, err := c.CustomerEmail(view, models.RefundDecision{Eligible: true, PolicyApplied: models.PolicyFlexible}, "rfnd_1")
		require.NoError(t, err)
		assert.Equal(t, "anna@example.com", email.To)
		assert.Contains(t, email.Subject, "Sunset yoga")
		assert.Contains(t, email.HTML, "1200.00 THB")
		assert.Contains(t, email.HTML, "rfnd_1")
		// 03:00 UTC is 10:00 in Bangkok
		assert.Contains(t, email.HTML, "1 Jun 2026 10:00")
	})

	t.Run("LateFlexible", func(t *testing.T) {
		email, err := c.CustomerEmail(view, models.RefundDecision{PolicyApplied: models.PolicyFlexible, Threshold: 24 * time.Hour}, "")
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "flexible policy")
		assert.Contains(t, email.HTML, "24 hours")
		assert.NotContains(t, email.HTML, "Refund reference")
	})

	t.Run("LateWindowed", func(t *testing.T) {
		email, err := c.CustomerEmail(view, models.RefundDecision{PolicyApplied: models.PolicyStrict, Threshold: 15 * 24 * time.Hour}, "")
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "strict policy")
		assert.Contains(t, email.HTML, "15 days")
	})

	t.Run("NonRefundablePurchase", func(t *testing.T) {
		v := testView()
		v.Offer.BookingType = models.BookingTypePurchase
		email, err := c.CustomerEmail(v, models.RefundDecision{PolicyApplied: models.PolicyNonRefundable, Overridden: true}, "")
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "This purchase is non-refundable")
		assert.Contains(t, email.HTML, "help@slotly.test")
		assert.Contains(t, email.HTML, "#77")
	})

	t.Run("NonRefundableEvent", func(t *testing.T) {
		v := testView()
		v.Offer.BookingType = models.BookingTypeEvent
		v.Offer.CancellationPolicy = models.PolicyNonRefundable
		email, err := c.CustomerEmail(v, models.RefundDecision{PolicyApplied: models.PolicyNonRefundable}, "")
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "This booking has a non-refundable policy")
		assert.NotContains(t, email.HTML, "purchase")
	})

	t.Run("NoDisplayDate", func(t *testing.T) {
		v := testView()
		v.ScheduledAt = nil
		email, err := c.CustomerEmail(v, models.RefundDecision{Eligible: true}, "")
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "<strong>Sunset yoga</strong> has been cancelled")
	})
}

func TestPartnerEmail(t *testing.T) {
	c := newTestComposer(t)
	view := testView()

	email, err := c.PartnerEmail(view, models.RefundDecision{Eligible: true}, "rfnd_9")
	require.NoError(t, err)
	assert.Equal(t, "ops@yogaloft.test", email.To)
	assert.Contains(t, email.Subject, "#77")
	assert.Contains(t, email.HTML, "The spot is free again")
	assert.Contains(t, email.HTML, "plans changed")
	assert.Contains(t, email.HTML, "rfnd_9")

	email, err = c.PartnerEmail(view, models.RefundDecision{}, "")
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "No refund was issued")
}

func TestCustomerNameEscaped(t *testing.T) {
	c := newTestComposer(t)
	view := testView()
	view.Customer.Name = "<script>alert(1)</script>"

	email, err := c.CustomerEmail(view, models.RefundDecision{Eligible: true}, "")
	require.NoError(t, err)
	assert.NotContains(t, email.HTML, "<script>")
}

func TestNewComposerBadTimezone(t *testing.T) {
	_, err := NewComposer(config.NotificationsConfig{Timezone: "Mars/Olympus"}, "")
	assert.Error(t, err)
}

func TestNoticeWindow(t *testing.T) {
	assert.Equal(t, "24 hours", noticeWindow(24*time.Hour))
	assert.Equal(t, "7 days", noticeWindow(7*24*time.Hour))
	assert.Equal(t, "36 hours", noticeWindow(36*time.Hour))
	assert.Equal(t, "", noticeWindow(0))
}
