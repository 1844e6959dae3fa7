package domain

import (
	"context"
	"time"

	"cancelsaga/internal/models"
)

type BookingStore interface {
	GetBookingView(ctx context.Context, bookingID int64) (*models.BookingView, error)
	CommitCancellation(ctx context.Context, bookingID int64, reason string, at time.Time) error
}

type StockStore interface {
	IncrementVariantStock(ctx context.Context, variantID int64) error
}

type LoyaltyLedger interface {
	AwardPoints(ctx context.Context, userID string, amount int64, reason string, metadata map[string]any) error
}

type IntegrationStore interface {
	GetPartnerIntegration(ctx context.Context, partnerID int64, provider string) (*models.PartnerIntegration, error)
}

type ReconciliationStore interface {
	CreateReconciliationEntry(ctx context.Context, entry *models.ReconciliationEntry) error
	GetPendingReconciliation(ctx context.Context, limit int) ([]models.ReconciliationEntry, error)
	ResolveReconciliationEntry(ctx context.Context, id int64) error
}

// PaymentReversal wraps the processor's refund call.
type PaymentReversal interface {
	// IsGenuineCharge reports whether ref was issued by the processor rather
	// than being a placeholder written by a free or manual booking.
	IsGenuineCharge(ref string) bool
	CreateRefund(ctx context.Context, req models.RefundRequest) (string, error)
}

type CalendarCanceller interface {
	CancelScheduledEvent(ctx context.Context, cred *models.PartnerIntegration, ref models.EventRef, reason string) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type OutcomeRepository interface {
	SaveOutcome(ctx context.Context, result *models.CancellationResult) error
	GetOutcome(ctx context.Context, bookingID int64) (*models.CancellationResult, error)
	CheckRateLimit(ctx context.Context, requesterID string, limit int, window time.Duration) (bool, error)
}

type AlertSender interface {
	SendAlert(ctx context.Context, text string) error
}

type CancellationService interface {
	CancelBooking(ctx context.Context, bookingID int64, requesterID, reason string) (*models.CancellationResult, error)
	GetCancellation(ctx context.Context, bookingID int64) (*models.CancellationResult, error)
}
