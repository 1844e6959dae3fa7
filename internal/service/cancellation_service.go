package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cancelsaga/internal/database"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/events"
	"cancelsaga/internal/logging"
	"cancelsaga/internal/metrics"
	"cancelsaga/internal/models"
	"cancelsaga/internal/policy"

	"github.com/rs/zerolog"
)

var (
	ErrNotOwner         = errors.New("requester does not own the booking")
	ErrMissingRequester = errors.New("requester identity is required")
	ErrOutcomeNotFound  = errors.New("no stored cancellation outcome")
)

const defaultReason = "Cancelled by customer"

// IsBusinessError reports whether err is a rejected request rather than a
// system failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrMissingRequester) ||
		errors.Is(err, database.ErrBookingNotFound) ||
		errors.Is(err, database.ErrAlreadyCancelled)
}

// UserMessage maps a fatal error to the text shown to the caller.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingRequester):
		return "Sign in to cancel a booking"
	case errors.Is(err, ErrNotOwner):
		return "You can only cancel your own bookings"
	case errors.Is(err, database.ErrBookingNotFound):
		return "Booking not found"
	case errors.Is(err, database.ErrAlreadyCancelled):
		return "Booking is already cancelled"
	default:
		return "Failed to cancel booking"
	}
}

// Deps are the collaborators of the cancellation saga. Outcomes and Events
// may be nil.
type Deps struct {
	Bookings  domain.BookingStore
	Payments  domain.PaymentReversal
	Inventory *InventoryReconciler
	Loyalty   *LoyaltyAdjuster
	Calendar  *CalendarSync
	Notifier  *Notifier
	Outcomes  domain.OutcomeRepository
	Events    domain.EventPublisher
	Now       func() time.Time
}

// CancellationService runs the cancellation saga: validate, decide, refund,
// commit, then best-effort side effects and notifications.
type CancellationService struct {
	bookings  domain.BookingStore
	payments  domain.PaymentReversal
	inventory *InventoryReconciler
	loyalty   *LoyaltyAdjuster
	calendar  *CalendarSync
	notifier  *Notifier
	outcomes  domain.OutcomeRepository
	events    domain.EventPublisher
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewCancellationService(deps Deps, logger *zerolog.Logger) *CancellationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CancellationService{
		bookings:  deps.Bookings,
		payments:  deps.Payments,
		inventory: deps.Inventory,
		loyalty:   deps.Loyalty,
		calendar:  deps.Calendar,
		notifier:  deps.Notifier,
		outcomes:  deps.Outcomes,
		events:    deps.Events,
		now:       now,
		logger:    logging.Component(logger, "cancellation"),
	}
}

// saga holds the state of one cancellation request.
type saga struct {
	view     *models.BookingView
	decision models.RefundDecision
	reason   string
	now      time.Time
	result   *models.CancellationResult
	handoffs []events.EffectFailedPayload
	logger   zerolog.Logger
}

// CancelBooking cancels bookingID on behalf of requesterID. The returned
// result is never nil. A non-nil error means the booking was not cancelled;
// once the status is committed every later problem is reported inside the
// result only.
func (s *CancellationService) CancelBooking(ctx context.Context, bookingID int64, requesterID, reason string) (*models.CancellationResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveSaga(time.Since(start)) }()

	result := &models.CancellationResult{BookingID: bookingID}
	logger := logging.ForBooking(s.logger, bookingID, requesterID)

	// 1-2. авторизация и загрузка брони одним чтением
	view, err := s.authorize(ctx, bookingID, requesterID)
	if err != nil {
		return s.reject(result, &logger, err)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultReason
	}

	sg := &saga{
		view:   view,
		reason: reason,
		now:    s.now(),
		result: result,
		logger: logger,
	}

	// 3. политика возврата
	sg.decision = policy.Decide(view, sg.now)
	result.RefundEligible = sg.decision.Eligible
	logger.Info().
		Str("policy", sg.decision.PolicyApplied).
		Bool("overridden", sg.decision.Overridden).
		Str("reference", sg.decision.Reference.Source).
		Int64("hours_remaining", sg.decision.HoursRemaining).
		Bool("eligible", sg.decision.Eligible).
		Msg("refund decision")

	// 4. возврат денег; ошибка не блокирует отмену
	if sg.decision.Eligible {
		s.runEffect(ctx, sg, models.EffectRefund, s.refund(sg))
	}

	// 5. единственная фатальная запись
	if err := s.bookings.CommitCancellation(ctx, bookingID, reason, sg.now); err != nil {
		if result.RefundID != "" {
			sg.handoff(models.EffectRefund, models.EffectOrphaned,
				fmt.Sprintf("refund %s issued but status commit failed: %v", result.RefundID, err),
				map[string]any{"refund_id": result.RefundID})
			s.publishHandoffs(sg)
		}
		return s.reject(result, &logger, err)
	}
	// бронь уже отменена: эффекты доводим до конца даже если клиент ушёл
	ctx = context.WithoutCancel(ctx)
	result.Success = true
	cancelledAt := sg.now
	result.CancelledAt = &cancelledAt
	view.Status = models.StatusCancelled
	view.CancellationReason = &reason
	view.CancelledAt = &cancelledAt
	logger.Info().Msg("booking cancelled")
	s.publishCancelled(sg)

	// 6. побочные эффекты, каждый изолирован
	if s.inventory != nil && s.inventory.Applies(view) {
		s.runEffect(ctx, sg, models.EffectStock, func(ctx context.Context) (string, error) {
			return s.inventory.Restore(ctx, view)
		})
	}
	if s.loyalty != nil && result.RefundID != "" && view.Amount.IsPositive() {
		s.runEffect(ctx, sg, models.EffectLoyalty, func(ctx context.Context) (string, error) {
			return s.loyalty.Reverse(ctx, view, reason, result.RefundID)
		})
	}
	if s.calendar != nil && s.calendar.Applies(view) {
		s.runEffect(ctx, sg, models.EffectCalendar, func(ctx context.Context) (string, error) {
			return s.calendar.Cancel(ctx, view, reason)
		})
	}

	// 7. уведомления, независимо друг от друга
	s.notify(ctx, sg)

	s.publishHandoffs(sg)
	s.saveOutcome(ctx, sg)
	metrics.IncCancellation("success")

	// 8.
	return result, nil
}

func (s *CancellationService) authorize(ctx context.Context, bookingID int64, requesterID string) (*models.BookingView, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, ErrMissingRequester
	}
	view, err := s.bookings.GetBookingView(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if view.UserID != requesterID {
		return nil, ErrNotOwner
	}
	if view.IsCancelled() {
		return nil, database.ErrAlreadyCancelled
	}
	return view, nil
}

func (s *CancellationService) reject(result *models.CancellationResult, logger *zerolog.Logger, err error) (*models.CancellationResult, error) {
	result.Success = false
	result.Error = UserMessage(err)

	label := "rejected"
	if IsBusinessError(err) {
		logger.Warn().Err(err).Msg("cancellation rejected")
	} else {
		label = "error"
		logger.Error().Err(err).Msg("cancellation failed")
	}
	metrics.IncCancellation(label)
	return result, err
}

func (s *CancellationService) refund(sg *saga) effectFunc {
	return func(ctx context.Context) (string, error) {
		view := sg.view
		if s.payments == nil {
			return "", skip("no payment processor configured")
		}
		if !s.payments.IsGenuineCharge(view.PaymentRef) {
			metrics.IncRefund("not_charged")
			return "", skip("payment reference %q is not a processor charge", view.PaymentRef)
		}
		if !view.Amount.IsPositive() {
			metrics.IncRefund("zero_amount")
			return "", skip("nothing to refund")
		}

		refundID, err := s.payments.CreateRefund(ctx, models.RefundRequest{
			BookingID: view.ID,
			ChargeRef: view.PaymentRef,
			Amount:    view.Amount,
			Currency:  view.Currency,
			Reason:    sg.reason,
			Metadata: map[string]string{
				"requester_id":   view.UserID,
				"policy_applied": sg.decision.PolicyApplied,
			},
		})
		if err != nil {
			metrics.IncRefund("failed")
			return "", err
		}
		metrics.IncRefund("issued")
		sg.result.RefundID = refundID
		return refundID, nil
	}
}

func (s *CancellationService) notify(ctx context.Context, sg *saga) {
	if s.notifier == nil {
		return
	}
	var emailErrors []string

	customer := s.runEffect(ctx, sg, models.EffectCustomerEmail, func(ctx context.Context) (string, error) {
		return s.notifier.NotifyCustomer(ctx, sg.view, sg.decision, sg.result.RefundID)
	})
	sg.result.CustomerEmailSent = customer.Status == models.EffectApplied
	if customer.Error != "" {
		emailErrors = append(emailErrors, "customer: "+customer.Error)
	}

	partner := s.runEffect(ctx, sg, models.EffectPartnerEmail, func(ctx context.Context) (string, error) {
		return s.notifier.NotifyPartner(ctx, sg.view, sg.decision, sg.result.RefundID)
	})
	sg.result.PartnerEmailSent = partner.Status == models.EffectApplied
	if partner.Error != "" {
		emailErrors = append(emailErrors, "partner: "+partner.Error)
	}

	sg.result.EmailError = strings.Join(emailErrors, "; ")
}

func (s *CancellationService) publishCancelled(sg *saga) {
	if s.events == nil {
		return
	}
	payload := events.BookingCancelledPayload{
		BookingID:      sg.view.ID,
		UserID:         sg.view.UserID,
		OfferID:        sg.view.OfferID,
		PartnerID:      sg.view.Partner.ID,
		Reason:         sg.reason,
		RefundEligible: sg.decision.Eligible,
		RefundID:       sg.result.RefundID,
		PolicyApplied:  sg.decision.PolicyApplied,
		CancelledAt:    sg.now,
	}
	if err := s.events.PublishJSON(events.EventBookingCancelled, payload); err != nil {
		sg.logger.Error().Err(err).Str("event_type", events.EventBookingCancelled).Msg("publish event error")
	}
}

func (s *CancellationService) saveOutcome(ctx context.Context, sg *saga) {
	if s.outcomes == nil {
		return
	}
	if err := s.outcomes.SaveOutcome(ctx, sg.result); err != nil {
		sg.logger.Error().Err(err).Msg("save cancellation outcome error")
	}
}

// GetCancellation returns the stored result of a completed cancellation.
func (s *CancellationService) GetCancellation(ctx context.Context, bookingID int64) (*models.CancellationResult, error) {
	if s.outcomes == nil {
		return nil, ErrOutcomeNotFound
	}
	result, err := s.outcomes.GetOutcome(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrOutcomeNotFound
	}
	return result, nil
}
