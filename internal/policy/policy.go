// Package policy decides refund eligibility for a cancellation.
//
// Everything here is pure: the caller supplies "now", so the same inputs
// always produce the same decision.
package policy

import (
	"time"

	"cancelsaga/internal/models"
)

const day = 24 * time.Hour

// Minimum notice before the reference date, inclusive.
var thresholds = map[string]time.Duration{
	models.PolicyFlexible: 24 * time.Hour,
	models.PolicyModerate: 7 * day,
	models.PolicyStrict:   15 * day,
}

// Threshold returns the minimum notice for a policy. ok is false for
// non_refundable and unknown policies.
func Threshold(policy string) (time.Duration, bool) {
	d, ok := thresholds[policy]
	return d, ok
}

// EffectivePolicy applies the purchase override: instant and digital goods
// are never refundable whatever the offer says.
func EffectivePolicy(policy, bookingType string) (string, bool) {
	if bookingType == models.BookingTypePurchase && policy != models.PolicyNonRefundable {
		return models.PolicyNonRefundable, true
	}
	if _, ok := thresholds[policy]; !ok {
		return models.PolicyNonRefundable, false
	}
	return policy, false
}

// Evaluate computes the refund decision for a reference date.
func Evaluate(policy string, ref models.ReferenceDate, now time.Time, bookingType string) models.RefundDecision {
	applied, overridden := EffectivePolicy(policy, bookingType)
	remaining := ref.At.Sub(now)

	decision := models.RefundDecision{
		PolicyApplied:  applied,
		Overridden:     overridden,
		Reference:      ref,
		Remaining:      remaining,
		HoursRemaining: int64(remaining / time.Hour),
		DaysRemaining:  int64(remaining / day),
	}

	threshold, ok := Threshold(applied)
	if !ok {
		return decision
	}
	decision.Threshold = threshold
	decision.Eligible = remaining >= threshold
	return decision
}

// ResolveReferenceDate picks the date the policy window is measured against:
// scheduled appointment, then the offer's event start, then the booking date.
func ResolveReferenceDate(view *models.BookingView) models.ReferenceDate {
	if view.ScheduledAt != nil && !view.ScheduledAt.IsZero() {
		return models.ReferenceDate{At: *view.ScheduledAt, Source: models.ReferenceScheduled}
	}
	if view.Offer.EventStartAt != nil && !view.Offer.EventStartAt.IsZero() {
		return models.ReferenceDate{At: *view.Offer.EventStartAt, Source: models.ReferenceEventStart}
	}
	return models.ReferenceDate{At: view.BookingDate, Source: models.ReferenceBookingDate}
}

// Decide is ResolveReferenceDate followed by Evaluate.
func Decide(view *models.BookingView, now time.Time) models.RefundDecision {
	return Evaluate(view.Offer.CancellationPolicy, ResolveReferenceDate(view), now, view.Offer.BookingType)
}
