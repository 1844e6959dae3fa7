package models

import "time"

const (
	EffectRefund        = "refund"
	EffectStock         = "stock_restore"
	EffectLoyalty       = "loyalty_reversal"
	EffectCalendar      = "calendar_cancel"
	EffectCustomerEmail = "customer_email"
	EffectPartnerEmail  = "partner_email"
)

const (
	EffectApplied = "applied"
	EffectSkipped = "skipped"
	EffectFailed  = "failed"

	// EffectOrphaned marks a refund issued for a booking whose status commit
	// then failed. It only appears in reconciliation hand-offs.
	EffectOrphaned = "orphaned"
)

type EffectOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CancellationResult is what callers get back from a cancel request.
// Success reflects the status commit only; the rest is informational.
type CancellationResult struct {
	BookingID         int64           `json:"booking_id"`
	Success           bool            `json:"success"`
	RefundEligible    bool            `json:"refundEligible"`
	RefundID          string          `json:"refundId,omitempty"`
	CustomerEmailSent bool            `json:"customerEmailSent"`
	PartnerEmailSent  bool            `json:"partnerEmailSent"`
	EmailError        string          `json:"emailError,omitempty"`
	Error             string          `json:"error,omitempty"`
	Effects           []EffectOutcome `json:"effects,omitempty"`
	CancelledAt       *time.Time      `json:"cancelledAt,omitempty"`
}

func (r *CancellationResult) Effect(name string) (EffectOutcome, bool) {
	for _, e := range r.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return EffectOutcome{}, false
}
