package service

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/database"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"
)

// LoyaltyAdjuster takes back points earned on a refunded booking.
type LoyaltyAdjuster struct {
	ledger domain.LoyaltyLedger
}

func NewLoyaltyAdjuster(ledger domain.LoyaltyLedger) *LoyaltyAdjuster {
	return &LoyaltyAdjuster{ledger: ledger}
}

// Points is the number of points a refund of the booking amount reverses:
// one per whole currency unit.
func (a *LoyaltyAdjuster) Points(view *models.BookingView) int64 {
	return view.Amount.Floor().IntPart()
}

// Reverse writes -Points to the ledger. Spent points cannot be clawed back,
// so a reversal that would go below zero is dropped.
func (a *LoyaltyAdjuster) Reverse(ctx context.Context, view *models.BookingView, reason, refundID string) (string, error) {
	points := a.Points(view)
	if points <= 0 {
		return "", skip("refunded amount is below one point")
	}

	metadata := map[string]any{
		"booking_id": view.ID,
		"offer_id":   view.OfferID,
		"refund_id":  refundID,
		"type":       "cancellation_reversal",
	}
	err := a.ledger.AwardPoints(ctx, view.UserID, -points, "Cancellation: "+reason, metadata)
	if err != nil {
		if errors.Is(err, database.ErrInsufficientPoints) {
			return "", drop("reversal of %d points dropped: balance already spent", points)
		}
		return "", err
	}
	return fmt.Sprintf("-%d points", points), nil
}
