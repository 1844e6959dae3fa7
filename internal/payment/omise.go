package payment

import (
	"context"
	"fmt"
	"strings"

	"cancelsaga/internal/models"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/rs/zerolog"
)

const omiseChargePrefix = "chrg_"

type omiseRefundFunc func(ctx context.Context, idempotencyKey string, refund *omise.Refund, op *operations.CreateRefund) error

// OmiseReversal refunds Omise charges in full.
type OmiseReversal struct {
	refund       omiseRefundFunc
	placeholders []string
	logger       *zerolog.Logger
}

func NewOmiseReversal(publicKey, secretKey string, placeholders []string, logger *zerolog.Logger) (*OmiseReversal, error) {
	if _, err := omise.NewClient(publicKey, secretKey); err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}

	// WithContext и WithCustomHeaders меняют клиента, поэтому клиент на каждый вызов
	do := func(ctx context.Context, idempotencyKey string, refund *omise.Refund, op *operations.CreateRefund) error {
		client, err := omise.NewClient(publicKey, secretKey)
		if err != nil {
			return err
		}
		client.WithContext(ctx)
		client.WithCustomHeaders(map[string]string{"Idempotency-Key": idempotencyKey})
		return client.Do(refund, op)
	}
	return newOmiseReversal(do, placeholders, logger), nil
}

func newOmiseReversal(refund omiseRefundFunc, placeholders []string, logger *zerolog.Logger) *OmiseReversal {
	return &OmiseReversal{refund: refund, placeholders: placeholders, logger: nopIfNil(logger)}
}

func (o *OmiseReversal) IsGenuineCharge(ref string) bool {
	if isPlaceholder(ref, o.placeholders) {
		return false
	}
	return strings.HasPrefix(ref, omiseChargePrefix) && len(ref) > len(omiseChargePrefix)
}

func (o *OmiseReversal) CreateRefund(ctx context.Context, req models.RefundRequest) (string, error) {
	if !o.IsGenuineCharge(req.ChargeRef) {
		return "", ErrNotGenuineCharge
	}
	// Omise принимает сумму в минимальных единицах (сатанги, центы)
	minor := req.Amount.Shift(2).IntPart()
	if minor <= 0 {
		return "", ErrNonPositive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	metadata := map[string]interface{}{
		"booking_id": req.BookingID,
		"reason":     req.Reason,
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	refund := &omise.Refund{}
	op := &operations.CreateRefund{
		ChargeID: req.ChargeRef,
		Amount:   minor,
		Metadata: metadata,
	}
	if err := o.refund(ctx, refundKey(req.BookingID), refund, op); err != nil {
		return "", fmt.Errorf("omise refund %s: %w", req.ChargeRef, err)
	}

	o.logger.Info().
		Int64("booking_id", req.BookingID).
		Str("charge", req.ChargeRef).
		Str("refund_id", refund.ID).
		Int64("amount", minor).
		Msg("omise refund created")
	return refund.ID, nil
}
