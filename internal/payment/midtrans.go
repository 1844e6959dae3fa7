package payment

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/models"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/rs/zerolog"
)

type midtransRefundFunc func(orderID string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error)

// MidtransReversal refunds Midtrans transactions through the Core API.
// Payment references are Midtrans transaction ids (UUIDs).
type MidtransReversal struct {
	refund       midtransRefundFunc
	placeholders []string
	logger       *zerolog.Logger
}

func NewMidtransReversal(serverKey, environment string, placeholders []string, logger *zerolog.Logger) *MidtransReversal {
	env := midtrans.Sandbox
	if environment == "production" {
		env = midtrans.Production
	}

	var client coreapi.Client
	client.New(serverKey, env)

	return newMidtransReversal(client.RefundTransaction, placeholders, logger)
}

func newMidtransReversal(refund midtransRefundFunc, placeholders []string, logger *zerolog.Logger) *MidtransReversal {
	return &MidtransReversal{refund: refund, placeholders: placeholders, logger: nopIfNil(logger)}
}

func (m *MidtransReversal) IsGenuineCharge(ref string) bool {
	if isPlaceholder(ref, m.placeholders) {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}

func (m *MidtransReversal) CreateRefund(ctx context.Context, req models.RefundRequest) (string, error) {
	if !m.IsGenuineCharge(req.ChargeRef) {
		return "", ErrNotGenuineCharge
	}
	// IDR без дробной части
	amount := req.Amount.IntPart()
	if amount <= 0 {
		return "", ErrNonPositive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := refundKey(req.BookingID)
	resp, merr := m.refund(req.ChargeRef, &coreapi.RefundReq{
		RefundKey: key,
		Amount:    amount,
		Reason:    req.Reason,
	})
	if merr != nil {
		return "", fmt.Errorf("midtrans refund %s: %s", req.ChargeRef, merr.GetMessage())
	}
	if resp == nil {
		return "", errors.New("midtrans refund: empty response")
	}
	if resp.StatusCode != "200" && resp.StatusCode != "201" {
		return "", fmt.Errorf("midtrans refund %s: status %s: %s", req.ChargeRef, resp.StatusCode, resp.StatusMessage)
	}

	refundID := resp.RefundKey
	if refundID == "" {
		refundID = key
	}

	m.logger.Info().
		Int64("booking_id", req.BookingID).
		Str("transaction", req.ChargeRef).
		Str("refund_key", refundID).
		Int64("amount", amount).
		Msg("midtrans refund created")
	return refundID, nil
}
