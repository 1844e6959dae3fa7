package payment

import (
	"context"
	"testing"

	"cancelsaga/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txID = "2b3c8f0a-6d1e-4d47-9a53-55f1c0d4f0a1"

func TestMidtransIsGenuineCharge(t *testing.T) {
	m := newMidtransReversal(nil, testPlaceholders, nil)

	assert.True(t, m.IsGenuineCharge(txID))
	assert.False(t, m.IsGenuineCharge("order-123"))
	assert.False(t, m.IsGenuineCharge(""))
	assert.False(t, m.IsGenuineCharge("placeholder-"+txID))
}

func TestMidtransCreateRefund(t *testing.T) {
	var gotOrder string
	var gotReq *coreapi.RefundReq
	m := newMidtransReversal(func(orderID string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error) {
		gotOrder = orderID
		gotReq = req
		return &coreapi.RefundResponse{StatusCode: "200", RefundKey: req.RefundKey}, nil
	}, testPlaceholders, nil)

	id, err := m.CreateRefund(context.Background(), models.RefundRequest{
		BookingID: 9,
		ChargeRef: txID,
		Amount:    decimal.RequireFromString("150000.75"),
		Reason:    "sick",
	})
	require.NoError(t, err)
	assert.Equal(t, txID, gotOrder)
	require.NotNil(t, gotReq)
	assert.Equal(t, int64(150000), gotReq.Amount)
	assert.Equal(t, "sick", gotReq.Reason)
	assert.Equal(t, "cancel-9", gotReq.RefundKey)
	assert.Equal(t, gotReq.RefundKey, id)
}

func TestMidtransCreateRefundReusesKeyPerBooking(t *testing.T) {
	var keys []string
	m := newMidtransReversal(func(_ string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error) {
		keys = append(keys, req.RefundKey)
		return &coreapi.RefundResponse{StatusCode: "200"}, nil
	}, nil, nil)

	req := models.RefundRequest{BookingID: 11, ChargeRef: txID, Amount: decimal.NewFromInt(1000)}
	first, err := m.CreateRefund(context.Background(), req)
	require.NoError(t, err)
	second, err := m.CreateRefund(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"cancel-11", "cancel-11"}, keys)
	assert.Equal(t, first, second)
}

func TestMidtransCreateRefundErrors(t *testing.T) {
	t.Run("SDKError", func(t *testing.T) {
		m := newMidtransReversal(func(string, *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error) {
			return nil, &midtrans.Error{Message: "transaction not found", StatusCode: 404}
		}, nil, nil)
		_, err := m.CreateRefund(context.Background(), models.RefundRequest{ChargeRef: txID, Amount: decimal.NewFromInt(1000)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "transaction not found")
	})

	t.Run("RejectedStatus", func(t *testing.T) {
		m := newMidtransReversal(func(string, *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error) {
			return &coreapi.RefundResponse{StatusCode: "412", StatusMessage: "Merchant cannot modify the status"}, nil
		}, nil, nil)
		_, err := m.CreateRefund(context.Background(), models.RefundRequest{ChargeRef: txID, Amount: decimal.NewFromInt(1000)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "412")
	})

	t.Run("NotGenuine", func(t *testing.T) {
		m := newMidtransReversal(nil, nil, nil)
		_, err := m.CreateRefund(context.Background(), models.RefundRequest{ChargeRef: "abc", Amount: decimal.NewFromInt(1000)})
		assert.ErrorIs(t, err, ErrNotGenuineCharge)
	})
}
