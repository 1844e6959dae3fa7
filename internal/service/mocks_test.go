package service

import (
	"context"
	"time"

	"cancelsaga/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) GetBookingView(ctx context.Context, id int64) (*models.BookingView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// копия, чтобы сага не меняла фикстуру между подтестами
	v := *args.Get(0).(*models.BookingView)
	return &v, args.Error(1)
}
func (m *mockBookings) CommitCancellation(ctx context.Context, id int64, reason string, at time.Time) error {
	return m.Called(ctx, id, reason, at).Error(0)
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) IsGenuineCharge(ref string) bool {
	return m.Called(ref).Bool(0)
}
func (m *mockPayments) CreateRefund(ctx context.Context, req models.RefundRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockStock struct {
	mock.Mock
}

func (m *mockStock) IncrementVariantStock(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) AwardPoints(ctx context.Context, userID string, amount int64, reason string, md map[string]any) error {
	return m.Called(ctx, userID, amount, reason, md).Error(0)
}

type mockIntegrations struct {
	mock.Mock
}

func (m *mockIntegrations) GetPartnerIntegration(ctx context.Context, partnerID int64, provider string) (*models.PartnerIntegration, error) {
	args := m.Called(ctx, partnerID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PartnerIntegration), args.Error(1)
}

type mockCanceller struct {
	mock.Mock
}

func (m *mockCanceller) CancelScheduledEvent(ctx context.Context, cred *models.PartnerIntegration, ref models.EventRef, reason string) error {
	return m.Called(ctx, cred, ref, reason).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }
