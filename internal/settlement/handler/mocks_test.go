package handler

import (
	"context"

	"festora-be/internal/order"
	"festora-be/internal/phonepe"
	"festora-be/internal/settlement"

	"github.com/stretchr/testify/mock"
)

type MockOrderLookup struct {
	mock.Mock
}

func (m *MockOrderLookup) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*order.Order, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderLookup) GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockStatusGateway struct {
	mock.Mock
}

func (m *MockStatusGateway) OrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.StatusResponse, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.StatusResponse), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Apply(ctx context.Context, ord *order.Order, transactionID string) (*order.Order, error) {
	args := m.Called(ctx, ord, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockReconciler) MarkFailed(ctx context.Context, ord *order.Order, reason string) error {
	args := m.Called(ctx, ord, reason)
	return args.Error(0)
}

type MockAuthVerifier struct {
	mock.Mock
}

func (m *MockAuthVerifier) VerifyWebhookAuth(authorization string) error {
	args := m.Called(authorization)
	return args.Error(0)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) InitiateCheckout(ctx context.Context, draft settlement.CheckoutDraft) (*settlement.CheckoutResult, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) Refund(ctx context.Context, merchantOrderID string, amount float64) (*phonepe.RefundResponse, error) {
	args := m.Called(ctx, merchantOrderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.RefundResponse), args.Error(1)
}

func (m *MockCheckoutService) RefundStatus(ctx context.Context, merchantRefundID string) (*phonepe.RefundResponse, error) {
	args := m.Called(ctx, merchantRefundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.RefundResponse), args.Error(1)
}
