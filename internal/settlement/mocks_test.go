package settlement

import (
	"context"

	"festora-be/internal/commission"
	"festora-be/internal/order"
	"festora-be/internal/phonepe"

	"github.com/stretchr/testify/mock"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Create(ctx context.Context, ord *order.Order) error {
	args := m.Called(ctx, ord)
	return args.Error(0)
}

func (m *MockOrderStore) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*order.Order, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderStore) GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderStore) SettleIfPending(ctx context.Context, merchantOrderID string, status order.PaymentStatus, transactionID string) (bool, error) {
	args := m.Called(ctx, merchantOrderID, status, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderStore) MarkFailed(ctx context.Context, merchantOrderID string) (bool, error) {
	args := m.Called(ctx, merchantOrderID)
	return args.Bool(0), args.Error(1)
}

type MockStockStore struct {
	mock.Mock
}

func (m *MockStockStore) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

type MockCommissionStore struct {
	mock.Mock
}

func (m *MockCommissionStore) SellerByToken(ctx context.Context, token string) (*commission.Seller, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Seller), args.Error(1)
}

func (m *MockCommissionStore) Create(ctx context.Context, entry *commission.Entry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckout(ctx context.Context, req phonepe.CheckoutRequest) (*phonepe.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.CheckoutResponse), args.Error(1)
}

func (m *MockGateway) OrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.StatusResponse, error) {
	args := m.Called(ctx, merchantOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.StatusResponse), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, req phonepe.RefundRequest) (*phonepe.RefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.RefundResponse), args.Error(1)
}

func (m *MockGateway) RefundStatus(ctx context.Context, merchantRefundID string) (*phonepe.RefundResponse, error) {
	args := m.Called(ctx, merchantRefundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*phonepe.RefundResponse), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, ord *order.Order) error {
	args := m.Called(ctx, ord)
	return args.Error(0)
}
