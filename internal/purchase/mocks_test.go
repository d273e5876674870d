package purchase

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider implements Provider for testing
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Configure(ctx context.Context, cfg ProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockProvider) GetCustomerInfo(ctx context.Context) (*CustomerInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CustomerInfo), args.Error(1)
}

func (m *MockProvider) PurchasePackage(ctx context.Context, req PurchaseRequest) (*CustomerInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CustomerInfo), args.Error(1)
}

func (m *MockProvider) RestorePurchases(ctx context.Context) (*CustomerInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CustomerInfo), args.Error(1)
}
