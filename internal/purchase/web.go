package purchase

import (
	"context"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// WebProvider stands in for the purchase SDK on non-native runtimes. Every
// call reports domain.ErrPurchasingUnavailable, which the client resolves to
// the unavailable state, so callers route to web checkout.
type WebProvider struct{}

// NewWebProvider returns the web stub
func NewWebProvider() *WebProvider { return &WebProvider{} }

func (WebProvider) Configure(context.Context, ProviderConfig) error { return nil }

func (WebProvider) GetCustomerInfo(context.Context) (*CustomerInfo, error) {
	return nil, domain.ErrPurchasingUnavailable
}

func (WebProvider) PurchasePackage(context.Context, PurchaseRequest) (*CustomerInfo, error) {
	return nil, domain.ErrPurchasingUnavailable
}

func (WebProvider) RestorePurchases(context.Context) (*CustomerInfo, error) {
	return nil, domain.ErrPurchasingUnavailable
}
