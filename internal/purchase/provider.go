// Package purchase wraps the third-party purchase/receipt-validation service.
// Initialization never fails from the caller's point of view: any error or a
// slow service resolves to an empty entitlement set.
package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

var (
	// ErrAlreadyConfigured is tolerated by Client.Initialize
	ErrAlreadyConfigured = errors.New("purchase provider already configured")
	// ErrUserCancelled signals the store sheet was dismissed
	ErrUserCancelled = errors.New("purchase cancelled by user")
)

// ProviderConfig identifies the app and customer to the purchase service
type ProviderConfig struct {
	APIKey    string
	AppUserID string
	Platform  domain.Platform
}

// EntitlementInfo is one entitlement as reported by the purchase service
type EntitlementInfo struct {
	Identifier        string
	ProductIdentifier string
	ExpiresAt         *time.Time
	IsActive          bool
}

// CustomerInfo is the purchase service's view of a customer
type CustomerInfo struct {
	Entitlements []EntitlementInfo
}

// PurchaseRequest names the package to buy. FetchToken carries the store
// receipt when the purchase sheet ran outside this process.
type PurchaseRequest struct {
	ProductID  string
	FetchToken string
}

// Provider is the purchase SDK surface this package consumes
type Provider interface {
	Configure(ctx context.Context, cfg ProviderConfig) error
	GetCustomerInfo(ctx context.Context) (*CustomerInfo, error)
	PurchasePackage(ctx context.Context, req PurchaseRequest) (*CustomerInfo, error)
	RestorePurchases(ctx context.Context) (*CustomerInfo, error)
}
