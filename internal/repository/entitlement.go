package repository

import (
	"context"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// DocumentHandler receives full-document snapshots. A nil document means the
// user has no record yet.
type DocumentHandler func(doc *domain.EntitlementDocument)

// Unsubscribe cancels a live document subscription. Safe to call more than once.
type Unsubscribe func()

// EntitlementDocuments defines the per-user remote entitlement record
type EntitlementDocuments interface {
	// Get returns nil, nil when the user has no document
	Get(ctx context.Context, userID string) (*domain.EntitlementDocument, error)

	// Patch merges fields into the subscription object, creating the document when absent
	Patch(ctx context.Context, userID string, fields domain.SubscriptionPatch) error

	// Subscribe delivers the current document, then every later change including
	// this process's own writes. Callbacks for one subscription never run concurrently.
	Subscribe(ctx context.Context, userID string, onChange DocumentHandler) (Unsubscribe, error)
}

// PromoCodes defines the shared promo-code collection
type PromoCodes interface {
	// GetPromoCode returns domain.ErrPromoCodeNotFound for unknown codes
	GetPromoCode(ctx context.Context, code string) (*domain.PromoCode, error)

	// RedeemPromoCode atomically increments used_count and records the redemption.
	// Returns domain.ErrPromoCodeExhausted when no use is left at commit time.
	RedeemPromoCode(ctx context.Context, code, userID string) (*domain.PromoCode, error)
}

// PromoCatalog seeds promo codes from operator-maintained configuration
type PromoCatalog interface {
	// UpsertPromoCode inserts code or updates its terms. used_count is never
	// reset by an update. Reports whether the code was new.
	UpsertPromoCode(ctx context.Context, code domain.PromoCode) (bool, error)
}

// Referrals defines the global referral-code registry
type Referrals interface {
	// GetReferralOwner returns domain.ErrReferralCodeNotFound for unknown codes
	GetReferralOwner(ctx context.Context, code string) (string, error)

	// RegisterReferralCode replaces the owner's code. Returns
	// domain.ErrReferralCodeTaken when another owner holds code.
	RegisterReferralCode(ctx context.Context, ownerUserID, code string) error
}
