package entitlement

import (
	"context"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/purchase"
)

// PurchaseProduct buys through the purchase authority, feeds the new
// entitlements into the merge and records the upgrade with the receipt
// expiry. A dismissed store sheet returns Cancelled and changes nothing.
func (e *Engine) PurchaseProduct(ctx context.Context, req purchase.PurchaseRequest, period domain.BillingPeriod) (PurchaseOutcome, error) {
	auth, id, gen, err := e.authoritySession()
	if err != nil {
		return PurchaseOutcome{}, err
	}

	res, err := auth.Purchase(ctx, req)
	if err != nil {
		return PurchaseOutcome{}, err
	}
	if res.Cancelled {
		return PurchaseOutcome{Cancelled: true}, nil
	}

	// The new entitlements go in before the grant write, whose echo would
	// otherwise meet the old empty set and be downgraded. If the write fails
	// the paid plan stays visible, backed by the store receipt alone.
	e.onEntitlements(ctx, gen, res.Entitlements)

	plan := res.Family.Plan()
	if err := e.upgrade(ctx, plan, period, res.ExpiresAt, SourceAuthority); err != nil {
		logger.FromContext(ctx).Warn(LogMsgGrantPending, "family", res.Family, "error", err)
		return PurchaseOutcome{}, err
	}

	e.publisher.PublishWithRetry(ctx, event.NewPurchaseCompletedEvent(id.Key, res.Family, req.ProductID, res.ExpiresAt))
	return PurchaseOutcome{Success: true, Plan: plan, ExpiresAt: res.ExpiresAt}, nil
}

// RestorePurchases re-reads entitlements from store receipts and re-merges
func (e *Engine) RestorePurchases(ctx context.Context) (domain.EntitlementSnapshot, error) {
	auth, _, gen, err := e.authoritySession()
	if err != nil {
		return domain.EntitlementSnapshot{}, err
	}

	snap, err := auth.Restore(ctx)
	if err != nil {
		return domain.EntitlementSnapshot{}, err
	}
	e.onEntitlements(ctx, gen, snap)
	return snap, nil
}

func (e *Engine) authoritySession() (Authority, domain.Identity, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed || e.generation == 0:
		return nil, domain.Identity{}, 0, domain.ErrEngineClosed
	case e.identity.IsGuest():
		return nil, domain.Identity{}, 0, domain.ErrNotLoggedIn
	case e.authority == nil:
		return nil, domain.Identity{}, 0, domain.ErrPurchasingUnavailable
	}
	return e.authority, e.identity, e.generation, nil
}
