package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// Config configures a Client
type Config struct {
	Platform    domain.Platform
	APIKey      string
	InitTimeout time.Duration
	// Families maps entitlement identifiers to product families.
	// Defaults to "premium" and "pro".
	Families map[string]domain.ProductFamily
	Now      func() time.Time
}

// Result is the outcome of a purchase. Cancelled is not an error.
type Result struct {
	Success      bool
	Cancelled    bool
	Family       domain.ProductFamily
	ExpiresAt    *time.Time
	Entitlements domain.EntitlementSnapshot
}

// Client drives one purchase-authority session:
// uninitialized -> initializing -> configured-with-entitlements | configured-empty | failed-forced-empty | unavailable.
// A failed initialization is terminal for the session.
type Client struct {
	provider    Provider
	platform    domain.Platform
	apiKey      string
	initTimeout time.Duration
	families    map[string]domain.ProductFamily
	now         func() time.Time

	mu       sync.Mutex
	state    domain.AuthorityState
	snapshot domain.EntitlementSnapshot
	initDone chan struct{}

	// purchaseMu keeps purchases and restores one at a time
	purchaseMu sync.Mutex
}

// NewClient creates a Client. Web platforms always use the stub provider.
func NewClient(provider Provider, cfg Config) *Client {
	if cfg.Platform == domain.PlatformWeb || provider == nil {
		provider = NewWebProvider()
	}
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = DefaultInitTimeout
	}
	if cfg.Families == nil {
		cfg.Families = map[string]domain.ProductFamily{
			EntitlementIDPremium: domain.FamilyPremium,
			EntitlementIDPro:     domain.FamilyPro,
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		provider:    provider,
		platform:    cfg.Platform,
		apiKey:      cfg.APIKey,
		initTimeout: cfg.InitTimeout,
		families:    cfg.Families,
		now:         cfg.Now,
		state:       domain.AuthorityUninitialized,
		snapshot:    domain.EntitlementSnapshot{State: domain.AuthorityUninitialized},
	}
}

// State returns the current session state
func (c *Client) State() domain.AuthorityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveEntitlements returns the last known entitlement snapshot
func (c *Client) ActiveEntitlements() domain.EntitlementSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Initialize configures the provider for appUserID and fetches the active
// entitlements. Safe to call repeatedly; later calls wait for and return the
// first call's outcome. Never blocks longer than the init timeout.
func (c *Client) Initialize(ctx context.Context, appUserID string) domain.EntitlementSnapshot {
	c.mu.Lock()
	switch {
	case c.state.Resolved():
		snap := c.snapshot
		c.mu.Unlock()
		return snap
	case c.state == domain.AuthorityInitializing:
		done := c.initDone
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return c.ActiveEntitlements()
	}
	c.state = domain.AuthorityInitializing
	c.snapshot = domain.EntitlementSnapshot{State: domain.AuthorityInitializing}
	c.initDone = make(chan struct{})
	c.mu.Unlock()

	log := logger.FromContext(ctx)

	type outcome struct {
		info *CustomerInfo
		err  error
	}
	results := make(chan outcome, 1)

	initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.initTimeout)
	defer cancel()

	go func() {
		cfg := ProviderConfig{APIKey: c.apiKey, AppUserID: appUserID, Platform: c.platform}
		if err := c.provider.Configure(initCtx, cfg); err != nil && !errors.Is(err, ErrAlreadyConfigured) {
			results <- outcome{err: fmt.Errorf("%s: %w", ErrMsgConfigureFailed, err)}
			return
		}
		info, err := c.provider.GetCustomerInfo(initCtx)
		results <- outcome{info: info, err: err}
	}()

	var snap domain.EntitlementSnapshot
	select {
	case res := <-results:
		switch {
		case errors.Is(res.err, domain.ErrPurchasingUnavailable):
			log.Info(LogMsgInitUnavailable, "platform", c.platform)
			snap = domain.UnavailableSnapshot()
		case res.err != nil || res.info == nil:
			log.Warn(LogMsgInitFailed, "platform", c.platform, "error", res.err)
			snap = domain.ForcedEmptySnapshot()
		default:
			snap = c.toSnapshot(res.info)
		}
	case <-initCtx.Done():
		log.Warn(LogMsgInitTimedOut, "platform", c.platform, "timeout", c.initTimeout)
		snap = domain.ForcedEmptySnapshot()
	}

	c.mu.Lock()
	c.state = snap.State
	c.snapshot = snap
	close(c.initDone)
	c.mu.Unlock()

	log.Info(LogMsgInitResolved, "state", snap.State, "families", snap.Families())
	return snap
}

// Purchase buys req.ProductID. A dismissed store sheet yields
// Result{Cancelled: true} and a nil error.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (Result, error) {
	if err := c.ready(); err != nil {
		return Result{}, err
	}

	c.purchaseMu.Lock()
	defer c.purchaseMu.Unlock()

	info, err := c.provider.PurchasePackage(ctx, req)
	if errors.Is(err, ErrUserCancelled) {
		logger.FromContext(ctx).Info(LogMsgPurchaseCancelled, "product_id", req.ProductID)
		return Result{Cancelled: true, Entitlements: c.ActiveEntitlements()}, nil
	}
	if errors.Is(err, domain.ErrPurchasingUnavailable) {
		return Result{}, err
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrPurchaseFailed, err)
	}

	snap := c.store(info)
	result := Result{Success: true, Entitlements: snap}

	if e, ok := c.entitlementFor(snap, req.ProductID); ok {
		result.Family = e.Family
		result.ExpiresAt = e.ExpiresAt
	} else {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, req.ProductID)
	}

	logger.FromContext(ctx).Info(LogMsgPurchaseCompleted, "product_id", req.ProductID, "family", result.Family)
	return result, nil
}

// Restore re-fetches entitlements from the store receipts
func (c *Client) Restore(ctx context.Context) (domain.EntitlementSnapshot, error) {
	if err := c.ready(); err != nil {
		return domain.EntitlementSnapshot{}, err
	}

	c.purchaseMu.Lock()
	defer c.purchaseMu.Unlock()

	info, err := c.provider.RestorePurchases(ctx)
	if errors.Is(err, domain.ErrPurchasingUnavailable) {
		return domain.EntitlementSnapshot{}, err
	}
	if err != nil {
		return domain.EntitlementSnapshot{}, fmt.Errorf("%s: %w", ErrMsgRestoreFailed, err)
	}
	return c.store(info), nil
}

func (c *Client) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.AuthorityUnavailable {
		return domain.ErrPurchasingUnavailable
	}
	if c.state == domain.AuthorityUninitialized || c.state == domain.AuthorityInitializing || c.state == domain.AuthorityFailedForcedEmpty {
		return domain.ErrAuthorityNotConfigured
	}
	return nil
}

func (c *Client) store(info *CustomerInfo) domain.EntitlementSnapshot {
	snap := c.toSnapshot(info)
	c.mu.Lock()
	c.state = snap.State
	c.snapshot = snap
	c.mu.Unlock()
	return snap
}

func (c *Client) toSnapshot(info *CustomerInfo) domain.EntitlementSnapshot {
	if info == nil {
		return domain.NewEntitlementSnapshot(nil)
	}
	now := c.now()
	active := make([]domain.Entitlement, 0, len(info.Entitlements))
	for _, e := range info.Entitlements {
		family, ok := c.families[strings.ToLower(e.Identifier)]
		if !ok {
			slog.Default().Debug(LogMsgUnknownEntitlement, "identifier", e.Identifier)
			continue
		}
		if !e.IsActive || (e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)) {
			continue
		}
		active = append(active, domain.Entitlement{
			Family:            family,
			ProductIdentifier: e.ProductIdentifier,
			ExpiresAt:         e.ExpiresAt,
		})
	}
	return domain.NewEntitlementSnapshot(active)
}

// entitlementFor finds the entitlement unlocked by productID, falling back to
// the highest active family when the service does not echo product ids.
func (c *Client) entitlementFor(snap domain.EntitlementSnapshot, productID string) (domain.Entitlement, bool) {
	for _, f := range snap.Families() {
		if e := snap.Entitlements[f]; e.ProductIdentifier == productID {
			return e, true
		}
	}
	return snap.Top()
}
