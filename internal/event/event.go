package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Entitlement event types
const (
	PlanChanged         Type = domain.EventTypePlanChanged
	StalePlanOverridden Type = domain.EventTypeStalePlanOverridden
	DailyResetRequested Type = domain.EventTypeDailyResetRequested
	Downgraded          Type = domain.EventTypeDowngraded
	PromoRedeemed       Type = domain.EventTypePromoRedeemed
	ReferralRedeemed    Type = domain.EventTypeReferralRedeemed
	AdRewarded          Type = domain.EventTypeAdRewarded
	ActionConsumed      Type = domain.EventTypeActionConsumed
	ActionDenied        Type = domain.EventTypeActionDenied
	PurchaseCompleted   Type = domain.EventTypePurchaseCompleted
	DailyResetComplete  Type = domain.EventTypeDailyResetSweepDone
)

// Typed event payloads

// PlanChangedPayloadV1 is published whenever the effective plan moves
type PlanChangedPayloadV1 struct {
	Identity  string      `json:"identity"`
	OldPlan   domain.Plan `json:"old_plan"`
	NewPlan   domain.Plan `json:"new_plan"`
	Source    string      `json:"source"`
	Timestamp int64       `json:"timestamp"`
}

// StalePlanOverriddenPayloadV1 records a remote plan replaced by the purchase authority
type StalePlanOverriddenPayloadV1 struct {
	Identity        string      `json:"identity"`
	RemotePlan      domain.Plan `json:"remote_plan"`
	EntitlementPlan domain.Plan `json:"entitlement_plan"`
	Timestamp       int64       `json:"timestamp"`
}

// DailyResetRequestedPayloadV1 is published once per identity per day
type DailyResetRequestedPayloadV1 struct {
	Identity   string `json:"identity"`
	Day        string `json:"day"`
	DailyLimit int    `json:"daily_limit"`
	Local      bool   `json:"local"`
}

// DowngradedPayloadV1 is published when a paid plan is revoked
type DowngradedPayloadV1 struct {
	Identity  string      `json:"identity"`
	FromPlan  domain.Plan `json:"from_plan"`
	Remote    bool        `json:"remote"`
	Timestamp int64       `json:"timestamp"`
}

// RedemptionPayloadV1 covers promo and referral redemptions
type RedemptionPayloadV1 struct {
	Identity  string      `json:"identity"`
	Code      string      `json:"code"`
	Plan      domain.Plan `json:"plan"`
	Timestamp int64       `json:"timestamp"`
}

// UsagePayloadV1 covers consumed and denied actions plus ad rewards
type UsagePayloadV1 struct {
	Identity   string `json:"identity"`
	DailyUsed  int    `json:"daily_used"`
	DailyLimit int    `json:"daily_limit"`
	AdRewards  int    `json:"ad_rewards"`
	Timestamp  int64  `json:"timestamp"`
}

// PurchaseCompletedPayloadV1 is published after a purchase lands remotely
type PurchaseCompletedPayloadV1 struct {
	Identity  string               `json:"identity"`
	Family    domain.ProductFamily `json:"family"`
	ProductID string               `json:"product_id"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// DailyResetCompletePayloadV1 is published by the reset worker after a sweep
type DailyResetCompletePayloadV1 struct {
	ResetTime       time.Time `json:"reset_time"`
	RecordsAffected int64     `json:"records_affected"`
}

// Type-safe event constructors

func newEvent(t Type, payload interface{}, identity string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    t,
		Payload: payload,
		Metadata: map[string]interface{}{
			MetadataKeyIdentity: identity,
		},
	}
}

// NewPlanChangedEvent creates a plan changed event
func NewPlanChangedEvent(identity string, oldPlan, newPlan domain.Plan, source string) Event {
	return newEvent(PlanChanged, PlanChangedPayloadV1{
		Identity:  identity,
		OldPlan:   oldPlan,
		NewPlan:   newPlan,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}, identity)
}

// NewStalePlanOverriddenEvent creates a stale plan event
func NewStalePlanOverriddenEvent(identity string, remotePlan, entitlementPlan domain.Plan) Event {
	return newEvent(StalePlanOverridden, StalePlanOverriddenPayloadV1{
		Identity:        identity,
		RemotePlan:      remotePlan,
		EntitlementPlan: entitlementPlan,
		Timestamp:       time.Now().Unix(),
	}, identity)
}

// NewDailyResetRequestedEvent creates a daily reset event
func NewDailyResetRequestedEvent(identity, day string, dailyLimit int, local bool) Event {
	return newEvent(DailyResetRequested, DailyResetRequestedPayloadV1{
		Identity:   identity,
		Day:        day,
		DailyLimit: dailyLimit,
		Local:      local,
	}, identity)
}

// NewDowngradedEvent creates a downgrade event
func NewDowngradedEvent(identity string, from domain.Plan, remote bool) Event {
	return newEvent(Downgraded, DowngradedPayloadV1{
		Identity:  identity,
		FromPlan:  from,
		Remote:    remote,
		Timestamp: time.Now().Unix(),
	}, identity)
}

// NewRedemptionEvent creates a promo or referral redemption event
func NewRedemptionEvent(t Type, identity, code string, plan domain.Plan) Event {
	return newEvent(t, RedemptionPayloadV1{
		Identity:  identity,
		Code:      code,
		Plan:      plan,
		Timestamp: time.Now().Unix(),
	}, identity)
}

// NewUsageEvent creates an action or ad reward event from the current state
func NewUsageEvent(t Type, identity string, s domain.SubscriptionState) Event {
	return newEvent(t, UsagePayloadV1{
		Identity:   identity,
		DailyUsed:  s.DailyUsed,
		DailyLimit: s.DailyLimit,
		AdRewards:  s.AdRewardCount,
		Timestamp:  time.Now().Unix(),
	}, identity)
}

// NewPurchaseCompletedEvent creates a purchase completed event
func NewPurchaseCompletedEvent(identity string, family domain.ProductFamily, productID string, expiresAt *time.Time) Event {
	return newEvent(PurchaseCompleted, PurchaseCompletedPayloadV1{
		Identity:  identity,
		Family:    family,
		ProductID: productID,
		ExpiresAt: expiresAt,
	}, identity)
}

// NewDailyResetCompleteEvent creates a new daily reset complete event
func NewDailyResetCompleteEvent(resetTime time.Time, recordsAffected int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    DailyResetComplete,
		Payload: DailyResetCompletePayloadV1{
			ResetTime:       resetTime,
			RecordsAffected: recordsAffected,
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// Publisher is the fire-and-forget side used by the entitlement engine
type Publisher interface {
	PublishWithRetry(ctx context.Context, event Event)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish runs every handler subscribed to the event type, synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) PublishWithRetry(context.Context, Event) {}
