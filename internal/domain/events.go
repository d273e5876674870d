package domain

// Event type constants published on the event bus.
//
// Event types follow the pattern: <entity>.<action>
const (
	EventTypePlanChanged         = "entitlement.plan_changed"
	EventTypeStalePlanOverridden = "entitlement.stale_plan_overridden"
	EventTypeDailyResetRequested = "entitlement.daily_reset_requested"
	EventTypeDowngraded          = "entitlement.downgraded"
	EventTypePromoRedeemed       = "entitlement.promo_redeemed"
	EventTypeReferralRedeemed    = "entitlement.referral_redeemed"
	EventTypeAdRewarded          = "entitlement.ad_rewarded"
	EventTypeActionConsumed      = "entitlement.action_consumed"
	EventTypeActionDenied        = "entitlement.action_denied"
	EventTypePurchaseCompleted   = "purchase.completed"
	EventTypeDailyResetSweepDone = "daily_reset.complete"
)
