package entitlement

// Merge sources, carried on plan_changed events
const (
	SourceRemote    = "remote"
	SourceAuthority = "authority"
	SourceUpgrade   = "upgrade"
	SourceDowngrade = "downgrade"
	SourcePromo     = "promo"
	SourceSnapshot  = "snapshot"
	SourceUsage     = "usage"
	SourceReferral  = "referral"
)

// DefaultPromoDurationDays applies when a promo code does not set a duration
const DefaultPromoDurationDays = 30

// MaxReferralCodeAttempts bounds retries when a generated code collides
const MaxReferralCodeAttempts = 5

// Redemption messages
const (
	MsgPromoApplied        = "Promo code applied"
	MsgReferralApplied     = "Referral code applied"
	MsgAdRewarded          = "Bonus actions added"
	MsgPromoAlreadyUsed    = "A promo code has already been used on this account"
	MsgReferralAlreadyUsed = "A referral code has already been used on this account"
	MsgNotLoggedIn         = "Sign in to redeem codes"
	MsgCodeNotFound        = "Code not found"
	MsgPromoInactive       = "This promo code is no longer active"
	MsgPromoExhausted      = "This promo code has reached its usage limit"
	MsgPromoExpired        = "This promo code has expired"
	MsgCodeEmpty           = "Enter a code"
	MsgSelfReferral        = "You cannot redeem your own referral code"
	MsgAdNotEligible       = "Rewarded ads are only available on the free plan"
	MsgTryAgain            = "Something went wrong, please try again"
)

// Error Messages
const (
	ErrMsgSubscribeFailed  = "subscribe to entitlement document"
	ErrMsgPatchFailed      = "patch entitlement document"
	ErrMsgLookupFailed     = "look up code"
	ErrMsgReferralRegister = "register referral code"
	ErrMsgReferralGenerate = "generate referral code"
	ErrMsgCodeSpaceFull    = "could not find a free referral code"
)

// Log Messages
const (
	LogMsgIdentitySwitched    = "Entitlement identity switched"
	LogMsgStaleCallback       = "Discarding callback from superseded identity"
	LogMsgStalePlanOverridden = "Stale remote plan, overridden locally"
	LogMsgRemoteMissing       = "No entitlement document, initializing"
	LogMsgRemoteInitFailed    = "Failed to initialize entitlement document"
	LogMsgSeededFromSnapshot  = "Seeding entitlement document from snapshot"
	LogMsgDailyResetPatch     = "Requesting daily reset"
	LogMsgDailyResetFailed    = "Daily reset patch failed, will retry on next change"
	LogMsgDailyResetLocal     = "Applied daily reset locally"
	LogMsgDowngradeWrite      = "Purchase authority reports no entitlements, downgrading"
	LogMsgDowngradeFailed     = "Failed to write downgrade"
	LogMsgCounterPatchFailed  = "Failed to sync usage counters, keeping local state"
	LogMsgSnapshotSaveFailed  = "Failed to save entitlement snapshot"
	LogMsgSnapshotLoadFailed  = "Failed to load entitlement snapshot"
	LogMsgGrantWriteFailed    = "Entitlement grant was not persisted"
	LogMsgPromoResumed        = "Promo already recorded for this user, completing grant"
	LogMsgOwnerBonusFailed    = "Failed to credit referral owner"
	LogMsgReferralCollision   = "Referral code collision, retrying"
	LogMsgPlanChanged         = "Plan changed"
	LogMsgForcedFree          = "Purchase authority unavailable, gating as free"
	LogMsgEngineClosed        = "Entitlement engine closed"
	LogMsgActionReleased      = "Released action after failed work"
	LogMsgGrantPending        = "Purchase completed but the grant was not persisted, receipt still applies"
)
