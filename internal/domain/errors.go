package domain

import "errors"

// Error message string constants
const (
	ErrMsgNotLoggedIn            = "sign in required"
	ErrMsgPromoCodeNotFound      = "promo code not found"
	ErrMsgPromoCodeExhausted     = "promo code has no uses left"
	ErrMsgPromoAlreadyRedeemed   = "promo code already redeemed by this user"
	ErrMsgReferralCodeNotFound   = "referral code not found"
	ErrMsgReferralCodeTaken      = "referral code already registered"
	ErrMsgDocumentNotFound       = "entitlement document not found"
	ErrMsgDailyLimitReached      = "daily action limit reached"
	ErrMsgPurchasingUnavailable  = "in-app purchasing is unavailable on this platform"
	ErrMsgPurchaseFailed         = "purchase failed"
	ErrMsgUnknownProduct         = "unknown product"
	ErrMsgCheckoutNotConfigured  = "web checkout is not configured"
	ErrMsgEngineClosed           = "entitlement engine closed"
	ErrMsgInvalidIdentity        = "invalid identity"
	ErrMsgRemoteWriteFailed      = "remote write failed"
	ErrMsgSnapshotDecodeFailed   = "snapshot decode failed"
	ErrMsgAuthorityNotConfigured = "purchase authority is not configured"
)

var (
	ErrNotLoggedIn            = errors.New(ErrMsgNotLoggedIn)
	ErrPromoCodeNotFound      = errors.New(ErrMsgPromoCodeNotFound)
	ErrPromoCodeExhausted     = errors.New(ErrMsgPromoCodeExhausted)
	ErrPromoAlreadyRedeemed   = errors.New(ErrMsgPromoAlreadyRedeemed)
	ErrReferralCodeNotFound   = errors.New(ErrMsgReferralCodeNotFound)
	ErrReferralCodeTaken      = errors.New(ErrMsgReferralCodeTaken)
	ErrDocumentNotFound       = errors.New(ErrMsgDocumentNotFound)
	ErrDailyLimitReached      = errors.New(ErrMsgDailyLimitReached)
	ErrPurchasingUnavailable  = errors.New(ErrMsgPurchasingUnavailable)
	ErrPurchaseFailed         = errors.New(ErrMsgPurchaseFailed)
	ErrUnknownProduct         = errors.New(ErrMsgUnknownProduct)
	ErrCheckoutNotConfigured  = errors.New(ErrMsgCheckoutNotConfigured)
	ErrEngineClosed           = errors.New(ErrMsgEngineClosed)
	ErrInvalidIdentity        = errors.New(ErrMsgInvalidIdentity)
	ErrRemoteWriteFailed      = errors.New(ErrMsgRemoteWriteFailed)
	ErrAuthorityNotConfigured = errors.New(ErrMsgAuthorityNotConfigured)
)
