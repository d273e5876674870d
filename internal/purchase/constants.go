package purchase

import "time"

// DefaultInitTimeout bounds initialization so startup never waits on the service
const DefaultInitTimeout = 3 * time.Second

// Entitlement identifiers configured in the purchase service dashboard
const (
	EntitlementIDPremium = "premium"
	EntitlementIDPro     = "pro"
)

// RevenueCat REST API
const (
	RevenueCatSubscribersPath = "/subscribers/"
	RevenueCatReceiptsPath    = "/receipts"
	RevenueCatPlatformHeader  = "X-Platform"
	RevenueCatHTTPTimeout     = 10 * time.Second
)

// Error Messages
const (
	ErrMsgConfigureFailed  = "configure purchase provider"
	ErrMsgRestoreFailed    = "restore purchases"
	ErrMsgMissingAPIKey    = "purchase provider api key is required"
	ErrMsgMissingAppUserID = "purchase provider app user id is required"
	ErrMsgNotConfigured    = "purchase provider not configured"
	ErrMsgUnexpectedStatus = "unexpected status from purchase service"
	ErrMsgDecodeResponse   = "decode purchase service response"
	ErrMsgBuildRequest     = "build purchase service request"
	ErrMsgRequestFailed    = "purchase service request failed"
)

// Log Messages
const (
	LogMsgInitFailed         = "Purchase authority initialization failed, continuing with no entitlements"
	LogMsgInitTimedOut       = "Purchase authority initialization timed out, continuing with no entitlements"
	LogMsgInitResolved       = "Purchase authority initialized"
	LogMsgInitUnavailable    = "No purchase authority on this platform, remote plan stands"
	LogMsgPurchaseCancelled  = "Purchase cancelled by user"
	LogMsgPurchaseCompleted  = "Purchase completed"
	LogMsgUnknownEntitlement = "Ignoring unknown entitlement identifier"
)
