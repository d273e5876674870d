package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingIdentity       = "X-User-ID or X-Device-ID header is required"

	ErrMsgSessionFailed        = "Failed to open subscription session"
	ErrMsgReferralCodeFailed   = "Failed to issue referral code"
	ErrMsgPurchaseFailed       = "Purchase failed"
	ErrMsgRestoreFailed        = "Failed to restore purchases"
	ErrMsgCheckoutFailed       = "Failed to start checkout"
	ErrMsgActionFailed         = "Failed to perform action"
	ErrMsgUnknownAction        = "Unknown action"
	ErrMsgDailyResetNotRunning = "Daily reset worker is not running"
)

// Log messages
const (
	LogMsgSessionFailed      = "Failed to open session"
	LogMsgServiceError       = "Request failed"
	LogMsgActionDenied       = "Action denied by daily limit"
	LogMsgPurchaseCompleted  = "Purchase completed"
	LogMsgPurchaseCancelled  = "Purchase cancelled"
	LogMsgCheckoutCreated    = "Checkout session created"
	LogMsgManualDailyReset   = "Manual daily reset triggered"
	LogMsgDailyResetComplete = "Manual daily reset completed"
	LogMsgReadinessFailed    = "Readiness check failed"
	LogMsgDecodeFailed       = "Failed to decode request"
)

// Request headers carrying the caller identity
const (
	HeaderUserID   = "X-User-ID"
	HeaderDeviceID = "X-Device-ID"
)

// Health statuses
const (
	HealthStatusOK          = "ok"
	HealthStatusUnavailable = "unavailable"
)
