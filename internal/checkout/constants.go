package checkout

// Checkout session metadata keys
const (
	MetadataUserID = "user_id"
	MetadataFamily = "family"
	MetadataPeriod = "period"
)

// Error Messages
const (
	ErrMsgCreateSession = "create checkout session"
	ErrMsgMissingURL    = "checkout session has no URL"
)

// Log Messages
const (
	LogMsgSessionCreated = "Checkout session created"
	LogMsgSessionFailed  = "Checkout session creation failed"
)
