package usage

// Error Messages
const (
	ErrMsgUnknownAction = "unknown action"
)

// Log Messages
const (
	LogMsgActionDenied   = "Action denied, daily limit reached"
	LogMsgActionConsumed = "Action consumed"
	LogMsgActionReleased = "Action failed, allowance returned"
)
