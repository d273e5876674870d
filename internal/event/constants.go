package event

import "time"

// EventSchemaVersion is stamped on every event
const EventSchemaVersion = "1.0"

// RetryQueueBufferSize bounds events waiting for a retry; overflow is dead-lettered
const RetryQueueBufferSize = 1000

// MetadataKeyIdentity carries the identity key of the session that raised the event
const MetadataKeyIdentity = "identity"

// Dead-letter file
const (
	DeadLetterFilePermissions = 0o644
	DeadLetterMaxLineBytes    = 1 << 20
)

// Log messages
const (
	LogMsgEventPublishFailed    = "Entitlement event publish failed, queued for retry"
	LogMsgRetryQueueFull        = "Event retry queue full, dead-lettering"
	LogMsgDeadLetterWriteFailed = "Failed to write dead-letter entry"
	LogMsgEventRetryExhausted   = "Event out of retries, dead-lettering"
	LogMsgEventRetryFailed      = "Event retry failed"
	LogMsgEventRetrySucceeded   = "Event delivered on retry"
	LogMsgEventDeadLettered     = "Event dead-lettered"
	LogMsgQueueDrainedShutdown  = "Retry queue drained on shutdown"
	LogMsgShutdownTimeout       = "Event publisher shutdown timed out"

	// LogMsgHandlerErrorFormat joins subscriber failures for one event
	LogMsgHandlerErrorFormat = "%d subscriber(s) failed for event %s: %v"
)

// CalculateRetryDelay doubles baseDelay for each attempt after the first
func CalculateRetryDelay(baseDelay time.Duration, attempt int) time.Duration {
	return baseDelay * time.Duration(1<<(attempt-1))
}
