package bootstrap

import "time"

// DirPermission is used when creating data and log directories
const DirPermission = 0o755

// RevenueCatHTTPTimeout bounds each call to the purchase service
const RevenueCatHTTPTimeout = 10 * time.Second

// Event system defaults
const (
	EventDefaultMaxRetries     = 5
	EventDefaultRetryDelay     = 2 * time.Second
	EventDefaultDeadLetterPath = "logs/event_deadletter.jsonl"
)

// Startup log and error messages
const (
	LogMsgStarting                       = "Starting SmartList entitlement service"
	LogMsgEventSystemInitialized         = "Event system initialized"
	LogMsgFailedCreateDeadLetterDir      = "failed to create dead-letter directory"
	LogMsgFailedCreateResilientPublisher = "failed to create resilient publisher"
	LogMsgMemoryBackend                  = "Using in-memory stores; data is lost on restart"
	LogMsgSnapshotsOpened                = "Snapshot store opened"
	LogMsgAuthorityConfigured            = "Purchase authority configured"
	LogMsgMetricsCollectorRegistered     = "Metrics collector registered"
	LogMsgEventLoggerInitialized         = "Event audit log initialized"
	LogMsgEntitlementEvent               = "Entitlement event"
	ErrMsgFailedRegisterMetrics          = "failed to register metrics collector"
	ErrMsgFailedStartFeed                = "failed to start document feed"
	ErrMsgFailedOpenSnapshots            = "failed to open snapshot store"
	LogMsgSyncingPromoCatalog            = "Syncing promo catalog..."
	LogMsgPromoCatalogSynced             = "Promo catalog synced"
	LogMsgPromoCatalogSkipped            = "No promo catalog configured, sync skipped"
)

// Shutdown messages
const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgShutdownFailed             = " shutdown failed"

	ComponentDailyResetWorker = "daily reset worker"
	ComponentSessions         = "session registry"
	ComponentFeed             = "document feed"
	ComponentPublisher        = "event publisher"
	ComponentSnapshots        = "snapshot store"
)
