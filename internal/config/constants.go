package config

// Storage backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Defaults
const (
	DefaultPort                = 8080
	DefaultDBMaxConns          = 20
	DefaultSnapshotDBPath      = "data/snapshots.db"
	DefaultRevenueCatBaseURL   = "https://api.revenuecat.com/v1"
	DefaultPurchaseInitTimeout = "3s"
	DefaultTimezone            = "Local"
	DefaultSessionCacheSize    = 10000
	DefaultSessionTTL          = "30m"
	DefaultEventMaxRetries     = 3
	DefaultEventRetryDelay     = "2s"
	DefaultEventDeadLetterPath = "logs/event_deadletter.jsonl"
)

// Error messages
const (
	ErrMsgAPIKeyRequired        = "API_KEY environment variable must be set for security"
	ErrMsgInvalidPort           = "invalid PORT value"
	ErrMsgInvalidStoreBackend   = "invalid STORE_BACKEND value"
	ErrMsgInvalidPlatform       = "invalid PURCHASE_PLATFORM value"
	ErrMsgInvalidTimezone       = "invalid TIMEZONE value"
	ErrMsgMissingPurchaseKey    = "a RevenueCat API key is required for native purchase platforms"
	ErrMsgInvalidInitTimeout    = "PURCHASE_INIT_TIMEOUT must be positive"
	ErrMsgSchemaVersionMissing  = "ENV_SCHEMA_VERSION is not set - please update your .env file to include this field (expected: %s)"
	ErrMsgSchemaVersionMismatch = "ENV_SCHEMA_VERSION mismatch: expected %s, got %s - your .env file may be outdated"
	ErrMsgMissingRequiredVars   = "missing required environment variables: %s"
)
