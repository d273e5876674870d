package snapshot

const (
	// KeyPrefix namespaces snapshot keys in the device store
	KeyPrefix       = "subscription:"
	SnapshotVersion = 1
	privateDirPerm  = 0o700
)

// SQL Query Constants
const (
	SQLCreateSnapshotTable = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	SQLSelectSnapshot = `SELECT value FROM kv WHERE key = ?`

	SQLUpsertSnapshot = `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
)

// Error Messages
const (
	ErrMsgPathRequired   = "snapshot database path is required"
	ErrMsgCreateDir      = "create snapshot dir"
	ErrMsgOpenDB         = "open snapshot db"
	ErrMsgInitSchema     = "init snapshot schema"
	ErrMsgReadSnapshot   = "read snapshot"
	ErrMsgWriteSnapshot  = "write snapshot"
	ErrMsgEncodeSnapshot = "encode snapshot"
)

// Log Messages
const (
	LogMsgSnapshotCorrupt = "Stored subscription snapshot could not be decoded, using trial defaults"
)
