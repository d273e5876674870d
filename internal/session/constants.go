package session

import "time"

// EngineCloseTimeout bounds how long an evicted engine may take to flush
const EngineCloseTimeout = 5 * time.Second

// Error Messages
const (
	ErrMsgRegistryClosed = "session registry closed"
)

// Log Messages
const (
	LogMsgSessionOpened     = "Entitlement session opened"
	LogMsgSessionEvicted    = "Entitlement session evicted"
	LogMsgEngineCloseFailed = "Failed to close entitlement engine"
	LogMsgRegistryClosed    = "Session registry closed"
)
