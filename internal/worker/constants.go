package worker

import "time"

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Daily Reset Worker
// ============================================================================

// Scheduling parameters for the daily reset sweep
const (
	StandbyThreshold = time.Hour
	StandbyLead      = 45 * time.Minute
	JitterTolerance  = 10 * time.Second
	SweepWorkers     = 4
	SweepQueueSize   = 64
)

// Log messages for daily reset worker operations
const (
	LogMsgDailyResetStarting        = "Daily reset sweep starting"
	LogMsgDailyResetCompleted       = "Daily reset sweep completed"
	LogMsgDailyResetStandby         = "Daily reset standby, waiting for final approach"
	LogMsgDailyResetApproach        = "Daily reset scheduled"
	LogMsgDailyResetShutdown        = "Shutting down daily reset worker"
	LogMsgDailyResetShutdownDone    = "Daily reset worker shutdown complete"
	LogMsgDailyResetShutdownTimeout = "Daily reset worker shutdown timeout, a sweep may still be running"
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount      = 2
	TestQueueSize        = 10
	TestExpectedJobCount = 2
)
