package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/event"
)

// InitializeEventSystem builds the in-memory bus and the resilient publisher
// the engines publish through. Unset retry settings take the package defaults.
func InitializeEventSystem(cfg *config.Config) (event.Bus, *event.ResilientPublisher, error) {
	maxRetries := orDefault(cfg.EventMaxRetries, EventDefaultMaxRetries)
	retryDelay := orDefault(cfg.EventRetryDelay, EventDefaultRetryDelay)
	deadLetterPath := orDefault(cfg.EventDeadLetterPath, EventDefaultDeadLetterPath)

	if err := os.MkdirAll(filepath.Dir(deadLetterPath), DirPermission); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
	}

	bus := event.NewMemoryBus()
	publisher, err := event.NewResilientPublisher(bus, maxRetries, retryDelay, deadLetterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateResilientPublisher, err)
	}

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", maxRetries,
		"retry_delay", retryDelay,
		"deadletter_path", deadLetterPath)
	return bus, publisher, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
