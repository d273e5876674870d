package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/SmartList_Go/internal/promo"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// SyncPromoCatalog loads the promo catalog at path, validates it and upserts
// every code into store. An empty path skips the sync.
func SyncPromoCatalog(ctx context.Context, path string, store repository.PromoCatalog) error {
	if path == "" {
		slog.Info(LogMsgPromoCatalogSkipped)
		return nil
	}

	slog.Info(LogMsgSyncingPromoCatalog, "path", path)
	loader := promo.NewLoader()

	catalog, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load promo catalog: %w", err)
	}
	if err := loader.Validate(catalog); err != nil {
		return fmt.Errorf("invalid promo catalog: %w", err)
	}

	result, err := loader.SyncToStore(ctx, catalog, store)
	if err != nil {
		return fmt.Errorf("failed to sync promo catalog: %w", err)
	}

	slog.Info(LogMsgPromoCatalogSynced,
		"inserted", result.Inserted,
		"updated", result.Updated)
	return nil
}
