package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/database"
	"github.com/osse101/SmartList_Go/internal/database/memory"
	"github.com/osse101/SmartList_Go/internal/database/postgres"
	"github.com/osse101/SmartList_Go/internal/repository"
	"github.com/osse101/SmartList_Go/internal/snapshot"
)

// Repositories holds the remote stores the engines reconcile against.
// Pool and Feed are nil for the memory backend.
type Repositories struct {
	Documents repository.EntitlementDocuments
	Promos    repository.PromoCodes
	Catalog   repository.PromoCatalog
	Referrals repository.Referrals
	Pool      *pgxpool.Pool
	Feed      *postgres.DocumentFeed
}

// InitializeRepositories connects the configured backend. For postgres it
// applies migrations and starts the change feed before returning.
func InitializeRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		slog.Warn(LogMsgMemoryBackend)
		promos := memory.NewPromoStore()
		return &Repositories{
			Documents: memory.NewDocumentStore(),
			Promos:    promos,
			Catalog:   promos,
			Referrals: memory.NewReferralStore(),
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.GetDBConnString(), database.DefaultPoolConfig(cfg.DBMaxConns))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	feed := postgres.NewDocumentFeed(pool)
	if err := feed.Start(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedStartFeed, err)
	}

	promos := postgres.NewPromoRepository(pool)
	return &Repositories{
		Documents: postgres.NewDocumentRepository(pool, feed),
		Promos:    promos,
		Catalog:   promos,
		Referrals: postgres.NewReferralRepository(pool),
		Pool:      pool,
		Feed:      feed,
	}, nil
}

// InitializeSnapshots opens the local snapshot store. An empty path keeps
// snapshots in memory; kv is then nil.
func InitializeSnapshots(cfg *config.Config) (*snapshot.Store, *snapshot.SQLiteKV, error) {
	opts := []snapshot.Option{snapshot.WithClock(nil, cfg.Location)}
	if cfg.SnapshotDBPath == "" {
		return snapshot.NewStore(snapshot.NewMemoryKV(), opts...), nil, nil
	}

	kv, err := snapshot.OpenSQLiteKV(cfg.SnapshotDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenSnapshots, err)
	}
	slog.Info(LogMsgSnapshotsOpened, "path", cfg.SnapshotDBPath)
	return snapshot.NewStore(kv, opts...), kv, nil
}
