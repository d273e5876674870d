package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/purchase"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoreBackend:        config.StoreBackendMemory,
		SnapshotDBPath:      filepath.Join(dir, "snapshots.db"),
		PurchasePlatform:    domain.PlatformWeb,
		PurchaseInitTimeout: time.Second,
		Location:            time.UTC,
		EventDeadLetterPath: filepath.Join(dir, "logs", "deadletter.jsonl"),
	}
}

func TestInitializeRepositories_Memory(t *testing.T) {
	repos, err := InitializeRepositories(context.Background(), testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, repos.Documents)
	assert.NotNil(t, repos.Promos)
	assert.NotNil(t, repos.Referrals)
	assert.NotNil(t, repos.Catalog)
	assert.Nil(t, repos.Pool)
	assert.Nil(t, repos.Feed)
}

func TestSyncPromoCatalog(t *testing.T) {
	ctx := context.Background()
	repos, err := InitializeRepositories(ctx, testConfig(t))
	require.NoError(t, err)

	t.Run("empty path skips", func(t *testing.T) {
		assert.NoError(t, SyncPromoCatalog(ctx, "", repos.Catalog))
	})

	t.Run("seeds codes readable by redemption", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "promos.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"promo_codes": [{"code": "seeded", "plan": "pro", "duration_days": 14, "max_uses": 2}]}`), 0o644))

		require.NoError(t, SyncPromoCatalog(ctx, path, repos.Catalog))

		promo, err := repos.Promos.GetPromoCode(ctx, "SEEDED")
		require.NoError(t, err)
		assert.Equal(t, domain.PlanPro, promo.Plan)
		assert.Equal(t, 14, promo.DurationDays)
	})

	t.Run("invalid catalog fails startup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "promos.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"promo_codes": [{"code": "X"}]}`), 0o644))

		assert.Error(t, SyncPromoCatalog(ctx, path, repos.Catalog))
	})
}

func TestInitializeSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite file", func(t *testing.T) {
		cfg := testConfig(t)
		store, kv, err := InitializeSnapshots(cfg)
		require.NoError(t, err)
		require.NotNil(t, kv)
		t.Cleanup(func() { _ = kv.Close() })

		require.NoError(t, store.Save(ctx, "u1", domain.SubscriptionState{Plan: domain.PlanPro, DailyLimit: -1}))
		got, err := store.Load(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.PlanPro, got.Plan)
		assert.NoError(t, kv.Ping(ctx))
	})

	t.Run("empty path stays in memory", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SnapshotDBPath = ""
		store, kv, err := InitializeSnapshots(cfg)
		require.NoError(t, err)
		assert.Nil(t, kv)
		assert.NotNil(t, store)
	})
}

func TestNewAuthorityFactory_Web(t *testing.T) {
	factory := NewAuthorityFactory(testConfig(t))

	first, second := factory(), factory()
	assert.NotSame(t, first, second)

	snap := first.Initialize(context.Background(), "u1")
	assert.Equal(t, domain.AuthorityUnavailable, snap.State)

	_, err := first.Purchase(context.Background(), purchase.PurchaseRequest{ProductID: "pro_monthly"})
	assert.Error(t, err)
}

func TestInitializeEventSystem(t *testing.T) {
	cfg := testConfig(t)
	bus, publisher, err := InitializeEventSystem(cfg)
	require.NoError(t, err)
	require.NoError(t, RegisterEventHandlers(bus))

	received := make(chan event.Event, 1)
	bus.Subscribe(event.PromoRedeemed, func(_ context.Context, evt event.Event) error {
		received <- evt
		return nil
	})

	publisher.PublishWithRetry(context.Background(), event.NewRedemptionEvent(event.PromoRedeemed, "u1", "LAUNCH", domain.PlanPremium))

	select {
	case evt := <-received:
		assert.Equal(t, event.PromoRedeemed, evt.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	require.NoError(t, publisher.Shutdown(context.Background()))
}

func TestGracefulShutdown_SkipsMissingComponents(t *testing.T) {
	assert.NotPanics(t, func() {
		GracefulShutdown(context.Background(), ShutdownComponents{})
	})
}
