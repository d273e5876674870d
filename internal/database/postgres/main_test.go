package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/database"
	"github.com/osse101/SmartList_Go/internal/testing/pgtest"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	var container *pgtest.Container
	if !testing.Short() {
		container, testPool = setupDatabase(context.Background())
	}

	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	container.Terminate(context.Background())
	os.Exit(code)
}

// setupDatabase returns a migrated pool, or a nil pool when Docker is unavailable
func setupDatabase(ctx context.Context) (*pgtest.Container, *pgxpool.Pool) {
	container, err := pgtest.Start(ctx)
	if err != nil {
		fmt.Printf("WARNING: integration tests disabled: %v\n", err)
		return nil, nil
	}

	pool, err := database.NewPool(ctx, container.ConnString, database.DefaultPoolConfig(10))
	if err != nil {
		fmt.Printf("WARNING: Failed to connect: %v\n", err)
		return container, nil
	}
	if err := database.Migrate(ctx, pool); err != nil {
		fmt.Printf("WARNING: Failed to migrate: %v\n", err)
		pool.Close()
		return container, nil
	}
	return container, pool
}

func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testPool == nil {
		t.Skip("Skipping integration test: database not available")
	}
	return testPool
}
