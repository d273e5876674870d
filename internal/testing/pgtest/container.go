// Package pgtest starts a disposable Postgres for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Image is the Postgres image the integration suites run against
const Image = "postgres:15-alpine"

const startupTimeout = 30 * time.Second

// Container is a running test database
type Container struct {
	ConnString string
	terminate  func(context.Context) error
}

// Start launches a container. It returns an error instead of panicking when
// no Docker daemon is reachable, so callers can skip their suite.
func Start(ctx context.Context) (c *Container, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	pg, err := postgres.Run(ctx, Image,
		postgres.WithDatabase("smartlist_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("container connection string: %w", err)
	}

	return &Container{
		ConnString: connStr,
		terminate:  func(ctx context.Context) error { return pg.Terminate(ctx) },
	}, nil
}

// Terminate stops the container. Safe on a nil receiver.
func (c *Container) Terminate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate postgres container: %v\n", err)
	}
}
