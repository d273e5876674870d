package bootstrap

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/database/postgres"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/server"
	"github.com/osse101/SmartList_Go/internal/session"
	"github.com/osse101/SmartList_Go/internal/snapshot"
	"github.com/osse101/SmartList_Go/internal/worker"
)

// ShutdownComponents holds everything that needs an orderly stop. Nil
// fields are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	DailyResetWorker   *worker.DailyResetWorker
	Sessions           *session.Registry
	Feed               *postgres.DocumentFeed
	ResilientPublisher *event.ResilientPublisher
	DBPool             *pgxpool.Pool
	SnapshotKV         *snapshot.SQLiteKV
}

// GracefulShutdown stops components in dependency order:
// HTTP server, daily reset worker, sessions (closing engines and their
// subscriptions), document feed, event publisher, then storage.
// Errors are logged and never stop the sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.DailyResetWorker != nil {
		shutdownComponent(ctx, ComponentDailyResetWorker, c.DailyResetWorker)
	}

	if c.Sessions != nil {
		shutdownComponent(ctx, ComponentSessions, c.Sessions)
	}

	if c.Feed != nil {
		if err := c.Feed.Stop(ctx); err != nil {
			slog.Error(ComponentFeed+LogMsgShutdownFailed, "error", err)
		}
	}

	if c.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		shutdownComponent(ctx, ComponentPublisher, c.ResilientPublisher)
	}

	if c.DBPool != nil {
		c.DBPool.Close()
	}
	if c.SnapshotKV != nil {
		if err := c.SnapshotKV.Close(); err != nil {
			slog.Error(ComponentSnapshots+LogMsgShutdownFailed, "error", err)
		}
	}

	slog.Info(LogMsgServerStopped)
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func shutdownComponent(ctx context.Context, name string, s shutdowner) {
	if err := s.Shutdown(ctx); err != nil {
		slog.Error(name+LogMsgShutdownFailed, "error", err)
	}
}
