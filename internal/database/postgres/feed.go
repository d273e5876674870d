package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// DocumentFeed turns entitlement_documents NOTIFY events into per-user
// full-document snapshots. One pooled connection is held for LISTEN.
type DocumentFeed struct {
	db *pgxpool.Pool

	mu     sync.Mutex
	subs   map[string]map[uint64]*feedSubscriber
	nextID uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type feedSubscriber struct {
	userID  string
	handler repository.DocumentHandler

	// mu serializes deliveries so one subscriber never sees callbacks concurrently
	mu        sync.Mutex
	closed    bool
	delivered bool
	lastSeen  time.Time
}

// NewDocumentFeed creates a feed; call Start before subscribing
func NewDocumentFeed(db *pgxpool.Pool) *DocumentFeed {
	return &DocumentFeed{
		db:   db,
		subs: make(map[string]map[uint64]*feedSubscriber),
	}
}

// Start acquires the LISTEN connection and begins dispatching
func (f *DocumentFeed) Start(ctx context.Context) error {
	conn, err := f.listen(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})

	go f.run(runCtx, conn)

	slog.Default().Info(LogMsgFeedStarted, "channel", NotifyChannel)
	return nil
}

// Stop ends the listen loop and waits for it to exit or ctx to expire
func (f *DocumentFeed) Stop(ctx context.Context) error {
	if f.cancel == nil {
		return nil
	}
	f.cancel()

	select {
	case <-f.done:
		slog.Default().Info(LogMsgFeedStopped)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers handler for userID and delivers the current document
// (or nil) before returning.
func (f *DocumentFeed) Subscribe(ctx context.Context, userID string, handler repository.DocumentHandler) (repository.Unsubscribe, error) {
	sub := &feedSubscriber{userID: userID, handler: handler}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[uint64]*feedSubscriber)
	}
	f.subs[userID][id] = sub
	f.mu.Unlock()

	unsubscribe := func() {
		f.mu.Lock()
		if m := f.subs[userID]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(f.subs, userID)
			}
		}
		f.mu.Unlock()

		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
	}

	doc, err := loadDocument(ctx, f.db, userID)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	sub.deliver(doc)

	return unsubscribe, nil
}

func (f *DocumentFeed) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := f.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToAcquireListenConn, err)
	}
	if _, err := conn.Exec(ctx, SQLListen); err != nil {
		conn.Release()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListen, err)
	}
	return conn, nil
}

func (f *DocumentFeed) run(ctx context.Context, conn *pgxpool.Conn) {
	defer close(f.done)
	defer func() {
		if conn != nil {
			// The session still has LISTEN active; do not hand it back to the pool.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}
	}()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err == nil {
			f.dispatch(ctx, n.Payload)
			continue
		}
		if ctx.Err() != nil {
			return
		}

		slog.Default().Warn(LogMsgFeedConnectionLost, "error", err)
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		conn = f.reconnect(ctx)
		if conn == nil {
			return
		}
		// Notifications may have been missed while disconnected.
		f.resync(ctx)
	}
}

func (f *DocumentFeed) reconnect(ctx context.Context) *pgxpool.Conn {
	delay := FeedReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		conn, err := f.listen(ctx)
		if err == nil {
			slog.Default().Info(LogMsgFeedReconnected)
			return conn
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		delay *= 2
		if delay > FeedMaxReconnectWait {
			delay = FeedMaxReconnectWait
		}
	}
}

func (f *DocumentFeed) subscribersFor(userID string) []*feedSubscriber {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.subs[userID]
	out := make([]*feedSubscriber, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

func (f *DocumentFeed) dispatch(ctx context.Context, userID string) {
	subs := f.subscribersFor(userID)
	if len(subs) == 0 {
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, FeedLoadTimeout)
	defer cancel()

	doc, err := loadDocument(loadCtx, f.db, userID)
	if err != nil {
		slog.Default().Warn(LogMsgFeedLoadFailed, "user_id", userID, "error", err)
		return
	}

	for _, s := range subs {
		s.deliver(doc)
	}
}

func (f *DocumentFeed) resync(ctx context.Context) {
	f.mu.Lock()
	users := make([]string, 0, len(f.subs))
	for userID := range f.subs {
		users = append(users, userID)
	}
	f.mu.Unlock()

	for _, userID := range users {
		f.dispatch(ctx, userID)
	}
}

// deliver hands doc to the handler unless it is older than what was already seen
func (s *feedSubscriber) deliver(doc *domain.EntitlementDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if doc == nil {
		if s.delivered {
			return
		}
	} else if s.delivered && doc.UpdatedAt.Before(s.lastSeen) {
		slog.Default().Debug(LogMsgFeedStaleSkipped, "user_id", s.userID)
		return
	}

	s.delivered = true
	if doc != nil {
		s.lastSeen = doc.UpdatedAt
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error(LogMsgFeedHandlerPanicked, "user_id", s.userID, "panic", r)
		}
	}()
	s.handler(doc)
}
