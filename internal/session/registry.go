// Package session keeps one entitlement engine per live identity.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/metrics"
)

// ErrRegistryClosed is returned by Get after Shutdown
var ErrRegistryClosed = errors.New(ErrMsgRegistryClosed)

// EngineFactory builds an engine with no identity
type EngineFactory func() *entitlement.Engine

// Registry maps identity keys to engines. Idle and overflowing sessions are
// evicted and their engines closed, which cancels the remote subscription.
type Registry struct {
	lru       *expirable.LRU[string, *entitlement.Engine]
	newEngine EngineFactory
	// opening collapses concurrent first requests for one identity
	opening singleflight.Group

	mu      sync.Mutex
	closed  bool
	closing sync.WaitGroup
}

// NewRegistry creates a registry holding at most size sessions for ttl each
func NewRegistry(size int, ttl time.Duration, newEngine EngineFactory) *Registry {
	r := &Registry{newEngine: newEngine}
	r.lru = expirable.NewLRU[string, *entitlement.Engine](size, r.onEvict, ttl)
	return r
}

// Get returns the engine for id, creating and binding one when absent.
// Binding loads the remote document, so it runs outside the registry lock
// and only callers for the same identity wait on it.
func (r *Registry) Get(ctx context.Context, id domain.Identity) (*entitlement.Engine, error) {
	if id.Key == "" {
		return nil, domain.ErrInvalidIdentity
	}

	if engine, ok, err := r.cached(id.Key); ok || err != nil {
		return engine, err
	}

	v, err, _ := r.opening.Do(id.Key, func() (any, error) {
		return r.open(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entitlement.Engine), nil
}

func (r *Registry) cached(key string) (*entitlement.Engine, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrRegistryClosed
	}
	engine, ok := r.lru.Get(key)
	if ok {
		// Re-adding refreshes the idle deadline
		r.lru.Add(key, engine)
	}
	return engine, ok, nil
}

func (r *Registry) open(ctx context.Context, id domain.Identity) (*entitlement.Engine, error) {
	// A flight that finished just before this one may have cached the engine
	if engine, ok, err := r.cached(id.Key); ok || err != nil {
		return engine, err
	}

	engine := r.newEngine()
	if err := engine.SwitchIdentity(ctx, id); err != nil {
		r.closeNow(engine)
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.closeNow(engine)
		return nil, ErrRegistryClosed
	}
	r.lru.Add(id.Key, engine)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(r.lru.Len()))
	logger.FromContext(ctx).Debug(LogMsgSessionOpened, "identity", id.Key)
	return engine, nil
}

// Each calls fn for every live engine
func (r *Registry) Each(fn func(*entitlement.Engine)) {
	for _, engine := range r.lru.Values() {
		fn(engine)
	}
}

// Len reports live sessions
func (r *Registry) Len() int {
	return r.lru.Len()
}

// Remove closes the session for key, if any
func (r *Registry) Remove(key string) bool {
	return r.lru.Remove(key)
}

// Shutdown closes every engine and waits for them to flush
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.lru.Purge()

	done := make(chan struct{})
	go func() {
		r.closing.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.FromContext(ctx).Info(LogMsgRegistryClosed)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onEvict runs under the cache lock, so engines are closed on their own goroutine
func (r *Registry) onEvict(key string, engine *entitlement.Engine) {
	logger.Debug(LogMsgSessionEvicted, "identity", key)
	r.closeAsync(engine)
}

// closeNow closes an engine that never entered the cache
func (r *Registry) closeNow(engine *entitlement.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), EngineCloseTimeout)
	defer cancel()
	if err := engine.Close(ctx); err != nil {
		logger.Warn(LogMsgEngineCloseFailed, "error", err)
	}
}

func (r *Registry) closeAsync(engine *entitlement.Engine) {
	r.closing.Add(1)
	go func() {
		defer r.closing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), EngineCloseTimeout)
		defer cancel()
		if err := engine.Close(ctx); err != nil {
			logger.Warn(LogMsgEngineCloseFailed, "error", err)
		}
		metrics.ActiveSessions.Set(float64(r.lru.Len()))
	}()
}
