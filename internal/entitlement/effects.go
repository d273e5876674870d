package entitlement

import (
	"context"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// effects collects the I/O decided under the engine mutex, run after unlocking
type effects struct {
	identity domain.Identity
	gen      uint64

	save  bool
	state domain.SubscriptionState
	seq   uint64

	events    []event.Event
	staleFrom domain.Plan

	reset         *resetRequest
	downgradeFrom domain.Plan
	initRemote    bool
	initAuthority Authority
}

type resetRequest struct {
	day   string
	limit int
}

func (e *Engine) newEffectsLocked() effects {
	return effects{identity: e.identity, gen: e.generation}
}

// scheduleLocked registers background work with the wait group while the
// engine is known to be open
func (e *Engine) scheduleLocked(fx *effects) {
	if e.closed {
		fx.reset = nil
		fx.downgradeFrom = ""
		fx.initRemote = false
		fx.initAuthority = nil
		return
	}
	n := 0
	if fx.reset != nil {
		n++
	}
	if fx.downgradeFrom != "" {
		n++
	}
	if fx.initRemote {
		n++
	}
	if fx.initAuthority != nil {
		n++
	}
	e.wg.Add(n)
}

func (e *Engine) run(ctx context.Context, fx effects) {
	if fx.staleFrom != "" {
		logger.FromContext(ctx).Info(LogMsgStalePlanOverridden, "remote_plan", fx.staleFrom, "entitlements", e.Entitlements().Families())
	}
	if fx.save {
		e.persist(ctx, fx.identity.Key, fx.state, fx.seq)
	}
	for _, evt := range fx.events {
		e.publisher.PublishWithRetry(ctx, evt)
	}

	bg := context.WithoutCancel(ctx)
	if fx.reset != nil {
		req := *fx.reset
		go func() {
			defer e.wg.Done()
			e.requestDailyReset(bg, fx.gen, fx.identity, req)
		}()
	}
	if fx.downgradeFrom != "" {
		go func() {
			defer e.wg.Done()
			e.writeDowngrade(bg, fx.gen, fx.identity, fx.downgradeFrom)
		}()
	}
	if fx.initRemote {
		go func() {
			defer e.wg.Done()
			e.initializeRemote(bg, fx.gen, fx.identity)
		}()
	}
	if fx.initAuthority != nil {
		go func() {
			defer e.wg.Done()
			snap := fx.initAuthority.Initialize(bg, fx.identity.Key)
			e.onEntitlements(bg, fx.gen, snap)
		}()
	}
}

// initializeRemote writes the first document for an identity that has none,
// seeded from its own snapshot, then the device's guest snapshot, then trial defaults
func (e *Engine) initializeRemote(ctx context.Context, gen uint64, id domain.Identity) {
	log := logger.FromContext(ctx)

	e.mu.Lock()
	current := gen == e.generation
	e.mu.Unlock()
	if !current {
		return
	}

	seed, source := e.migrationSeed(ctx, id)
	log.Info(LogMsgRemoteMissing, "seed", source)

	if err := e.docs.Patch(ctx, id.Key, domain.PatchFromState(seed)); err != nil {
		log.Warn(LogMsgRemoteInitFailed, "error", err)
		e.mu.Lock()
		if gen == e.generation {
			e.initializing = false
		}
		e.mu.Unlock()
	}
}

func (e *Engine) migrationSeed(ctx context.Context, id domain.Identity) (domain.SubscriptionState, string) {
	now := e.now()
	if s := e.loadSnapshot(ctx, id.Key); s != nil {
		logger.FromContext(ctx).Debug(LogMsgSeededFromSnapshot, "key", id.Key)
		return seedFrom(*s, now), "snapshot"
	}
	if id.GuestKey != "" && id.GuestKey != id.Key {
		if s := e.loadSnapshot(ctx, id.GuestKey); s != nil {
			logger.FromContext(ctx).Debug(LogMsgSeededFromSnapshot, "key", id.GuestKey)
			return seedFrom(*s, now), "guest"
		}
	}
	return domain.NewTrialState(now, e.today()), "defaults"
}

func seedFrom(s domain.SubscriptionState, now time.Time) domain.SubscriptionState {
	s.IsAdminOverride = false
	return Derive(s.Clone(), now)
}

// writeDowngrade persists an expiry proven by a configured, empty entitlement set
func (e *Engine) writeDowngrade(ctx context.Context, gen uint64, id domain.Identity, from domain.Plan) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDowngradeWrite, "from_plan", from)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	ads := e.recordLocked().AdRewardCount
	e.mu.Unlock()

	if err := e.docs.Patch(ctx, id.Key, downgradePatch(ads)); err != nil {
		log.Warn(LogMsgDowngradeFailed, "error", err)
		e.mu.Lock()
		if gen == e.generation {
			e.downgrading = false
		}
		e.mu.Unlock()
		return
	}
	e.publisher.PublishWithRetry(ctx, event.NewDowngradedEvent(id.Key, from, true))
}
