// Package entitlement reconciles a user's subscription state across the local
// snapshot, the remote entitlement document and the purchase authority.
package entitlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/purchase"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// SnapshotStore is the local persisted cache of the last known state
type SnapshotStore interface {
	Load(ctx context.Context, identityKey string) (*domain.SubscriptionState, error)
	Save(ctx context.Context, identityKey string, state domain.SubscriptionState) error
}

// Authority is one purchase authority session
type Authority interface {
	Initialize(ctx context.Context, appUserID string) domain.EntitlementSnapshot
	ActiveEntitlements() domain.EntitlementSnapshot
	Purchase(ctx context.Context, req purchase.PurchaseRequest) (purchase.Result, error)
	Restore(ctx context.Context) (domain.EntitlementSnapshot, error)
}

// AuthorityFactory opens a new authority session for a signed-in identity
type AuthorityFactory func() Authority

// Dependencies are the adapters an Engine reconciles
type Dependencies struct {
	Documents    repository.EntitlementDocuments
	Promos       repository.PromoCodes
	Referrals    repository.Referrals
	Snapshots    SnapshotStore
	NewAuthority AuthorityFactory
	Publisher    event.Publisher
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source and the calendar used for daily resets
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithCodeGenerator replaces the referral code generator
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(e *Engine) {
		e.generateCode = gen
	}
}

// Engine owns the subscription state of one session. Reads return copies with
// wall-clock fields re-derived. The mutex is never held across I/O.
type Engine struct {
	docs         repository.EntitlementDocuments
	promos       repository.PromoCodes
	referrals    repository.Referrals
	snapshots    SnapshotStore
	newAuthority AuthorityFactory
	publisher    event.Publisher
	now          func() time.Time
	loc          *time.Location
	generateCode func() (string, error)

	mu           sync.Mutex
	identity     domain.Identity
	generation   uint64
	unsubscribe  repository.Unsubscribe
	authority    Authority
	local        domain.SubscriptionState
	remote       *domain.SubscriptionState
	entitlements domain.EntitlementSnapshot
	state        domain.SubscriptionState
	resetDay     string
	downgrading  bool
	initializing bool
	closed       bool
	seq          uint64

	saveMu   sync.Mutex
	savedSeq uint64

	wg sync.WaitGroup
}

// NewEngine creates an engine with no identity. Call SwitchIdentity before use.
func NewEngine(deps Dependencies, opts ...Option) *Engine {
	e := &Engine{
		docs:         deps.Documents,
		promos:       deps.Promos,
		referrals:    deps.Referrals,
		snapshots:    deps.Snapshots,
		newAuthority: deps.NewAuthority,
		publisher:    deps.Publisher,
		now:          time.Now,
		loc:          time.Local,
		generateCode: GenerateReferralCode,
		entitlements: domain.EntitlementSnapshot{State: domain.AuthorityUninitialized},
	}
	if e.publisher == nil {
		e.publisher = event.NopPublisher{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SwitchIdentity moves the engine to id. The previous remote subscription is
// cancelled before the new one opens, and callbacks still in flight for the
// previous identity are discarded.
func (e *Engine) SwitchIdentity(ctx context.Context, id domain.Identity) error {
	if id.Key == "" {
		return domain.ErrInvalidIdentity
	}
	bg := context.WithoutCancel(logger.WithIdentity(ctx, id.Key))
	log := logger.FromContext(bg)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.ErrEngineClosed
	}
	if e.generation > 0 && e.identity == id {
		e.mu.Unlock()
		return nil
	}
	e.generation++
	gen := e.generation
	old := e.unsubscribe
	e.unsubscribe = nil
	e.identity = id
	e.remote = nil
	e.state = domain.SubscriptionState{}
	e.resetDay = ""
	e.downgrading = false
	e.initializing = false
	e.authority = nil
	e.entitlements = domain.EntitlementSnapshot{State: domain.AuthorityUninitialized}
	e.mu.Unlock()

	if old != nil {
		old()
	}

	local := e.loadSnapshot(bg, id.Key)
	if local == nil {
		fresh := domain.NewTrialState(e.now(), e.today())
		local = &fresh
	}

	var authority Authority
	if id.Authenticated && e.newAuthority != nil {
		authority = e.newAuthority()
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return nil
	}
	e.local = *local
	e.authority = authority
	fx := e.newEffectsLocked()
	e.remergeLocked(SourceSnapshot, &fx)
	if id.IsGuest() {
		e.dailyResetLocked(&fx)
	}
	fx.initAuthority = authority
	e.scheduleLocked(&fx)
	e.mu.Unlock()
	e.run(bg, fx)

	log.Info(LogMsgIdentitySwitched, "authenticated", id.Authenticated, "generation", gen)

	if id.IsGuest() {
		return nil
	}

	unsub, err := e.docs.Subscribe(bg, id.Key, func(doc *domain.EntitlementDocument) {
		e.onRemote(bg, gen, doc)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSubscribeFailed, err)
	}

	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		unsub()
		return nil
	}
	e.unsubscribe = unsub
	e.mu.Unlock()
	return nil
}

// Close cancels the remote subscription and waits for background writes
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.generation++
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.FromContext(ctx).Debug(LogMsgEngineClosed)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a copy of the reconciled state
func (e *Engine) State() domain.SubscriptionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Derive(e.state.Clone(), e.now())
}

// Identity returns the identity the engine is reconciling
func (e *Engine) Identity() domain.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// Entitlements returns the latest purchase authority snapshot
func (e *Engine) Entitlements() domain.EntitlementSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entitlements
}

// onRemote handles one remote document delivery for generation gen
func (e *Engine) onRemote(ctx context.Context, gen uint64, doc *domain.EntitlementDocument) {
	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		logger.FromContext(ctx).Debug(LogMsgStaleCallback, "generation", gen)
		return
	}

	fx := e.newEffectsLocked()
	if doc == nil {
		if !e.initializing {
			e.initializing = true
			fx.initRemote = true
		}
	} else {
		e.initializing = false
		remote := doc.Subscription.Clone()
		if !remote.Plan.Valid() {
			remote.Plan = domain.PlanFree
		}
		e.remote = &remote
		if !remote.Plan.IsPaid() {
			e.downgrading = false
		}
		e.remergeLocked(SourceRemote, &fx)
		e.dailyResetLocked(&fx)
	}
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
}

// onEntitlements feeds a purchase authority snapshot into the merge
func (e *Engine) onEntitlements(ctx context.Context, gen uint64, snap domain.EntitlementSnapshot) {
	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		return
	}
	e.entitlements = snap
	fx := e.newEffectsLocked()
	out := e.remergeLocked(SourceAuthority, &fx)
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	if out.ForcedFree {
		logger.FromContext(ctx).Warn(LogMsgForcedFree, "remote_plan", out.RemotePlan)
	}
	e.run(ctx, fx)
}

// recordLocked is the unmerged record: the remote document once known, else the local one
func (e *Engine) recordLocked() domain.SubscriptionState {
	if e.remote != nil {
		return *e.remote
	}
	return e.local
}

// remergeLocked recomputes the effective state from the latest inputs
func (e *Engine) remergeLocked(source string, fx *effects) MergeOutcome {
	oldPlan := e.state.Plan
	out := Reconcile(MergeInput{
		Current:      e.local,
		Remote:       e.remote,
		Entitlements: e.entitlements,
		Now:          e.now(),
	})
	e.state = out.State

	key := e.identity.Key
	if out.StalePlanOverridden && (source == SourceRemote || source == SourceAuthority) {
		fx.staleFrom = out.RemotePlan
		fx.events = append(fx.events, event.NewStalePlanOverriddenEvent(key, out.RemotePlan, out.State.Plan))
	}
	if out.NeedsDowngrade {
		switch {
		case e.remote == nil:
			e.local = out.State
		case e.identity.Authenticated && !e.downgrading:
			e.downgrading = true
			fx.downgradeFrom = e.remote.Plan
		}
	}
	if oldPlan != "" && oldPlan != out.State.Plan {
		fx.events = append(fx.events, event.NewPlanChangedEvent(key, oldPlan, out.State.Plan, source))
	}

	// A signed-in identity's snapshot is written only once the remote record is
	// known, so a guest snapshot can still seed a brand new account.
	if e.identity.IsGuest() || e.remote != nil {
		e.seq++
		fx.save = true
		fx.state = e.recordLocked().Clone()
		fx.seq = e.seq
	}
	return out
}

// mutateLocked applies fn to the held record and re-merges
func (e *Engine) mutateLocked(source string, fx *effects, fn func(*domain.SubscriptionState)) {
	fn(&e.local)
	if e.remote != nil {
		fn(e.remote)
	}
	e.remergeLocked(source, fx)
}

// applyPatchLocked applies a confirmed remote write to the held record
func (e *Engine) applyPatchLocked(ctx context.Context, source string, fx *effects, patch domain.SubscriptionPatch) {
	e.mutateLocked(source, fx, func(s *domain.SubscriptionState) {
		merged, err := domain.ApplyPatch(*s, patch)
		if err != nil {
			logger.FromContext(ctx).Error(ErrMsgPatchFailed, "error", err)
			return
		}
		*s = merged
	})
}

func (e *Engine) today() string {
	return e.now().In(e.loc).Format(domain.CalendarDayLayout)
}

func (e *Engine) loadSnapshot(ctx context.Context, key string) *domain.SubscriptionState {
	if e.snapshots == nil || key == "" {
		return nil
	}
	s, err := e.snapshots.Load(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgSnapshotLoadFailed, "key", key, "error", err)
		return nil
	}
	return s
}

// persist writes the snapshot unless a newer state was already written
func (e *Engine) persist(ctx context.Context, key string, s domain.SubscriptionState, seq uint64) {
	if e.snapshots == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if seq <= e.savedSeq {
		return
	}
	if err := e.snapshots.Save(ctx, key, s); err != nil {
		logger.FromContext(ctx).Warn(LogMsgSnapshotSaveFailed, "error", err)
		return
	}
	e.savedSeq = seq
}

// waitBackground blocks until scheduled remote writes finish
func (e *Engine) waitBackground() {
	e.wg.Wait()
}
