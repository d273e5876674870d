package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// CanPerformAction gates one billable action against the re-derived limit
func (e *Engine) CanPerformAction() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation == 0 || e.closed {
		return false
	}
	return canPerform(Derive(e.state, e.now()))
}

// RemainingActions is -1 for unlimited, else the actions left today
func (e *Engine) RemainingActions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return remaining(Derive(e.state, e.now()))
}

// IncrementAction counts one consumed action. It is a no-op for pro and when
// the limit is already reached. The remote write is best effort.
func (e *Engine) IncrementAction(ctx context.Context) {
	e.TryConsume(ctx)
}

// Reservation is one action taken from the allowance by TryConsume
type Reservation struct {
	gen     uint64
	day     string
	counted bool
}

// TryConsume checks the allowance and counts one action under a single lock
// hold, so concurrent callers cannot both take the last action. Pro actions
// are allowed but not counted.
func (e *Engine) TryConsume(ctx context.Context) (Reservation, bool) {
	e.CheckDailyReset(ctx)

	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return Reservation{}, false
	}
	s := Derive(e.state, e.now())
	if !canPerform(s) {
		e.mu.Unlock()
		return Reservation{}, false
	}
	if s.Plan == domain.PlanPro {
		gen := e.generation
		e.mu.Unlock()
		return Reservation{gen: gen}, true
	}

	fx := e.newEffectsLocked()
	e.mutateLocked(SourceUsage, &fx, func(r *domain.SubscriptionState) {
		r.DailyUsed++
	})
	rec := e.recordLocked()
	res := Reservation{gen: fx.gen, day: rec.LastResetDate, counted: true}
	patch := domain.SubscriptionPatch{}.
		Set(domain.FieldDailyUsed, rec.DailyUsed).
		Set(domain.FieldDailyLimit, e.state.DailyLimit)
	fx.events = append(fx.events, event.NewUsageEvent(event.ActionConsumed, fx.identity.Key, e.state))
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
	if fx.identity.Authenticated {
		e.bestEffortPatch(ctx, fx.identity, patch)
	}
	return res, true
}

// Release gives back an action whose work failed. It does nothing once the
// identity or the calendar day has changed since the reservation.
func (e *Engine) Release(ctx context.Context, r Reservation) {
	if !r.counted {
		return
	}

	e.mu.Lock()
	if e.closed || r.gen != e.generation || e.recordLocked().LastResetDate != r.day || e.recordLocked().DailyUsed == 0 {
		e.mu.Unlock()
		return
	}
	fx := e.newEffectsLocked()
	e.mutateLocked(SourceUsage, &fx, func(s *domain.SubscriptionState) {
		if s.DailyUsed > 0 {
			s.DailyUsed--
		}
	})
	patch := domain.SubscriptionPatch{}.
		Set(domain.FieldDailyUsed, e.recordLocked().DailyUsed).
		Set(domain.FieldDailyLimit, e.state.DailyLimit)
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
	logger.FromContext(ctx).Debug(LogMsgActionReleased)
	if fx.identity.Authenticated {
		e.bestEffortPatch(ctx, fx.identity, patch)
	}
}

// UpgradeToPremium grants premium. end defaults to now plus one billing
// period; a receipt expiry passed as override always wins.
func (e *Engine) UpgradeToPremium(ctx context.Context, period domain.BillingPeriod, override *time.Time) error {
	return e.upgrade(ctx, domain.PlanPremium, period, override, SourceUpgrade)
}

// UpgradeToPro grants pro, see UpgradeToPremium
func (e *Engine) UpgradeToPro(ctx context.Context, period domain.BillingPeriod, override *time.Time) error {
	return e.upgrade(ctx, domain.PlanPro, period, override, SourceUpgrade)
}

// upgrade is a grant: the remote write must succeed before memory changes
func (e *Engine) upgrade(ctx context.Context, plan domain.Plan, period domain.BillingPeriod, override *time.Time, source string) error {
	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return domain.ErrEngineClosed
	}
	id, gen := e.identity, e.generation
	ads := e.recordLocked().AdRewardCount
	e.mu.Unlock()

	end := e.now().Add(period.Duration())
	if override != nil {
		end = *override
	}
	patch := upgradePatch(plan, end, ads)

	if err := e.confirmGrant(ctx, id, patch); err != nil {
		return err
	}
	e.applyGrant(ctx, gen, source, patch)
	return nil
}

// DowngradeToFree moves to the expired free state. Memory changes first; the
// remote write is best effort.
func (e *Engine) DowngradeToFree(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return
	}
	from := e.recordLocked().Plan
	patch := downgradePatch(e.recordLocked().AdRewardCount)
	fx := e.newEffectsLocked()
	e.applyPatchLocked(ctx, SourceDowngrade, &fx, patch)
	fx.events = append(fx.events, event.NewDowngradedEvent(fx.identity.Key, from, fx.identity.Authenticated))
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
	if fx.identity.Authenticated {
		e.bestEffortPatch(ctx, fx.identity, patch)
	}
}

// RewardAdWatched credits one rewarded ad. Only free plans are eligible.
func (e *Engine) RewardAdWatched(ctx context.Context) RedemptionResult {
	e.CheckDailyReset(ctx)

	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return failed(ResultError, MsgTryAgain)
	}
	now := e.now()
	if Derive(e.state, now).Plan != domain.PlanFree {
		e.mu.Unlock()
		return failed(ResultNotEligible, MsgAdNotEligible)
	}

	fx := e.newEffectsLocked()
	e.mutateLocked(SourceUsage, &fx, func(r *domain.SubscriptionState) {
		r.AdRewardCount++
		watched := now
		r.LastAdWatchTime = &watched
	})
	rec := e.recordLocked()
	patch := domain.SubscriptionPatch{}.
		Set(domain.FieldAdRewardCount, rec.AdRewardCount).
		Set(domain.FieldDailyLimit, e.state.DailyLimit).
		SetTime(domain.FieldLastAdWatchTime, &now)
	fx.events = append(fx.events, event.NewUsageEvent(event.AdRewarded, fx.identity.Key, e.state))
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
	if fx.identity.Authenticated {
		e.bestEffortPatch(ctx, fx.identity, patch)
	}
	return succeeded(MsgAdRewarded, domain.PlanFree)
}

// confirmGrant writes a grant remotely. Guests have no remote record.
func (e *Engine) confirmGrant(ctx context.Context, id domain.Identity, patch domain.SubscriptionPatch) error {
	if id.IsGuest() {
		return nil
	}
	if err := e.docs.Patch(ctx, id.Key, patch); err != nil {
		logger.FromContext(ctx).Warn(LogMsgGrantWriteFailed, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrRemoteWriteFailed, err)
	}
	return nil
}

// applyGrant moves a confirmed grant into memory unless the identity changed meanwhile
func (e *Engine) applyGrant(ctx context.Context, gen uint64, source string, patch domain.SubscriptionPatch, extra ...event.Event) {
	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		return
	}
	fx := e.newEffectsLocked()
	e.applyPatchLocked(ctx, source, &fx, patch)
	fx.events = append(fx.events, extra...)
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
}

func (e *Engine) bestEffortPatch(ctx context.Context, id domain.Identity, patch domain.SubscriptionPatch) {
	if err := e.docs.Patch(ctx, id.Key, patch); err != nil {
		logger.FromContext(ctx).Warn(LogMsgCounterPatchFailed, "error", err)
	}
}
