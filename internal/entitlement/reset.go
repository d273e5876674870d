package entitlement

import (
	"context"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// CheckDailyReset requests the daily counter reset when the record's
// lastResetDate is not today. Signed-in sessions patch the remote document and
// wait for the echo; at most one request per identity per day is in flight.
// Guest sessions reset locally. Reports whether a reset was triggered.
func (e *Engine) CheckDailyReset(ctx context.Context) bool {
	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return false
	}
	fx := e.newEffectsLocked()
	triggered := e.dailyResetLocked(&fx)
	e.scheduleLocked(&fx)
	e.mu.Unlock()

	e.run(ctx, fx)
	return triggered
}

func (e *Engine) dailyResetLocked(fx *effects) bool {
	today := e.today()
	key := e.identity.Key

	if e.identity.IsGuest() {
		if e.local.LastResetDate == today {
			return false
		}
		e.local.DailyUsed = 0
		e.local.AdRewardCount = 0
		e.local.LastResetDate = today
		e.remergeLocked(SourceSnapshot, fx)
		fx.events = append(fx.events, event.NewDailyResetRequestedEvent(key, today, e.state.DailyLimit, true))
		logger.Debug(LogMsgDailyResetLocal, "identity", key, "day", today)
		return true
	}

	if e.remote == nil || e.remote.LastResetDate == today || e.resetDay == today {
		return false
	}
	e.resetDay = today
	limit := CalculateDailyLimit(e.state.Plan, IsTrialActive(e.state, e.now()), 0)
	fx.reset = &resetRequest{day: today, limit: limit}
	fx.events = append(fx.events, event.NewDailyResetRequestedEvent(key, today, limit, false))
	return true
}

func (e *Engine) requestDailyReset(ctx context.Context, gen uint64, id domain.Identity, req resetRequest) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDailyResetPatch, "day", req.day, "daily_limit", req.limit)

	if err := e.docs.Patch(ctx, id.Key, dailyResetPatch(req.day, req.limit)); err != nil {
		log.Warn(LogMsgDailyResetFailed, "error", err)
		e.mu.Lock()
		if gen == e.generation && e.resetDay == req.day {
			e.resetDay = ""
		}
		e.mu.Unlock()
	}
}
