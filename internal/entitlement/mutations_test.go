package entitlement

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
)

func TestIncrementAction(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	for i := 0; i < 3; i++ {
		h.engine.IncrementAction(ctx)
	}

	assert.Equal(t, 3, h.engine.State().DailyUsed)
	assert.Equal(t, 7, h.engine.RemainingActions())
	assert.Equal(t, 3, h.remote(t, "u1").DailyUsed)
	assert.Equal(t, 3, h.events.Count(event.ActionConsumed))
}

func TestIncrementAction_StopsAtLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := trialState()
	s.DailyUsed = 10
	h.seed(t, "u1", s)
	h.switchTo(t, domain.User("u1"))

	assert.False(t, h.engine.CanPerformAction())
	h.engine.IncrementAction(ctx)

	assert.Equal(t, 10, h.engine.State().DailyUsed)
	assert.Zero(t, h.docs.PatchesWith(domain.FieldDailyUsed))
}

func TestIncrementAction_ProIsUnlimited(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seed(t, "u1", paidState(domain.PlanPro, testNow.Add(time.Hour)))
	h.switchTo(t, domain.User("u1"))

	h.engine.IncrementAction(ctx)

	assert.True(t, h.engine.CanPerformAction())
	assert.Equal(t, -1, h.engine.RemainingActions())
	assert.Equal(t, 0, h.engine.State().DailyUsed)
}

func TestIncrementAction_RemoteFailureKeepsLocalCount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	h.docs.SetFail(true)
	h.engine.IncrementAction(ctx)

	assert.Equal(t, 1, h.engine.State().DailyUsed)
	assert.Equal(t, 0, h.remote(t, "u1").DailyUsed)
}

func TestIncrementAction_GuestStaysLocal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	guest := domain.Guest("device-1")
	h.switchTo(t, guest)

	h.engine.IncrementAction(ctx)

	assert.Equal(t, 1, h.engine.State().DailyUsed)
	assert.Zero(t, h.docs.PatchesWith(domain.FieldDailyUsed))

	saved, err := h.snapshots.Load(ctx, guest.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.DailyUsed)
}

func TestTryConsume_ConcurrentCallersShareLastAction(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := trialState()
	s.DailyUsed = 9
	h.seed(t, "u1", s)
	h.switchTo(t, domain.User("u1"))

	var granted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := h.engine.TryConsume(ctx); ok {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
	assert.Equal(t, 10, h.engine.State().DailyUsed)
	assert.Equal(t, 10, h.remote(t, "u1").DailyUsed)
	assert.Equal(t, 1, h.events.Count(event.ActionConsumed))
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the action", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t, "u1", trialState())
		h.switchTo(t, domain.User("u1"))

		r, ok := h.engine.TryConsume(ctx)
		require.True(t, ok)
		require.Equal(t, 1, h.engine.State().DailyUsed)

		h.engine.Release(ctx, r)
		assert.Equal(t, 0, h.engine.State().DailyUsed)
		assert.Equal(t, 0, h.remote(t, "u1").DailyUsed)
	})

	t.Run("ignored after identity switch", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t, "u1", trialState())
		other := trialState()
		other.DailyUsed = 4
		h.seed(t, "u2", other)
		h.switchTo(t, domain.User("u1"))

		r, ok := h.engine.TryConsume(ctx)
		require.True(t, ok)
		h.switchTo(t, domain.User("u2"))

		h.engine.Release(ctx, r)
		assert.Equal(t, 4, h.engine.State().DailyUsed)
	})

	t.Run("pro actions are not counted", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seed(t, "u1", paidState(domain.PlanPro, testNow.Add(time.Hour)))
		h.switchTo(t, domain.User("u1"))

		r, ok := h.engine.TryConsume(ctx)
		require.True(t, ok)
		h.engine.Release(ctx, r)
		assert.Zero(t, h.docs.PatchesWith(domain.FieldDailyUsed))
	})
}

func TestCanPerformAction_TrialExpiresWithWallClock(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	assert.True(t, h.engine.CanPerformAction())

	h.clock.Advance(domain.TrialDuration + time.Minute)
	assert.False(t, h.engine.CanPerformAction())
	assert.Equal(t, 0, h.engine.RemainingActions())
}

func TestRewardAdWatched(t *testing.T) {
	tests := []struct {
		name      string
		state     domain.SubscriptionState
		wantCode  ResultCode
		wantAds   int
		wantLimit int
	}{
		{"trial", trialState(), ResultOK, 1, 13},
		{"pro is not eligible", paidState(domain.PlanPro, testNow.Add(time.Hour)), ResultNotEligible, 0, -1},
		{"premium is not eligible", paidState(domain.PlanPremium, testNow.Add(time.Hour)), ResultNotEligible, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, nil)
			h.seed(t, "u1", tt.state)
			h.switchTo(t, domain.User("u1"))

			res := h.engine.RewardAdWatched(ctx)

			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, tt.wantCode == ResultOK, res.Success)
			assert.Equal(t, tt.wantAds, h.engine.State().AdRewardCount)
			assert.Equal(t, tt.wantAds, h.remote(t, "u1").AdRewardCount)
			assert.Equal(t, tt.wantLimit, h.engine.State().DailyLimit)
		})
	}
}

func TestRewardAdWatched_RecordsWatchTime(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	h.engine.RewardAdWatched(context.Background())

	remote := h.remote(t, "u1")
	require.NotNil(t, remote.LastAdWatchTime)
	assert.True(t, testNow.Equal(*remote.LastAdWatchTime))
	assert.Equal(t, 13, remote.DailyLimit)
}

func TestUpgrade(t *testing.T) {
	override := testNow.Add(90 * 24 * time.Hour)

	tests := []struct {
		name      string
		upgrade   func(e *Engine) error
		wantPlan  domain.Plan
		wantLimit int
		wantEnd   time.Time
	}{
		{
			name:      "premium monthly",
			upgrade:   func(e *Engine) error { return e.UpgradeToPremium(context.Background(), domain.PeriodMonthly, nil) },
			wantPlan:  domain.PlanPremium,
			wantLimit: 30,
			wantEnd:   testNow.Add(domain.MonthlySubscriptionDuration),
		},
		{
			name:      "pro yearly",
			upgrade:   func(e *Engine) error { return e.UpgradeToPro(context.Background(), domain.PeriodYearly, nil) },
			wantPlan:  domain.PlanPro,
			wantLimit: -1,
			wantEnd:   testNow.Add(domain.YearlySubscriptionDuration),
		},
		{
			name:      "receipt expiry wins",
			upgrade:   func(e *Engine) error { return e.UpgradeToPremium(context.Background(), domain.PeriodMonthly, &override) },
			wantPlan:  domain.PlanPremium,
			wantLimit: 30,
			wantEnd:   override,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			s := trialState()
			s.DailyUsed = 6
			h.seed(t, "u1", s)
			h.switchTo(t, domain.User("u1"))

			require.NoError(t, tt.upgrade(h.engine))

			got := h.engine.State()
			assert.Equal(t, tt.wantPlan, got.Plan)
			assert.Equal(t, tt.wantLimit, got.DailyLimit)
			assert.Equal(t, 0, got.DailyUsed)
			assert.False(t, got.IsTrialActive)
			assert.Nil(t, got.TrialEndDate)
			require.NotNil(t, got.SubscriptionEndDate)
			assert.True(t, tt.wantEnd.Equal(*got.SubscriptionEndDate))

			assert.Equal(t, tt.wantPlan, h.remote(t, "u1").Plan)
			assert.GreaterOrEqual(t, h.events.Count(event.PlanChanged), 1)
		})
	}
}

func TestUpgrade_RemoteFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	h.docs.SetFail(true)
	err := h.engine.UpgradeToPremium(context.Background(), domain.PeriodMonthly, nil)

	assert.ErrorIs(t, err, domain.ErrRemoteWriteFailed)
	assert.Equal(t, domain.PlanFree, h.engine.State().Plan)
	assert.Zero(t, h.events.Count(event.PlanChanged))
}

func TestDowngradeToFree(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, "u1", paidState(domain.PlanPremium, testNow.Add(24*time.Hour)))
	h.switchTo(t, domain.User("u1"))

	h.engine.DowngradeToFree(context.Background())

	s := h.engine.State()
	assert.Equal(t, domain.PlanFree, s.Plan)
	assert.Equal(t, 0, s.DailyLimit)
	assert.Nil(t, s.SubscriptionEndDate)
	assert.Equal(t, domain.PlanFree, h.remote(t, "u1").Plan)
	assert.Equal(t, 1, h.events.Count(event.Downgraded))
}

func TestDowngradeToFree_RemoteFailureStillDowngradesLocally(t *testing.T) {
	h := newHarness(t, nil)
	h.seed(t, "u1", paidState(domain.PlanPremium, testNow.Add(24*time.Hour)))
	h.switchTo(t, domain.User("u1"))

	h.docs.SetFail(true)
	h.engine.DowngradeToFree(context.Background())

	assert.Equal(t, domain.PlanFree, h.engine.State().Plan)
	assert.Equal(t, domain.PlanPremium, h.remote(t, "u1").Plan)
}
