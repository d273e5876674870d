package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
)

func staleDay(used int) domain.SubscriptionState {
	s := trialState()
	s.LastResetDate = testYesterday
	s.DailyUsed = used
	s.AdRewardCount = 2
	return s
}

func TestDailyReset_OneRequestInFlightPerDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seed(t, "u1", staleDay(5))

	gate := h.docs.Hold()
	require.NoError(t, h.engine.SwitchIdentity(ctx, domain.User("u1")))

	require.Eventually(t, func() bool {
		return h.docs.PatchesWith(domain.FieldLastResetDate) == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, h.engine.CheckDailyReset(ctx))
	assert.False(t, h.engine.CheckDailyReset(ctx))
	assert.Equal(t, 5, h.engine.State().DailyUsed, "reset is not optimistic")

	close(gate)
	h.engine.waitBackground()

	s := h.engine.State()
	assert.Equal(t, 0, s.DailyUsed)
	assert.Equal(t, 0, s.AdRewardCount)
	assert.Equal(t, testToday, s.LastResetDate)
	assert.Equal(t, 1, h.docs.PatchesWith(domain.FieldLastResetDate))
	assert.Equal(t, 1, h.events.Count(event.DailyResetRequested))
}

func TestDailyReset_FailedRequestIsRetried(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seed(t, "u1", staleDay(5))

	h.docs.SetFail(true)
	h.switchTo(t, domain.User("u1"))
	assert.Equal(t, 5, h.engine.State().DailyUsed)

	h.docs.SetFail(false)
	assert.True(t, h.engine.CheckDailyReset(ctx))
	h.engine.waitBackground()

	assert.Equal(t, 0, h.engine.State().DailyUsed)
	assert.Equal(t, testToday, h.remote(t, "u1").LastResetDate)
}

func TestDailyReset_NewCalendarDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := trialState()
	s.DailyUsed = 4
	h.seed(t, "u1", s)
	h.switchTo(t, domain.User("u1"))

	assert.False(t, h.engine.CheckDailyReset(ctx))

	h.clock.Advance(24 * time.Hour)
	assert.True(t, h.engine.CheckDailyReset(ctx))
	h.engine.waitBackground()

	assert.Equal(t, 0, h.engine.State().DailyUsed)
	assert.Equal(t, "2026-03-11", h.remote(t, "u1").LastResetDate)
}

func TestDailyReset_ResetsToDerivedLimit(t *testing.T) {
	h := newHarness(t, nil)
	s := staleDay(0)
	s.DailyLimit = 16
	h.seed(t, "u1", s)

	h.switchTo(t, domain.User("u1"))

	remote := h.remote(t, "u1")
	assert.Equal(t, 10, remote.DailyLimit, "ad bonus is dropped with the counters")
	assert.Equal(t, 0, remote.AdRewardCount)
}

func TestDailyReset_GuestResetsLocally(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	guest := domain.Guest("device-1")
	require.NoError(t, h.snapshots.Save(ctx, guest.Key, staleDay(7)))

	h.switchTo(t, guest)

	s := h.engine.State()
	assert.Equal(t, 0, s.DailyUsed)
	assert.Equal(t, testToday, s.LastResetDate)
	assert.Zero(t, h.docs.PatchesWith(domain.FieldLastResetDate))

	saved, err := h.snapshots.Load(ctx, guest.Key)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.DailyUsed)
}
