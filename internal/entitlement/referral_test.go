package entitlement

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
)

const ownerCode = "SMART-ABC123XYZ00"

func withOwner(t *testing.T, h *harness) {
	t.Helper()
	require.NoError(t, h.referrals.RegisterReferralCode(context.Background(), "owner", ownerCode))
	owner := trialState()
	owner.ReferralCode = ownerCode
	h.seed(t, "owner", owner)
}

func TestApplyReferralCode(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	withOwner(t, h)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	before := *h.engine.State().TrialEndDate
	res := h.engine.ApplyReferralCode(ctx, ownerCode)

	require.True(t, res.Success, res.Message)
	s := h.engine.State()
	require.NotNil(t, s.TrialEndDate)
	assert.True(t, before.Add(7*24*time.Hour).Equal(*s.TrialEndDate))
	assert.True(t, s.IsTrialActive)
	assert.Equal(t, 7, s.BonusDays)
	require.NotNil(t, s.UsedReferralCode)
	assert.Equal(t, ownerCode, *s.UsedReferralCode)
	assert.Equal(t, 1, h.events.Count(event.ReferralRedeemed))

	owner := h.remote(t, "owner")
	assert.Equal(t, 1, owner.ReferralCount)
	assert.Equal(t, 7, owner.BonusDays)
	require.NotNil(t, owner.TrialEndDate)
	assert.True(t, testNow.Add(14*24*time.Hour).Equal(*owner.TrialEndDate))

	again := h.engine.ApplyReferralCode(ctx, ownerCode)
	assert.False(t, again.Success)
	assert.Equal(t, ResultAlreadyUsed, again.Code)
	assert.Equal(t, 1, h.remote(t, "owner").ReferralCount)
}

func TestApplyReferralCode_LapsedTrialRestartsFromNow(t *testing.T) {
	h := newHarness(t, nil)
	withOwner(t, h)
	lapsed := trialState()
	end := testNow.Add(-48 * time.Hour)
	lapsed.TrialEndDate = &end
	h.seed(t, "u1", lapsed)
	h.switchTo(t, domain.User("u1"))

	require.True(t, h.engine.ApplyReferralCode(context.Background(), ownerCode).Success)

	s := h.engine.State()
	assert.True(t, testNow.Add(7*24*time.Hour).Equal(*s.TrialEndDate))
	assert.Equal(t, 10, s.DailyLimit)
}

func TestApplyReferralCode_PaidRedeemerKeepsPlan(t *testing.T) {
	h := newHarness(t, nil)
	withOwner(t, h)
	h.seed(t, "u1", paidState(domain.PlanPremium, testNow.Add(24*time.Hour)))
	h.switchTo(t, domain.User("u1"))

	res := h.engine.ApplyReferralCode(context.Background(), ownerCode)

	require.True(t, res.Success)
	s := h.engine.State()
	assert.Equal(t, domain.PlanPremium, s.Plan)
	assert.Nil(t, s.TrialEndDate)
	assert.Equal(t, 1, h.remote(t, "owner").ReferralCount)
}

func TestApplyReferralCode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		identity domain.Identity
		code     string
		want     ResultCode
	}{
		{"own code", domain.User("owner"), ownerCode, ResultInvalid},
		{"unknown code", domain.User("u1"), "SMART-UNKNOWN0000", ResultNotFound},
		{"guest", domain.Guest("device-1"), ownerCode, ResultNotLoggedIn},
		{"empty", domain.User("u1"), "", ResultInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			withOwner(t, h)
			h.seed(t, "u1", trialState())
			h.switchTo(t, tt.identity)

			res := h.engine.ApplyReferralCode(context.Background(), tt.code)

			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Code)
			assert.Equal(t, 0, h.remote(t, "owner").ReferralCount)
		})
	}
}

func TestApplyReferralCode_PromoCodeTakesPrecedence(t *testing.T) {
	h := newHarness(t, nil)
	h.promos.Put(welcomePromo())
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	res := h.engine.ApplyReferralCode(context.Background(), "welcome")

	require.True(t, res.Success)
	assert.Equal(t, domain.PlanPro, h.engine.State().Plan)
	assert.Equal(t, 1, h.events.Count(event.PromoRedeemed))
	assert.Zero(t, h.events.Count(event.ReferralRedeemed))
}

func TestApplyReferralCode_RemoteFailure(t *testing.T) {
	h := newHarness(t, nil)
	withOwner(t, h)
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	h.docs.SetFail(true)
	res := h.engine.ApplyReferralCode(context.Background(), ownerCode)

	assert.Equal(t, ResultError, res.Code)
	assert.False(t, h.engine.State().HasUsedReferral())
}

func TestEnsureReferralCode(t *testing.T) {
	ctx := context.Background()
	codes := []string{"SMART-TAKEN000000", "SMART-FRESH000000"}
	calls := 0
	gen := func() (string, error) {
		code := codes[calls%len(codes)]
		calls++
		return code, nil
	}

	h := newHarness(t, nil, WithCodeGenerator(gen))
	require.NoError(t, h.referrals.RegisterReferralCode(ctx, "someone-else", "SMART-TAKEN000000"))
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	code, err := h.engine.EnsureReferralCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SMART-FRESH000000", code)
	assert.Equal(t, code, h.remote(t, "u1").ReferralCode)

	owner, err := h.referrals.GetReferralOwner(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	again, err := h.engine.EnsureReferralCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, again)
	assert.Equal(t, 2, calls, "an existing code is not regenerated")
}

func TestRegenerateReferralCode_ReleasesOldCode(t *testing.T) {
	ctx := context.Background()
	next := []string{"SMART-FIRST000000", "SMART-SECOND00000"}
	gen := func() (string, error) {
		code := next[0]
		next = next[1:]
		return code, nil
	}

	h := newHarness(t, nil, WithCodeGenerator(gen))
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	_, err := h.engine.EnsureReferralCode(ctx)
	require.NoError(t, err)
	code, err := h.engine.RegenerateReferralCode(ctx)
	require.NoError(t, err)

	assert.Equal(t, "SMART-SECOND00000", code)
	assert.Equal(t, code, h.engine.State().ReferralCode)
	_, err = h.referrals.GetReferralOwner(ctx, "SMART-FIRST000000")
	assert.ErrorIs(t, err, domain.ErrReferralCodeNotFound)
}

func TestEnsureReferralCode_CodeSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	calls := 0
	gen := func() (string, error) {
		calls++
		return "SMART-TAKEN000000", nil
	}

	h := newHarness(t, nil, WithCodeGenerator(gen))
	require.NoError(t, h.referrals.RegisterReferralCode(ctx, "someone-else", "SMART-TAKEN000000"))
	h.seed(t, "u1", trialState())
	h.switchTo(t, domain.User("u1"))

	_, err := h.engine.EnsureReferralCode(ctx)

	assert.Error(t, err)
	assert.Equal(t, MaxReferralCodeAttempts, calls)
}

func TestEnsureReferralCode_GuestMustSignIn(t *testing.T) {
	h := newHarness(t, nil)
	h.switchTo(t, domain.Guest("device-1"))

	_, err := h.engine.EnsureReferralCode(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestGenerateReferralCode(t *testing.T) {
	pattern := regexp.MustCompile(`^SMART-[A-Z0-9]{11}$`)
	seen := make(map[string]struct{})

	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}
