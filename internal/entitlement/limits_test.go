package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/SmartList_Go/internal/domain"
)

func TestCalculateDailyLimit(t *testing.T) {
	tests := []struct {
		name        string
		plan        domain.Plan
		trialActive bool
		ads         int
		want        int
	}{
		{"pro is unlimited", domain.PlanPro, false, 4, -1},
		{"premium", domain.PlanPremium, false, 0, 30},
		{"premium with ads", domain.PlanPremium, false, 2, 36},
		{"trial", domain.PlanFree, true, 0, 10},
		{"trial with ads", domain.PlanFree, true, 1, 13},
		{"expired trial", domain.PlanFree, false, 0, 0},
		{"expired trial with ads", domain.PlanFree, false, 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDailyLimit(tt.plan, tt.trialActive, tt.ads))
		})
	}
}

func TestIsTrialActive(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name  string
		state domain.SubscriptionState
		want  bool
	}{
		{"free inside window", domain.SubscriptionState{Plan: domain.PlanFree, TrialEndDate: &future}, true},
		{"free past window", domain.SubscriptionState{Plan: domain.PlanFree, TrialEndDate: &past}, false},
		{"free without trial", domain.SubscriptionState{Plan: domain.PlanFree}, false},
		{"stored flag is ignored", domain.SubscriptionState{Plan: domain.PlanFree, TrialEndDate: &past, IsTrialActive: true}, false},
		{"paid plan never trials", domain.SubscriptionState{Plan: domain.PlanPremium, TrialEndDate: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrialActive(tt.state, testNow))
		})
	}
}

func TestDerive_ExpiredTrialWithAdRewards(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	s := Derive(domain.SubscriptionState{
		Plan:          domain.PlanFree,
		TrialEndDate:  &past,
		AdRewardCount: 2,
		DailyLimit:    10,
		IsTrialActive: true,
	}, testNow)

	assert.False(t, s.IsTrialActive)
	assert.Equal(t, 6, s.DailyLimit)
}

func TestDerive_TrialLapsesWithWallClock(t *testing.T) {
	s := trialState()
	assert.Equal(t, 10, Derive(s, testNow).DailyLimit)
	assert.Equal(t, 0, Derive(s, testNow.Add(domain.TrialDuration)).DailyLimit)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, -1, remaining(domain.SubscriptionState{DailyLimit: -1}))
	assert.Equal(t, 4, remaining(domain.SubscriptionState{DailyLimit: 10, DailyUsed: 6}))
	assert.Equal(t, 0, remaining(domain.SubscriptionState{DailyLimit: 10, DailyUsed: 12}))
}
