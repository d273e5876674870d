package entitlement

import (
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// CalculateDailyLimit derives the daily action allowance. It depends only on
// its arguments.
//
//	pro                  -1 (unlimited)
//	premium              30 + 3n
//	free, trial active   10 + 3n
//	free, trial expired   0 + 3n
func CalculateDailyLimit(plan domain.Plan, trialActive bool, adRewardCount int) int {
	bonus := domain.AdRewardBonus * adRewardCount
	switch plan {
	case domain.PlanPro:
		return domain.UnlimitedDailyLimit
	case domain.PlanPremium:
		return domain.PremiumDailyLimit + bonus
	default:
		if trialActive {
			return domain.TrialDailyLimit + bonus
		}
		return domain.ExpiredDailyLimit + bonus
	}
}

// IsTrialActive reports whether s is a free plan inside its trial window at now.
// The stored IsTrialActive flag is never consulted.
func IsTrialActive(s domain.SubscriptionState, now time.Time) bool {
	return s.Plan == domain.PlanFree && s.TrialEndDate != nil && now.Before(*s.TrialEndDate)
}

// Derive returns s with the wall-clock dependent fields recomputed for now
func Derive(s domain.SubscriptionState, now time.Time) domain.SubscriptionState {
	s.IsTrialActive = IsTrialActive(s, now)
	s.DailyLimit = CalculateDailyLimit(s.Plan, s.IsTrialActive, s.AdRewardCount)
	return s
}

// canPerform gates one action on a derived state
func canPerform(s domain.SubscriptionState) bool {
	if s.Plan == domain.PlanPro || s.DailyLimit == domain.UnlimitedDailyLimit {
		return true
	}
	return s.DailyUsed < s.DailyLimit
}

// remaining is -1 for unlimited, else the actions left today
func remaining(s domain.SubscriptionState) int {
	if s.DailyLimit == domain.UnlimitedDailyLimit {
		return domain.UnlimitedDailyLimit
	}
	if left := s.DailyLimit - s.DailyUsed; left > 0 {
		return left
	}
	return 0
}
