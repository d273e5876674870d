package entitlement

import (
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// upgradePatch moves the record onto a paid plan and closes the trial
func upgradePatch(plan domain.Plan, end time.Time, adRewardCount int) domain.SubscriptionPatch {
	return domain.SubscriptionPatch{}.
		Set(domain.FieldPlan, string(plan)).
		Set(domain.FieldDailyUsed, 0).
		Set(domain.FieldIsTrialActive, false).
		Set(domain.FieldDailyLimit, CalculateDailyLimit(plan, false, adRewardCount)).
		SetTime(domain.FieldTrialStartDate, nil).
		SetTime(domain.FieldTrialEndDate, nil).
		SetTime(domain.FieldSubscriptionEndDate, &end)
}

// downgradePatch moves the record to the expired free state, not a fresh trial
func downgradePatch(adRewardCount int) domain.SubscriptionPatch {
	return domain.SubscriptionPatch{}.
		Set(domain.FieldPlan, string(domain.PlanFree)).
		Set(domain.FieldIsTrialActive, false).
		Set(domain.FieldDailyLimit, CalculateDailyLimit(domain.PlanFree, false, adRewardCount)).
		SetTime(domain.FieldTrialStartDate, nil).
		SetTime(domain.FieldTrialEndDate, nil).
		SetTime(domain.FieldSubscriptionEndDate, nil)
}

// dailyResetPatch zeroes the counters for day
func dailyResetPatch(day string, limit int) domain.SubscriptionPatch {
	return domain.SubscriptionPatch{}.
		Set(domain.FieldDailyUsed, 0).
		Set(domain.FieldAdRewardCount, 0).
		Set(domain.FieldLastResetDate, day).
		Set(domain.FieldDailyLimit, limit)
}

// trialExtensionPatch adds the referral bonus to a free record's trial window.
// An expired trial restarts its bonus from now.
func trialExtensionPatch(s domain.SubscriptionState, now time.Time) domain.SubscriptionPatch {
	end := now
	if s.TrialEndDate != nil && s.TrialEndDate.After(now) {
		end = *s.TrialEndDate
	}
	end = end.Add(domain.ReferralBonusDuration)

	start := now
	if s.TrialStartDate != nil {
		start = *s.TrialStartDate
	}

	return domain.SubscriptionPatch{}.
		Set(domain.FieldIsTrialActive, true).
		Set(domain.FieldBonusDays, s.BonusDays+domain.ReferralBonusDays).
		Set(domain.FieldDailyLimit, CalculateDailyLimit(domain.PlanFree, true, s.AdRewardCount)).
		SetTime(domain.FieldTrialStartDate, &start).
		SetTime(domain.FieldTrialEndDate, &end)
}

// merge copies every field of other into p
func merge(p, other domain.SubscriptionPatch) domain.SubscriptionPatch {
	for k, v := range other {
		p[k] = v
	}
	return p
}
