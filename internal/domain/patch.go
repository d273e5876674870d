package domain

import (
	"encoding/json"
	"time"
)

// Field names inside the "subscription" object of the remote document
const (
	FieldPlan                = "plan"
	FieldDailyLimit          = "dailyLimit"
	FieldDailyUsed           = "dailyUsed"
	FieldLastResetDate       = "lastResetDate"
	FieldTrialStartDate      = "trialStartDate"
	FieldTrialEndDate        = "trialEndDate"
	FieldIsTrialActive       = "isTrialActive"
	FieldSubscriptionEndDate = "subscriptionEndDate"
	FieldReferralCode        = "referralCode"
	FieldReferralCount       = "referralCount"
	FieldUsedReferralCode    = "usedReferralCode"
	FieldPromoCodeUsed       = "promoCodeUsed"
	FieldAdRewardCount       = "adRewardCount"
	FieldLastAdWatchTime     = "lastAdWatchTime"
	FieldBonusDays           = "bonusDays"
	FieldIsAdminOverride     = "isAdminOverride"
)

// SubscriptionPatch is a partial update of the subscription object.
// A nil value clears the field.
type SubscriptionPatch map[string]interface{}

// Set records a field and returns the patch for chaining
func (p SubscriptionPatch) Set(field string, value interface{}) SubscriptionPatch {
	p[field] = value
	return p
}

// SetTime records an optional timestamp, clearing it when t is nil
func (p SubscriptionPatch) SetTime(field string, t *time.Time) SubscriptionPatch {
	if t == nil {
		p[field] = nil
		return p
	}
	p[field] = t.UTC()
	return p
}

// PatchFromState returns a patch carrying every field of s
func PatchFromState(s SubscriptionState) SubscriptionPatch {
	p := SubscriptionPatch{
		FieldPlan:          string(s.Plan),
		FieldDailyLimit:    s.DailyLimit,
		FieldDailyUsed:     s.DailyUsed,
		FieldLastResetDate: s.LastResetDate,
		FieldIsTrialActive: s.IsTrialActive,
		FieldReferralCount: s.ReferralCount,
		FieldAdRewardCount: s.AdRewardCount,
		FieldBonusDays:     s.BonusDays,
	}
	p.SetTime(FieldTrialStartDate, s.TrialStartDate)
	p.SetTime(FieldTrialEndDate, s.TrialEndDate)
	p.SetTime(FieldSubscriptionEndDate, s.SubscriptionEndDate)
	p.SetTime(FieldLastAdWatchTime, s.LastAdWatchTime)
	if s.ReferralCode != "" {
		p[FieldReferralCode] = s.ReferralCode
	}
	p[FieldUsedReferralCode] = optionalString(s.UsedReferralCode)
	p[FieldPromoCodeUsed] = optionalString(s.PromoCodeUsed)
	return p
}

func optionalString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// ApplyPatch merges p over s the same way the document store merges a patch
// into the stored subscription object.
func ApplyPatch(s SubscriptionState, p SubscriptionPatch) (SubscriptionState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return s, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return s, err
	}
	for k, v := range p {
		b, err := json.Marshal(v)
		if err != nil {
			return s, err
		}
		fields[k] = b
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return s, err
	}
	var out SubscriptionState
	if err := json.Unmarshal(merged, &out); err != nil {
		return s, err
	}
	return out, nil
}
