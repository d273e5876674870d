package domain

import (
	"time"
)

// Plan is the subscription tier an identity is on
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanPro     Plan = "pro"
)

// IsPaid reports whether the plan is granted by a purchase or promo
func (p Plan) IsPaid() bool {
	return p == PlanPremium || p == PlanPro
}

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	return p == PlanFree || p.IsPaid()
}

// BillingPeriod selects the default subscription length when no receipt expiry is known
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodYearly  BillingPeriod = "yearly"
)

// Duration returns the client-side estimate of one billing cycle
func (p BillingPeriod) Duration() time.Duration {
	if p == PeriodYearly {
		return YearlySubscriptionDuration
	}
	return MonthlySubscriptionDuration
}

// SubscriptionState is the entitlement record for one identity.
// DailyLimit and IsTrialActive are mirrors; gating always re-derives them.
type SubscriptionState struct {
	Plan                Plan       `json:"plan"`
	DailyLimit          int        `json:"dailyLimit"`
	DailyUsed           int        `json:"dailyUsed"`
	LastResetDate       string     `json:"lastResetDate"`
	TrialStartDate      *time.Time `json:"trialStartDate"`
	TrialEndDate        *time.Time `json:"trialEndDate"`
	IsTrialActive       bool       `json:"isTrialActive"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
	ReferralCode        string     `json:"referralCode,omitempty"`
	ReferralCount       int        `json:"referralCount"`
	UsedReferralCode    *string    `json:"usedReferralCode"`
	PromoCodeUsed       *string    `json:"promoCodeUsed"`
	AdRewardCount       int        `json:"adRewardCount"`
	LastAdWatchTime     *time.Time `json:"lastAdWatchTime"`
	BonusDays           int        `json:"bonusDays"`
	IsAdminOverride     bool       `json:"isAdminOverride,omitempty"`
}

// Clone returns a deep copy so callers never share pointer fields with the engine
func (s SubscriptionState) Clone() SubscriptionState {
	out := s
	out.TrialStartDate = cloneTime(s.TrialStartDate)
	out.TrialEndDate = cloneTime(s.TrialEndDate)
	out.SubscriptionEndDate = cloneTime(s.SubscriptionEndDate)
	out.LastAdWatchTime = cloneTime(s.LastAdWatchTime)
	out.UsedReferralCode = cloneString(s.UsedReferralCode)
	out.PromoCodeUsed = cloneString(s.PromoCodeUsed)
	return out
}

// HasUsedPromo reports whether a promo code was ever consumed by this identity
func (s SubscriptionState) HasUsedPromo() bool {
	return s.PromoCodeUsed != nil && *s.PromoCodeUsed != ""
}

// HasUsedReferral reports whether a referral code was ever consumed by this identity
func (s SubscriptionState) HasUsedReferral() bool {
	return s.UsedReferralCode != nil && *s.UsedReferralCode != ""
}

// NewTrialState returns the defaults for an identity observed for the first time
func NewTrialState(now time.Time, today string) SubscriptionState {
	start := now
	end := now.Add(TrialDuration)
	return SubscriptionState{
		Plan:           PlanFree,
		DailyLimit:     TrialDailyLimit,
		LastResetDate:  today,
		TrialStartDate: &start,
		TrialEndDate:   &end,
		IsTrialActive:  true,
	}
}

// EntitlementDocument is the per-user record in the shared document store
type EntitlementDocument struct {
	UserID       string            `json:"-"`
	Subscription SubscriptionState `json:"subscription"`
	UpdatedAt    time.Time         `json:"-"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// TimePtr is a helper for optional timestamp fields
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr is a helper for optional string fields
func StringPtr(s string) *string {
	return &s
}
