package domain

import "time"

// Daily limit values
const (
	UnlimitedDailyLimit = -1
	PremiumDailyLimit   = 30
	TrialDailyLimit     = 10
	ExpiredDailyLimit   = 0
	AdRewardBonus       = 3
)

// Durations
const (
	TrialDuration               = 7 * 24 * time.Hour
	ReferralBonusDays           = 7
	ReferralBonusDuration       = ReferralBonusDays * 24 * time.Hour
	MonthlySubscriptionDuration = 30 * 24 * time.Hour
	YearlySubscriptionDuration  = 365 * 24 * time.Hour
)

// Referral code format: SMART- followed by 11 characters from ReferralCodeAlphabet
const (
	ReferralCodePrefix   = "SMART-"
	ReferralCodeLength   = 11
	ReferralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CalendarDayLayout formats the device-local calendar day used for daily resets
const CalendarDayLayout = "2006-01-02"
