package domain

import "time"

// PromoCode is an entry in the shared promo-code collection
type PromoCode struct {
	Code         string     `json:"code" db:"code"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	UsedCount    int        `json:"used_count" db:"used_count"`
	MaxUses      int        `json:"max_uses" db:"max_uses"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Plan         Plan       `json:"plan" db:"plan"`
	DurationDays int        `json:"duration_days" db:"duration_days"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Exhausted reports whether every use has been consumed
func (p PromoCode) Exhausted() bool {
	return p.UsedCount >= p.MaxUses
}

// Expired reports whether the code is past its expiry at now
func (p PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// ReferralCode maps a globally unique referral code to its owner
type ReferralCode struct {
	Code        string    `json:"code" db:"code"`
	OwnerUserID string    `json:"owner_user_id" db:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
