package domain

import "time"

// ProductFamily is a paid product line sold through the purchase authority
type ProductFamily string

const (
	FamilyPremium ProductFamily = "premium"
	FamilyPro     ProductFamily = "pro"
)

// Plan maps the family to the plan it grants
func (f ProductFamily) Plan() Plan {
	if f == FamilyPro {
		return PlanPro
	}
	return PlanPremium
}

// Platform is the runtime the purchase authority is configured for
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// IsNative reports whether the platform has a store purchase SDK
func (p Platform) IsNative() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// AuthorityState tracks the purchase authority session state machine
type AuthorityState string

const (
	AuthorityUninitialized     AuthorityState = "uninitialized"
	AuthorityInitializing      AuthorityState = "initializing"
	AuthorityConfigured        AuthorityState = "configured-with-entitlements"
	AuthorityConfiguredEmpty   AuthorityState = "configured-empty"
	AuthorityFailedForcedEmpty AuthorityState = "failed-forced-empty"
	// AuthorityUnavailable is the terminal state on platforms without a store
	// SDK. It proves nothing about the user's purchases.
	AuthorityUnavailable       AuthorityState = "unavailable"
)

// Resolved reports whether initialization has finished, successfully or not
func (s AuthorityState) Resolved() bool {
	switch s {
	case AuthorityConfigured, AuthorityConfiguredEmpty, AuthorityFailedForcedEmpty, AuthorityUnavailable:
		return true
	}
	return false
}

// Entitlement is one active grant reported by the purchase authority
type Entitlement struct {
	Family            ProductFamily `json:"family"`
	ProductIdentifier string        `json:"productIdentifier"`
	ExpiresAt         *time.Time    `json:"expiresAt,omitempty"`
}

// EntitlementSnapshot is the latest entitlement set together with the state it was observed in
type EntitlementSnapshot struct {
	State        AuthorityState                `json:"state"`
	Entitlements map[ProductFamily]Entitlement `json:"entitlements"`
}

// Has reports whether the family is active
func (s EntitlementSnapshot) Has(f ProductFamily) bool {
	_, ok := s.Entitlements[f]
	return ok
}

// Plan returns the plan implied by the set; pro wins over premium
func (s EntitlementSnapshot) Plan() Plan {
	switch {
	case s.Has(FamilyPro):
		return PlanPro
	case s.Has(FamilyPremium):
		return PlanPremium
	default:
		return PlanFree
	}
}

// Top returns the entitlement backing Plan(), if any
func (s EntitlementSnapshot) Top() (Entitlement, bool) {
	if e, ok := s.Entitlements[FamilyPro]; ok {
		return e, true
	}
	e, ok := s.Entitlements[FamilyPremium]
	return e, ok
}

// Families lists active families in precedence order
func (s EntitlementSnapshot) Families() []ProductFamily {
	out := make([]ProductFamily, 0, 2)
	for _, f := range []ProductFamily{FamilyPro, FamilyPremium} {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// NewEntitlementSnapshot derives the configured state from the entitlement list
func NewEntitlementSnapshot(entitlements []Entitlement) EntitlementSnapshot {
	snap := EntitlementSnapshot{
		State:        AuthorityConfiguredEmpty,
		Entitlements: make(map[ProductFamily]Entitlement, len(entitlements)),
	}
	for _, e := range entitlements {
		snap.Entitlements[e.Family] = e
	}
	if len(snap.Entitlements) > 0 {
		snap.State = AuthorityConfigured
	}
	return snap
}

// ForcedEmptySnapshot is the fallback when initialization fails or times out
func ForcedEmptySnapshot() EntitlementSnapshot {
	return EntitlementSnapshot{
		State:        AuthorityFailedForcedEmpty,
		Entitlements: map[ProductFamily]Entitlement{},
	}
}

// UnavailableSnapshot is reported where no purchase authority exists
func UnavailableSnapshot() EntitlementSnapshot {
	return EntitlementSnapshot{
		State:        AuthorityUnavailable,
		Entitlements: map[ProductFamily]Entitlement{},
	}
}
