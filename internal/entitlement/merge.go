package entitlement

import (
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// MergeInput is the latest value from each source of truth
type MergeInput struct {
	// Current is the locally held record: the snapshot plus optimistic mutations
	Current domain.SubscriptionState
	// Remote is the latest remote document, nil for guests or before first delivery
	Remote       *domain.SubscriptionState
	Entitlements domain.EntitlementSnapshot
	Now          time.Time
}

// MergeOutcome is the reconciled state plus the follow-ups it implies
type MergeOutcome struct {
	State domain.SubscriptionState
	// StalePlanOverridden is set when the remote plan disagreed with the
	// purchase authority and was replaced in memory
	StalePlanOverridden bool
	RemotePlan          domain.Plan
	// NeedsDowngrade is set when a configured, empty entitlement set proves a
	// paid plan lapsed. The caller writes the downgrade.
	NeedsDowngrade bool
	// ForcedFree is set when an unconfigured authority forced plan=free for gating only
	ForcedFree bool
}

// Reconcile merges the sources. It is a pure function of its input, so the
// order in which the sources delivered their values cannot change the result.
func Reconcile(in MergeInput) MergeOutcome {
	var base domain.SubscriptionState
	if in.Remote != nil {
		base = in.Remote.Clone()
	} else {
		base = in.Current.Clone()
	}
	out := MergeOutcome{RemotePlan: base.Plan}

	if base.IsAdminOverride {
		out.State = Derive(base, in.Now)
		return out
	}

	switch in.Entitlements.State {
	case domain.AuthorityConfigured:
		authorityPlan := in.Entitlements.Plan()
		if base.Plan != authorityPlan && !promoOutranks(base, authorityPlan, in.Now) {
			out.StalePlanOverridden = in.Remote != nil
			base.Plan = authorityPlan
			if e, ok := in.Entitlements.Top(); ok && e.ExpiresAt != nil {
				end := *e.ExpiresAt
				base.SubscriptionEndDate = &end
			}
		}

	case domain.AuthorityConfiguredEmpty:
		if base.Plan.IsPaid() && !PromoActive(base, in.Now) {
			out.NeedsDowngrade = true
			base = downgraded(base)
		}

	case domain.AuthorityFailedForcedEmpty:
		if base.Plan.IsPaid() && !PromoActive(base, in.Now) {
			out.ForcedFree = true
			base.Plan = domain.PlanFree
		}

	case domain.AuthorityUnavailable:
		// Web checkout and other devices record their grants in the remote
		// document, so it stands as is
	}

	out.State = Derive(base, in.Now)
	return out
}

// PromoActive reports whether a redeemed promo still covers the current plan
func PromoActive(s domain.SubscriptionState, now time.Time) bool {
	if !s.HasUsedPromo() {
		return false
	}
	return s.SubscriptionEndDate == nil || now.Before(*s.SubscriptionEndDate)
}

// promoOutranks keeps a promo-granted plan that is above what the authority sells the user
func promoOutranks(s domain.SubscriptionState, authorityPlan domain.Plan, now time.Time) bool {
	return PromoActive(s, now) && planRank(s.Plan) > planRank(authorityPlan)
}

func planRank(p domain.Plan) int {
	switch p {
	case domain.PlanPro:
		return 2
	case domain.PlanPremium:
		return 1
	default:
		return 0
	}
}

// downgraded moves s to the expired free state. Trial fields are cleared so a
// churned subscriber cannot fall back into a fresh trial.
func downgraded(s domain.SubscriptionState) domain.SubscriptionState {
	s.Plan = domain.PlanFree
	s.TrialStartDate = nil
	s.TrialEndDate = nil
	s.IsTrialActive = false
	s.SubscriptionEndDate = nil
	s.DailyLimit = CalculateDailyLimit(domain.PlanFree, false, s.AdRewardCount)
	return s
}
