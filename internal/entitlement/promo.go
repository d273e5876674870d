package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// NormalizeCode canonicalizes user-typed promo and referral codes: trimmed,
// full-width characters folded, upper-cased.
func NormalizeCode(code string) string {
	folded := width.Fold.String(strings.TrimSpace(code))
	return cases.Upper(language.Und).String(folded)
}

// ApplyPromoCode redeems a promo code once per identity. The plan is granted
// in memory only after the remote document accepted it.
func (e *Engine) ApplyPromoCode(ctx context.Context, code string) RedemptionResult {
	code = NormalizeCode(code)
	if code == "" {
		return failed(ResultInvalid, MsgCodeEmpty)
	}
	return e.applyPromo(ctx, code, nil)
}

// applyPromo runs the promo path. promo is the already fetched code, if any.
func (e *Engine) applyPromo(ctx context.Context, code string, promo *domain.PromoCode) RedemptionResult {
	log := logger.FromContext(ctx)

	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return failed(ResultError, MsgTryAgain)
	}
	usedPromo := e.recordLocked().HasUsedPromo()
	id, gen := e.identity, e.generation
	e.mu.Unlock()

	if usedPromo {
		return failed(ResultAlreadyUsed, MsgPromoAlreadyUsed)
	}
	if id.IsGuest() {
		return failed(ResultNotLoggedIn, MsgNotLoggedIn)
	}

	if promo == nil {
		p, err := e.promos.GetPromoCode(ctx, code)
		if errors.Is(err, domain.ErrPromoCodeNotFound) {
			return failed(ResultNotFound, MsgCodeNotFound)
		}
		if err != nil {
			log.Warn(ErrMsgLookupFailed, "error", err)
			return failed(ResultError, MsgTryAgain)
		}
		promo = p
	}

	now := e.now()
	if res, ok := validatePromo(*promo, now); !ok {
		return res
	}

	redeemed, err := e.promos.RedeemPromoCode(ctx, code, id.Key)
	switch {
	case errors.Is(err, domain.ErrPromoAlreadyRedeemed):
		// The usage row exists but the grant never reached the document
		log.Info(LogMsgPromoResumed, "code", code)
		redeemed = promo
	case errors.Is(err, domain.ErrPromoCodeExhausted):
		return failed(ResultExhausted, MsgPromoExhausted)
	case errors.Is(err, domain.ErrPromoCodeNotFound):
		return failed(ResultNotFound, MsgCodeNotFound)
	case err != nil:
		log.Warn(ErrMsgLookupFailed, "error", err)
		return failed(ResultError, MsgTryAgain)
	}

	plan := redeemed.Plan
	if !plan.IsPaid() {
		plan = domain.PlanPremium
	}
	days := redeemed.DurationDays
	if days <= 0 {
		days = DefaultPromoDurationDays
	}
	end := now.Add(time.Duration(days) * 24 * time.Hour)

	e.mu.Lock()
	ads := e.recordLocked().AdRewardCount
	e.mu.Unlock()

	patch := upgradePatch(plan, end, ads).Set(domain.FieldPromoCodeUsed, code)
	if err := e.confirmGrant(ctx, id, patch); err != nil {
		return failed(ResultError, MsgTryAgain)
	}

	e.applyGrant(ctx, gen, SourcePromo, patch, event.NewRedemptionEvent(event.PromoRedeemed, id.Key, code, plan))
	return succeeded(MsgPromoApplied, plan)
}

// validatePromo checks the fetched code. Exhaustion is left to the redeem
// call, which reports a retry by the same user before a full code.
func validatePromo(p domain.PromoCode, now time.Time) (RedemptionResult, bool) {
	switch {
	case !p.IsActive:
		return failed(ResultInactive, MsgPromoInactive), false
	case p.Expired(now):
		return failed(ResultExpired, MsgPromoExpired), false
	}
	return RedemptionResult{}, true
}
