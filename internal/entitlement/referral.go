package entitlement

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// ApplyReferralCode redeems a code that may be either a promo or a referral
// code. The promo collection is asked first; only a typed not-found falls
// through to the referral registry.
func (e *Engine) ApplyReferralCode(ctx context.Context, code string) RedemptionResult {
	log := logger.FromContext(ctx)

	code = NormalizeCode(code)
	if code == "" {
		return failed(ResultInvalid, MsgCodeEmpty)
	}

	promo, err := e.promos.GetPromoCode(ctx, code)
	switch {
	case err == nil:
		return e.applyPromo(ctx, code, promo)
	case !errors.Is(err, domain.ErrPromoCodeNotFound):
		log.Warn(ErrMsgLookupFailed, "error", err)
		return failed(ResultError, MsgTryAgain)
	}

	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return failed(ResultError, MsgTryAgain)
	}
	usedReferral := e.recordLocked().HasUsedReferral()
	id := e.identity
	e.mu.Unlock()

	if usedReferral {
		return failed(ResultAlreadyUsed, MsgReferralAlreadyUsed)
	}
	if id.IsGuest() {
		return failed(ResultNotLoggedIn, MsgNotLoggedIn)
	}

	owner, err := e.referrals.GetReferralOwner(ctx, code)
	if errors.Is(err, domain.ErrReferralCodeNotFound) {
		return failed(ResultNotFound, MsgCodeNotFound)
	}
	if err != nil {
		log.Warn(ErrMsgLookupFailed, "error", err)
		return failed(ResultError, MsgTryAgain)
	}
	if owner == id.Key {
		return failed(ResultInvalid, MsgSelfReferral)
	}

	now := e.now()
	e.mu.Lock()
	if e.identity != id {
		e.mu.Unlock()
		return failed(ResultError, MsgTryAgain)
	}
	gen := e.generation
	rec := e.recordLocked()
	plan := e.state.Plan
	e.mu.Unlock()

	patch := domain.SubscriptionPatch{}.Set(domain.FieldUsedReferralCode, code)
	if plan == domain.PlanFree {
		patch = merge(patch, trialExtensionPatch(rec, now))
	}
	if err := e.confirmGrant(ctx, id, patch); err != nil {
		return failed(ResultError, MsgTryAgain)
	}
	e.applyGrant(ctx, gen, SourceReferral, patch, event.NewRedemptionEvent(event.ReferralRedeemed, id.Key, code, plan))

	e.creditReferralOwner(ctx, owner, now)
	return succeeded(MsgReferralApplied, plan)
}

// creditReferralOwner bumps the owner's referral count and, while they are on
// the free plan, extends their trial. Failures are logged only.
func (e *Engine) creditReferralOwner(ctx context.Context, owner string, now time.Time) {
	log := logger.FromContext(ctx).With("owner", owner)

	doc, err := e.docs.Get(ctx, owner)
	if err != nil || doc == nil {
		log.Warn(LogMsgOwnerBonusFailed, "error", err)
		return
	}

	rec := doc.Subscription
	patch := domain.SubscriptionPatch{}.Set(domain.FieldReferralCount, rec.ReferralCount+1)
	if rec.Plan == domain.PlanFree || rec.Plan == "" {
		patch = merge(patch, trialExtensionPatch(rec, now))
	}
	if err := e.docs.Patch(ctx, owner, patch); err != nil {
		log.Warn(LogMsgOwnerBonusFailed, "error", err)
	}
}

// EnsureReferralCode returns the identity's referral code, issuing one if absent
func (e *Engine) EnsureReferralCode(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return "", domain.ErrEngineClosed
	}
	code := e.recordLocked().ReferralCode
	e.mu.Unlock()

	if code != "" {
		return code, nil
	}
	return e.issueReferralCode(ctx)
}

// RegenerateReferralCode replaces the identity's referral code
func (e *Engine) RegenerateReferralCode(ctx context.Context) (string, error) {
	return e.issueReferralCode(ctx)
}

func (e *Engine) issueReferralCode(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.closed || e.generation == 0 {
		e.mu.Unlock()
		return "", domain.ErrEngineClosed
	}
	id, gen := e.identity, e.generation
	e.mu.Unlock()

	if id.IsGuest() {
		return "", domain.ErrNotLoggedIn
	}

	for attempt := 1; attempt <= MaxReferralCodeAttempts; attempt++ {
		code, err := e.generateCode()
		if err != nil {
			return "", fmt.Errorf("%s: %w", ErrMsgReferralGenerate, err)
		}

		err = e.referrals.RegisterReferralCode(ctx, id.Key, code)
		if errors.Is(err, domain.ErrReferralCodeTaken) {
			logger.FromContext(ctx).Debug(LogMsgReferralCollision, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", ErrMsgReferralRegister, err)
		}

		patch := domain.SubscriptionPatch{}.Set(domain.FieldReferralCode, code)
		if err := e.confirmGrant(ctx, id, patch); err != nil {
			return "", err
		}
		e.applyGrant(ctx, gen, SourceReferral, patch)
		return code, nil
	}
	return "", errors.New(ErrMsgCodeSpaceFull)
}

// GenerateReferralCode returns SMART- followed by random uppercase alphanumerics
func GenerateReferralCode() (string, error) {
	alphabet := domain.ReferralCodeAlphabet
	limit := big.NewInt(int64(len(alphabet)))

	buf := make([]byte, domain.ReferralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return domain.ReferralCodePrefix + string(buf), nil
}
