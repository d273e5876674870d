package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/osse101/SmartList_Go/internal/checkout"
	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/purchase"
	"github.com/osse101/SmartList_Go/internal/usage"
)

// SessionSource hands out the live engine for an identity
type SessionSource interface {
	Get(ctx context.Context, id domain.Identity) (*entitlement.Engine, error)
}

// CheckoutCreator starts hosted web checkouts
type CheckoutCreator interface {
	CreateSession(ctx context.Context, userID string, family domain.ProductFamily, period domain.BillingPeriod) (*checkout.Session, error)
}

// SubscriptionHandler serves the per-identity subscription API
type SubscriptionHandler struct {
	sessions  SessionSource
	publisher event.Publisher
	checkout  CheckoutCreator
}

// NewSubscriptionHandler creates a subscription handler. A nil checkout
// disables the web checkout route.
func NewSubscriptionHandler(sessions SessionSource, publisher event.Publisher, checkout CheckoutCreator) *SubscriptionHandler {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &SubscriptionHandler{
		sessions:  sessions,
		publisher: publisher,
		checkout:  checkout,
	}
}

// SubscriptionResponse is the caller's current entitlement view
type SubscriptionResponse struct {
	Identity         string                   `json:"identity"`
	Guest            bool                     `json:"guest"`
	Subscription     domain.SubscriptionState `json:"subscription"`
	RemainingActions int                      `json:"remainingActions"`
	CanPerformAction bool                     `json:"canPerformAction"`
}

// ActionRequest names a billable action
type ActionRequest struct {
	Action string `json:"action" validate:"required,action"`
}

// CodeRequest carries a promo or referral code
type CodeRequest struct {
	Code string `json:"code" validate:"required,max=64,excludesall=\x00\n\r\t"`
}

// ReferralCodeResponse returns the caller's own referral code
type ReferralCodeResponse struct {
	ReferralCode string `json:"referralCode"`
}

// PurchaseRequest buys a store product through the purchase authority
type PurchaseRequest struct {
	ProductID  string `json:"productId" validate:"required,max=128"`
	FetchToken string `json:"fetchToken,omitempty"`
	Period     string `json:"period,omitempty" validate:"period"`
}

// CheckoutRequest starts a Stripe checkout
type CheckoutRequest struct {
	Family string `json:"family" validate:"required,family"`
	Period string `json:"period,omitempty" validate:"period"`
}

// session resolves the caller's engine. On false the response is written.
func (h *SubscriptionHandler) session(w http.ResponseWriter, r *http.Request) (*entitlement.Engine, *http.Request, bool) {
	id, ok := identityFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrMsgMissingIdentity)
		return nil, r, false
	}
	r = r.WithContext(logger.WithIdentity(r.Context(), id.Key))

	engine, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		logger.FromContext(r.Context()).Error(LogMsgSessionFailed, "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		if status == http.StatusInternalServerError {
			msg = ErrMsgSessionFailed
		}
		respondError(w, status, msg)
		return nil, r, false
	}
	return engine, r, true
}

func subscriptionResponse(engine *entitlement.Engine) SubscriptionResponse {
	id := engine.Identity()
	return SubscriptionResponse{
		Identity:         id.Key,
		Guest:            id.IsGuest(),
		Subscription:     engine.State(),
		RemainingActions: engine.RemainingActions(),
		CanPerformAction: engine.CanPerformAction(),
	}
}

// HandleGetSubscription returns the merged subscription state
// GET /api/v1/subscription
func (h *SubscriptionHandler) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	// A new day may have started since the session was last touched
	engine.CheckDailyReset(r.Context())
	respondJSON(w, http.StatusOK, subscriptionResponse(engine))
}

// HandlePerformAction counts one billable action against the daily allowance
// POST /api/v1/actions
func (h *SubscriptionHandler) HandlePerformAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Perform action"); err != nil {
		return
	}
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}

	engine.CheckDailyReset(r.Context())
	gate := usage.NewGate(engine, h.publisher)
	if err := gate.Perform(r.Context(), usage.Action(req.Action), nil); err != nil {
		if errors.Is(err, domain.ErrDailyLimitReached) {
			logger.FromContext(r.Context()).Info(LogMsgActionDenied, "action", req.Action)
			respondJSON(w, http.StatusTooManyRequests, subscriptionResponse(engine))
			return
		}
		respondServiceError(w, r, ErrMsgActionFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, subscriptionResponse(engine))
}

// HandleApplyPromo redeems a promo code
// POST /api/v1/promo
func (h *SubscriptionHandler) HandleApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Apply promo"); err != nil {
		return
	}
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	respondRedemption(w, engine.ApplyPromoCode(r.Context(), req.Code))
}

// HandleApplyReferral redeems a referral code, or a promo code entered in the
// referral field
// POST /api/v1/referral
func (h *SubscriptionHandler) HandleApplyReferral(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Apply referral"); err != nil {
		return
	}
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	respondRedemption(w, engine.ApplyReferralCode(r.Context(), req.Code))
}

// HandleRewardAd credits a completed rewarded ad
// POST /api/v1/rewards/ad
func (h *SubscriptionHandler) HandleRewardAd(w http.ResponseWriter, r *http.Request) {
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	respondRedemption(w, engine.RewardAdWatched(r.Context()))
}

// Redemption failures are outcomes, not transport errors; only engine
// faults surface as 5xx
func respondRedemption(w http.ResponseWriter, res entitlement.RedemptionResult) {
	status := http.StatusOK
	switch res.Code {
	case entitlement.ResultOK:
	case entitlement.ResultNotLoggedIn:
		status = http.StatusUnauthorized
	case entitlement.ResultNotFound:
		status = http.StatusNotFound
	case entitlement.ResultError:
		status = http.StatusBadGateway
	default:
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, res)
}

// HandleGetReferralCode returns the caller's referral code, issuing one first
// GET /api/v1/referral/code
func (h *SubscriptionHandler) HandleGetReferralCode(w http.ResponseWriter, r *http.Request) {
	h.referralCode(w, r, (*entitlement.Engine).EnsureReferralCode)
}

// HandleRegenerateReferralCode replaces the caller's referral code
// POST /api/v1/referral/code/regenerate
func (h *SubscriptionHandler) HandleRegenerateReferralCode(w http.ResponseWriter, r *http.Request) {
	h.referralCode(w, r, (*entitlement.Engine).RegenerateReferralCode)
}

func (h *SubscriptionHandler) referralCode(w http.ResponseWriter, r *http.Request, issue func(*entitlement.Engine, context.Context) (string, error)) {
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	code, err := issue(engine, r.Context())
	if err != nil {
		respondServiceError(w, r, ErrMsgReferralCodeFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, ReferralCodeResponse{ReferralCode: code})
}

// HandlePurchase buys a product through the purchase authority
// POST /api/v1/purchase
func (h *SubscriptionHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Purchase"); err != nil {
		return
	}
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())

	out, err := engine.PurchaseProduct(r.Context(), purchase.PurchaseRequest{
		ProductID:  req.ProductID,
		FetchToken: req.FetchToken,
	}, periodOrDefault(domain.BillingPeriod(req.Period)))
	if err != nil {
		respondServiceError(w, r, ErrMsgPurchaseFailed, err)
		return
	}
	if out.Cancelled {
		log.Info(LogMsgPurchaseCancelled, "product_id", req.ProductID)
	} else {
		log.Info(LogMsgPurchaseCompleted, "product_id", req.ProductID, "plan", out.Plan)
	}
	respondJSON(w, http.StatusOK, out)
}

// HandleRestore re-reads store receipts and reconciles the result
// POST /api/v1/purchase/restore
func (h *SubscriptionHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	engine, r, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := engine.RestorePurchases(r.Context()); err != nil {
		respondServiceError(w, r, ErrMsgRestoreFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, subscriptionResponse(engine))
}

// HandleWebCheckout creates a Stripe checkout session for a signed-in user
// POST /api/v1/checkout/web
func (h *SubscriptionHandler) HandleWebCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Web checkout"); err != nil {
		return
	}
	if h.checkout == nil {
		respondServiceError(w, r, ErrMsgCheckoutFailed, domain.ErrCheckoutNotConfigured)
		return
	}
	id, ok := identityFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrMsgMissingIdentity)
		return
	}
	if id.IsGuest() {
		respondServiceError(w, r, ErrMsgCheckoutFailed, domain.ErrNotLoggedIn)
		return
	}

	sess, err := h.checkout.CreateSession(r.Context(), id.Key,
		domain.ProductFamily(req.Family), periodOrDefault(domain.BillingPeriod(req.Period)))
	if err != nil {
		respondServiceError(w, r, ErrMsgCheckoutFailed, err)
		return
	}
	logger.FromContext(r.Context()).Info(LogMsgCheckoutCreated, "identity", id.Key, "session_id", sess.ID)
	respondJSON(w, http.StatusCreated, sess)
}
