// Package checkout creates hosted Stripe Checkout sessions for web purchases,
// where no store purchase SDK exists.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	stripesession "github.com/stripe/stripe-go/v83/checkout/session"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// Config configures StripeCheckout
type Config struct {
	SecretKey  string
	Prices     map[domain.ProductFamily]map[domain.BillingPeriod]string
	SuccessURL string
	CancelURL  string
}

// Session is a created checkout session
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeCheckout builds subscription-mode checkout sessions
type StripeCheckout struct {
	cfg           Config
	createSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeCheckout creates a checkout client. It is usable only when Enabled.
func NewStripeCheckout(cfg Config) *StripeCheckout {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &StripeCheckout{
		cfg:           cfg,
		createSession: stripesession.New,
	}
}

// Enabled reports whether a secret key and return URLs are configured
func (c *StripeCheckout) Enabled() bool {
	return c != nil && c.cfg.SecretKey != "" && c.cfg.SuccessURL != "" && c.cfg.CancelURL != ""
}

// CreateSession starts a hosted checkout for family and period on behalf of userID
func (c *StripeCheckout) CreateSession(ctx context.Context, userID string, family domain.ProductFamily, period domain.BillingPeriod) (*Session, error) {
	if !c.Enabled() {
		return nil, domain.ErrCheckoutNotConfigured
	}
	price := strings.TrimSpace(c.cfg.Prices[family][period])
	if price == "" {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownProduct, family, period)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			MetadataUserID: userID,
			MetadataFamily: string(family),
			MetadataPeriod: string(period),
		},
	}
	params.Context = ctx

	s, err := c.createSession(params)
	if err != nil {
		logger.FromContext(ctx).Error(LogMsgSessionFailed, "family", family, "period", period, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrMsgCreateSession, err)
	}
	if s == nil || strings.TrimSpace(s.URL) == "" {
		return nil, fmt.Errorf("%s", ErrMsgMissingURL)
	}

	logger.FromContext(ctx).Info(LogMsgSessionCreated, "session_id", s.ID, "family", family)
	return &Session{ID: s.ID, URL: s.URL}, nil
}
