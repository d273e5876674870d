package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"github.com/osse101/SmartList_Go/internal/domain"
)

func testConfig() Config {
	return Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://smartlist.example/checkout/success",
		CancelURL:  "https://smartlist.example/checkout/cancel",
		Prices: map[domain.ProductFamily]map[domain.BillingPeriod]string{
			domain.FamilyPro: {domain.PeriodMonthly: "price_pro_monthly"},
		},
	}
}

func TestCreateSession(t *testing.T) {
	c := NewStripeCheckout(testConfig())

	var got *stripe.CheckoutSessionParams
	c.createSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = params
		return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil
	}

	s, err := c.CreateSession(context.Background(), "u1", domain.FamilyPro, domain.PeriodMonthly)

	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", s.URL)

	require.NotNil(t, got)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *got.Mode)
	assert.Equal(t, "u1", *got.ClientReferenceID)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "price_pro_monthly", *got.LineItems[0].Price)
	assert.Equal(t, map[string]string{"user_id": "u1", "family": "pro", "period": "monthly"}, got.Metadata)
}

func TestCreateSession_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		family  domain.ProductFamily
		create  error
		wantErr error
	}{
		{"not configured", Config{}, domain.FamilyPro, nil, domain.ErrCheckoutNotConfigured},
		{"no price", testConfig(), domain.FamilyPremium, nil, domain.ErrUnknownProduct},
		{"stripe failure", testConfig(), domain.FamilyPro, errors.New("card network down"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStripeCheckout(tt.cfg)
			c.createSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
				return nil, tt.create
			}

			_, err := c.CreateSession(context.Background(), "u1", tt.family, domain.PeriodMonthly)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
