package purchase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/domain"
)

const subscriberBody = `{
  "subscriber": {
    "entitlements": {
      "pro": {"expires_date": "2999-01-01T00:00:00Z", "product_identifier": "smartlist_pro_yearly"},
      "premium": {"expires_date": "2000-01-01T00:00:00Z", "product_identifier": "smartlist_premium_monthly"}
    }
  }
}`

func newRevenueCatServer(t *testing.T, handler http.HandlerFunc) *RevenueCatProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRevenueCatProvider(srv.URL+"/v1", srv.Client())
}

func TestRevenueCat_GetCustomerInfo(t *testing.T) {
	p := newRevenueCatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/subscribers/user%201", r.URL.EscapedPath())
		assert.Equal(t, "Bearer appl_key", r.Header.Get("Authorization"))
		assert.Equal(t, "ios", r.Header.Get(RevenueCatPlatformHeader))
		_, _ = w.Write([]byte(subscriberBody))
	})

	require.NoError(t, p.Configure(context.Background(), ProviderConfig{APIKey: "appl_key", AppUserID: "user 1", Platform: domain.PlatformIOS}))

	info, err := p.GetCustomerInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, info.Entitlements, 2)

	active := map[string]bool{}
	for _, e := range info.Entitlements {
		active[e.Identifier] = e.IsActive
	}
	assert.True(t, active["pro"])
	assert.False(t, active["premium"])
}

func TestRevenueCat_Configure(t *testing.T) {
	p := NewRevenueCatProvider("http://unused", nil)

	assert.Error(t, p.Configure(context.Background(), ProviderConfig{AppUserID: "u"}))
	assert.Error(t, p.Configure(context.Background(), ProviderConfig{APIKey: "k"}))

	require.NoError(t, p.Configure(context.Background(), ProviderConfig{APIKey: "k", AppUserID: "u"}))
	assert.ErrorIs(t, p.Configure(context.Background(), ProviderConfig{APIKey: "k", AppUserID: "u"}), ErrAlreadyConfigured)
	assert.NoError(t, p.Configure(context.Background(), ProviderConfig{APIKey: "k", AppUserID: "other"}))

	_, err := NewRevenueCatProvider("http://unused", nil).GetCustomerInfo(context.Background())
	assert.Error(t, err, "unconfigured provider must refuse requests")
}

func TestRevenueCat_PurchasePackage(t *testing.T) {
	var received receiptRequest
	p := newRevenueCatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/receipts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(subscriberBody))
	})
	require.NoError(t, p.Configure(context.Background(), ProviderConfig{APIKey: "k", AppUserID: "user-1", Platform: domain.PlatformAndroid}))

	info, err := p.PurchasePackage(context.Background(), PurchaseRequest{ProductID: "smartlist_pro_yearly", FetchToken: "gp-token"})
	require.NoError(t, err)
	assert.Len(t, info.Entitlements, 2)
	assert.Equal(t, "user-1", received.AppUserID)
	assert.Equal(t, "gp-token", received.FetchToken)
	assert.Equal(t, "smartlist_pro_yearly", received.ProductID)

	_, err = p.PurchasePackage(context.Background(), PurchaseRequest{ProductID: "smartlist_pro_yearly"})
	assert.ErrorIs(t, err, ErrUserCancelled)
}

func TestRevenueCat_ErrorStatus(t *testing.T) {
	p := newRevenueCatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	})
	require.NoError(t, p.Configure(context.Background(), ProviderConfig{APIKey: "bad", AppUserID: "u"}))

	_, err := p.GetCustomerInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
