package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/purchase"
)

// NewAuthorityFactory returns the per-session purchase authority constructor.
// Native platforms talk to RevenueCat over one shared HTTP client. Web gets
// the stub provider, which resolves to the unavailable state and never
// proves an expiry.
func NewAuthorityFactory(cfg *config.Config) entitlement.AuthorityFactory {
	clientCfg := purchase.Config{
		Platform:    cfg.PurchasePlatform,
		APIKey:      cfg.RevenueCatAPIKey(),
		InitTimeout: cfg.PurchaseInitTimeout,
	}

	if !cfg.PurchasePlatform.IsNative() {
		slog.Info(LogMsgAuthorityConfigured, "platform", cfg.PurchasePlatform, "provider", "web")
		return func() entitlement.Authority {
			return purchase.NewClient(purchase.NewWebProvider(), clientCfg)
		}
	}

	httpClient := &http.Client{Timeout: RevenueCatHTTPTimeout}
	slog.Info(LogMsgAuthorityConfigured, "platform", cfg.PurchasePlatform, "provider", "revenuecat")
	return func() entitlement.Authority {
		return purchase.NewClient(purchase.NewRevenueCatProvider(cfg.RevenueCatBaseURL, httpClient), clientCfg)
	}
}
