package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// RevenueCatProvider talks to the RevenueCat REST API. It serves server-side
// receipt validation: the native store sheet runs on the device and the
// resulting fetch token is posted here.
type RevenueCatProvider struct {
	baseURL string
	client  *http.Client

	mu  sync.RWMutex
	cfg *ProviderConfig
}

// NewRevenueCatProvider creates a provider against baseURL
func NewRevenueCatProvider(baseURL string, client *http.Client) *RevenueCatProvider {
	if client == nil {
		client = &http.Client{Timeout: RevenueCatHTTPTimeout}
	}
	return &RevenueCatProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Configure binds the provider to one customer
func (p *RevenueCatProvider) Configure(_ context.Context, cfg ProviderConfig) error {
	if cfg.APIKey == "" {
		return errors.New(ErrMsgMissingAPIKey)
	}
	if cfg.AppUserID == "" {
		return errors.New(ErrMsgMissingAppUserID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg != nil {
		if p.cfg.AppUserID == cfg.AppUserID {
			return ErrAlreadyConfigured
		}
	}
	c := cfg
	p.cfg = &c
	return nil
}

func (p *RevenueCatProvider) GetCustomerInfo(ctx context.Context) (*CustomerInfo, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}
	return p.do(ctx, cfg, http.MethodGet, RevenueCatSubscribersPath+url.PathEscape(cfg.AppUserID), nil)
}

// PurchasePackage validates the receipt for req. A request without a fetch
// token means the store sheet was dismissed.
func (p *RevenueCatProvider) PurchasePackage(ctx context.Context, req PurchaseRequest) (*CustomerInfo, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}
	if req.FetchToken == "" {
		return nil, ErrUserCancelled
	}
	body := receiptRequest{
		AppUserID:  cfg.AppUserID,
		FetchToken: req.FetchToken,
		ProductID:  req.ProductID,
	}
	return p.do(ctx, cfg, http.MethodPost, RevenueCatReceiptsPath, body)
}

// RestorePurchases re-reads the subscriber; receipts are already attached server-side
func (p *RevenueCatProvider) RestorePurchases(ctx context.Context) (*CustomerInfo, error) {
	return p.GetCustomerInfo(ctx)
}

func (p *RevenueCatProvider) config() (ProviderConfig, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cfg == nil {
		return ProviderConfig{}, errors.New(ErrMsgNotConfigured)
	}
	return *p.cfg, nil
}

func (p *RevenueCatProvider) do(ctx context.Context, cfg ProviderConfig, method, path string, payload interface{}) (*CustomerInfo, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgBuildRequest, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBuildRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set(RevenueCatPlatformHeader, string(platformOrDefault(cfg.Platform)))
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: %d %s", ErrMsgUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded subscriberResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDecodeResponse, err)
	}
	return decoded.customerInfo(time.Now()), nil
}

type receiptRequest struct {
	AppUserID  string `json:"app_user_id"`
	FetchToken string `json:"fetch_token"`
	ProductID  string `json:"product_id,omitempty"`
}

type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate       *time.Time `json:"expires_date"`
			ProductIdentifier string     `json:"product_identifier"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

// customerInfo converts the wire shape. A nil expiry is a lifetime grant.
func (r subscriberResponse) customerInfo(now time.Time) *CustomerInfo {
	info := &CustomerInfo{Entitlements: make([]EntitlementInfo, 0, len(r.Subscriber.Entitlements))}
	for id, e := range r.Subscriber.Entitlements {
		info.Entitlements = append(info.Entitlements, EntitlementInfo{
			Identifier:        id,
			ProductIdentifier: e.ProductIdentifier,
			ExpiresAt:         e.ExpiresDate,
			IsActive:          e.ExpiresDate == nil || now.Before(*e.ExpiresDate),
		})
	}
	return info
}

var _ Provider = (*RevenueCatProvider)(nil)
var _ Provider = (*WebProvider)(nil)

// platformOrDefault keeps an unset platform out of request headers
func platformOrDefault(p domain.Platform) domain.Platform {
	if p == "" {
		return domain.PlatformWeb
	}
	return p
}
