package memory

import (
	"context"
	"sync"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// PromoStore is an in-memory repository.PromoCodes
type PromoStore struct {
	mu          sync.Mutex
	codes       map[string]domain.PromoCode
	redemptions map[string]map[string]struct{}
}

// NewPromoStore creates a store seeded with codes
func NewPromoStore(codes ...domain.PromoCode) *PromoStore {
	s := &PromoStore{
		codes:       make(map[string]domain.PromoCode),
		redemptions: make(map[string]map[string]struct{}),
	}
	for _, c := range codes {
		s.Put(c)
	}
	return s
}

var (
	_ repository.PromoCodes   = (*PromoStore)(nil)
	_ repository.PromoCatalog = (*PromoStore)(nil)
)

// Put inserts or replaces a code
func (s *PromoStore) Put(code domain.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Code] = code
}

// UpsertPromoCode stores code, keeping the used count of an existing entry
func (s *PromoStore) UpsertPromoCode(_ context.Context, code domain.PromoCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.codes[code.Code]
	if ok {
		code.UsedCount = existing.UsedCount
		code.CreatedAt = existing.CreatedAt
	}
	s.codes[code.Code] = code
	return !ok, nil
}

// GetPromoCode returns a copy of the code
func (s *PromoStore) GetPromoCode(_ context.Context, code string) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrPromoCodeNotFound
	}
	return &p, nil
}

// RedeemPromoCode consumes one use for userID
func (s *PromoStore) RedeemPromoCode(_ context.Context, code, userID string) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrPromoCodeNotFound
	}
	if _, done := s.redemptions[code][userID]; done {
		return nil, domain.ErrPromoAlreadyRedeemed
	}
	if p.Exhausted() {
		return nil, domain.ErrPromoCodeExhausted
	}

	p.UsedCount++
	s.codes[code] = p
	if s.redemptions[code] == nil {
		s.redemptions[code] = make(map[string]struct{})
	}
	s.redemptions[code][userID] = struct{}{}
	return &p, nil
}
