package memory

import (
	"context"
	"sync"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// ReferralStore is an in-memory repository.Referrals
type ReferralStore struct {
	mu      sync.Mutex
	owners  map[string]string // code -> owner
	byOwner map[string]string // owner -> code
}

// NewReferralStore creates an empty registry
func NewReferralStore() *ReferralStore {
	return &ReferralStore{
		owners:  make(map[string]string),
		byOwner: make(map[string]string),
	}
}

var _ repository.Referrals = (*ReferralStore)(nil)

// GetReferralOwner returns the owner of code
func (s *ReferralStore) GetReferralOwner(_ context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.owners[code]
	if !ok {
		return "", domain.ErrReferralCodeNotFound
	}
	return owner, nil
}

// RegisterReferralCode makes code the owner's only code
func (s *ReferralStore) RegisterReferralCode(_ context.Context, ownerUserID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.owners[code]; ok && owner != ownerUserID {
		return domain.ErrReferralCodeTaken
	}
	if old, ok := s.byOwner[ownerUserID]; ok && old != code {
		delete(s.owners, old)
	}
	s.owners[code] = ownerUserID
	s.byOwner[ownerUserID] = code
	return nil
}
