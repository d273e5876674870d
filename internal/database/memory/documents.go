// Package memory provides in-process implementations of the repository
// interfaces. They back the memory store backend and the engine tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// DocumentStore is an in-memory repository.EntitlementDocuments.
// Changes are delivered synchronously to subscribers after the write commits.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.EntitlementDocument
	// versions orders deliveries when concurrent patches race to notify
	versions map[string]uint64
	subs     map[string]map[uint64]*subscriber
	nextID   uint64
	now      func() time.Time
}

type subscriber struct {
	mu          sync.Mutex
	closed      bool
	lastVersion uint64
	handler     repository.DocumentHandler
}

// NewDocumentStore creates an empty store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:     make(map[string]domain.EntitlementDocument),
		versions: make(map[string]uint64),
		subs:     make(map[string]map[uint64]*subscriber),
		now:      time.Now,
	}
}

var _ repository.EntitlementDocuments = (*DocumentStore)(nil)

// Get returns a copy of the stored document or nil
func (s *DocumentStore) Get(_ context.Context, userID string) (*domain.EntitlementDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(userID), nil
}

// Patch merges fields into the subscription object, creating the document when absent
func (s *DocumentStore) Patch(ctx context.Context, userID string, fields domain.SubscriptionPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.docs[userID]
	if !ok {
		doc = domain.EntitlementDocument{UserID: userID}
	}
	merged, err := domain.ApplyPatch(doc.Subscription, fields)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	doc.Subscription = merged
	doc.UpdatedAt = s.now()
	s.docs[userID] = doc
	s.versions[userID]++
	version := s.versions[userID]
	snapshot := s.copyLocked(userID)
	subs := s.subscribersLocked(userID)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(snapshot, version)
	}
	return nil
}

// Subscribe delivers the current document and every later change
func (s *DocumentStore) Subscribe(_ context.Context, userID string, onChange repository.DocumentHandler) (repository.Unsubscribe, error) {
	sub := &subscriber{handler: onChange}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[uint64]*subscriber)
	}
	s.subs[userID][id] = sub
	current := s.copyLocked(userID)
	version := s.versions[userID]
	s.mu.Unlock()

	sub.deliver(current, version)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[userID], id)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			s.mu.Unlock()

			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
		})
	}, nil
}

// SubscriberCount reports live subscriptions for userID
func (s *DocumentStore) SubscriberCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[userID])
}

func (s *DocumentStore) copyLocked(userID string) *domain.EntitlementDocument {
	doc, ok := s.docs[userID]
	if !ok {
		return nil
	}
	out := doc
	out.Subscription = doc.Subscription.Clone()
	return &out
}

func (s *DocumentStore) subscribersLocked(userID string) []*subscriber {
	m := s.subs[userID]
	out := make([]*subscriber, 0, len(m))
	for _, sub := range m {
		out = append(out, sub)
	}
	return out
}

func (sub *subscriber) deliver(doc *domain.EntitlementDocument, version uint64) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed || (sub.lastVersion > 0 && version <= sub.lastVersion) {
		return
	}
	sub.lastVersion = version
	var copied *domain.EntitlementDocument
	if doc != nil {
		c := *doc
		c.Subscription = doc.Subscription.Clone()
		copied = &c
	}
	sub.handler(copied)
}
