package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/database/memory"
	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/event"
	"github.com/osse101/SmartList_Go/internal/purchase"
	"github.com/osse101/SmartList_Go/internal/repository"
	"github.com/osse101/SmartList_Go/internal/snapshot"
)

var (
	testNow        = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	testToday      = "2026-03-10"
	testYesterday  = "2026-03-09"
	errUnavailable = errors.New("document store unavailable")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockAuthority is a mock purchase authority session
type MockAuthority struct {
	mock.Mock
}

func (m *MockAuthority) Initialize(ctx context.Context, appUserID string) domain.EntitlementSnapshot {
	args := m.Called(ctx, appUserID)
	return args.Get(0).(domain.EntitlementSnapshot)
}

func (m *MockAuthority) ActiveEntitlements() domain.EntitlementSnapshot {
	args := m.Called()
	return args.Get(0).(domain.EntitlementSnapshot)
}

func (m *MockAuthority) Purchase(ctx context.Context, req purchase.PurchaseRequest) (purchase.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(purchase.Result), args.Error(1)
}

func (m *MockAuthority) Restore(ctx context.Context) (domain.EntitlementSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EntitlementSnapshot), args.Error(1)
}

func authorityWith(snap domain.EntitlementSnapshot) *MockAuthority {
	m := &MockAuthority{}
	m.On("Initialize", mock.Anything, mock.Anything).Return(snap)
	return m
}

// heldAuthority resolves to snap once release is closed
func heldAuthority(snap domain.EntitlementSnapshot, release <-chan struct{}) *MockAuthority {
	m := &MockAuthority{}
	m.On("Initialize", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(snap)
	return m
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) PublishWithRetry(_ context.Context, evt event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) Count(t event.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, evt := range p.events {
		if evt.Type == t {
			n++
		}
	}
	return n
}

// flakyDocs wraps the memory store with switchable failures and an optional
// gate that holds every Patch until closed
type flakyDocs struct {
	*memory.DocumentStore

	mu         sync.Mutex
	fail       bool
	gate       chan struct{}
	deliveries chan struct{}
	patches    []domain.SubscriptionPatch
}

// Subscribe holds every delivery while HoldDeliveries is in effect
func (f *flakyDocs) Subscribe(ctx context.Context, userID string, onChange repository.DocumentHandler) (repository.Unsubscribe, error) {
	f.mu.Lock()
	hold := f.deliveries
	f.mu.Unlock()

	if hold == nil {
		return f.DocumentStore.Subscribe(ctx, userID, onChange)
	}
	return f.DocumentStore.Subscribe(ctx, userID, func(doc *domain.EntitlementDocument) {
		<-hold
		onChange(doc)
	})
}

func (f *flakyDocs) HoldDeliveries() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = make(chan struct{})
	return f.deliveries
}

func (f *flakyDocs) Patch(ctx context.Context, userID string, p domain.SubscriptionPatch) error {
	f.mu.Lock()
	f.patches = append(f.patches, p)
	fail, gate := f.fail, f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return errUnavailable
	}
	return f.DocumentStore.Patch(ctx, userID, p)
}

func (f *flakyDocs) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *flakyDocs) Hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *flakyDocs) PatchesWith(field string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.patches {
		if _, ok := p[field]; ok {
			n++
		}
	}
	return n
}

type harness struct {
	engine    *Engine
	store     *memory.DocumentStore
	docs      *flakyDocs
	promos    *memory.PromoStore
	referrals *memory.ReferralStore
	snapshots *snapshot.Store
	clock     *testClock
	events    *recordingPublisher
}

func newHarness(t *testing.T, authority Authority, opts ...Option) *harness {
	t.Helper()

	store := memory.NewDocumentStore()
	clock := &testClock{now: testNow}
	h := &harness{
		store:     store,
		docs:      &flakyDocs{DocumentStore: store},
		promos:    memory.NewPromoStore(),
		referrals: memory.NewReferralStore(),
		snapshots: snapshot.NewStore(snapshot.NewMemoryKV(), snapshot.WithClock(clock.Now, time.UTC)),
		clock:     clock,
		events:    &recordingPublisher{},
	}

	var factory AuthorityFactory
	if authority != nil {
		factory = func() Authority { return authority }
	}

	opts = append([]Option{WithClock(clock.Now, time.UTC)}, opts...)
	h.engine = NewEngine(Dependencies{
		Documents:    h.docs,
		Promos:       h.promos,
		Referrals:    h.referrals,
		Snapshots:    h.snapshots,
		NewAuthority: factory,
		Publisher:    h.events,
	}, opts...)

	t.Cleanup(func() {
		_ = h.engine.Close(context.Background())
	})
	return h
}

// seed writes a remote document directly, bypassing the engine
func (h *harness) seed(t *testing.T, userID string, s domain.SubscriptionState) {
	t.Helper()
	require.NoError(t, h.store.Patch(context.Background(), userID, domain.PatchFromState(s)))
}

func (h *harness) switchTo(t *testing.T, id domain.Identity) {
	t.Helper()
	require.NoError(t, h.engine.SwitchIdentity(context.Background(), id))
	h.engine.waitBackground()
}

func (h *harness) remote(t *testing.T, userID string) domain.SubscriptionState {
	t.Helper()
	doc, err := h.store.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, doc, "expected a remote document for %s", userID)
	return doc.Subscription
}

func trialState() domain.SubscriptionState {
	return domain.NewTrialState(testNow, testToday)
}

func paidState(plan domain.Plan, end time.Time) domain.SubscriptionState {
	return domain.SubscriptionState{
		Plan:                plan,
		DailyLimit:          CalculateDailyLimit(plan, false, 0),
		LastResetDate:       testToday,
		SubscriptionEndDate: &end,
	}
}

func configuredWith(families ...domain.ProductFamily) domain.EntitlementSnapshot {
	ents := make([]domain.Entitlement, 0, len(families))
	for _, f := range families {
		exp := testNow.Add(30 * 24 * time.Hour)
		ents = append(ents, domain.Entitlement{Family: f, ProductIdentifier: string(f) + "_monthly", ExpiresAt: &exp})
	}
	return domain.NewEntitlementSnapshot(ents)
}
