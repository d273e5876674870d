package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// Store maps identities to their last known subscription state
type Store struct {
	kv  KV
	now func() time.Time
	loc *time.Location
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the time source and calendar used for trial defaults
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore wraps kv
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type envelope struct {
	Version int                      `json:"v"`
	State   domain.SubscriptionState `json:"state"`
	SavedAt time.Time                `json:"savedAt"`
}

// Load returns nil when nothing is stored for identityKey. Undecodable bytes
// yield fresh trial defaults rather than an error.
func (s *Store) Load(ctx context.Context, identityKey string) (*domain.SubscriptionState, error) {
	raw, found, err := s.kv.Get(ctx, key(identityKey))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.Version != SnapshotVersion || !env.State.Plan.Valid() {
		slog.Default().Warn(LogMsgSnapshotCorrupt, "identity", identityKey, "error", err)
		now := s.now()
		fresh := domain.NewTrialState(now, now.In(s.loc).Format(domain.CalendarDayLayout))
		return &fresh, nil
	}
	return &env.State, nil
}

// Save writes state for identityKey
func (s *Store) Save(ctx context.Context, identityKey string, state domain.SubscriptionState) error {
	raw, err := json.Marshal(envelope{Version: SnapshotVersion, State: state, SavedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgEncodeSnapshot, err)
	}
	return s.kv.Set(ctx, key(identityKey), string(raw))
}

func key(identityKey string) string {
	return KeyPrefix + identityKey
}
