package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// DocumentRepository stores entitlement documents as JSONB rows
type DocumentRepository struct {
	db   *pgxpool.Pool
	feed *DocumentFeed
}

// NewDocumentRepository creates the repository. feed may be nil when no live
// subscriptions are needed.
func NewDocumentRepository(db *pgxpool.Pool, feed *DocumentFeed) *DocumentRepository {
	return &DocumentRepository{db: db, feed: feed}
}

var _ repository.EntitlementDocuments = (*DocumentRepository)(nil)

// Get returns nil, nil when the user has no document
func (r *DocumentRepository) Get(ctx context.Context, userID string) (*domain.EntitlementDocument, error) {
	return loadDocument(ctx, r.db, userID)
}

func loadDocument(ctx context.Context, db *pgxpool.Pool, userID string) (*domain.EntitlementDocument, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := db.QueryRow(ctx, SQLSelectDocument, userID).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetDocument, err)
	}

	doc := &domain.EntitlementDocument{UserID: userID, UpdatedAt: updatedAt}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToDecodeDocument, err)
	}
	return doc, nil
}

// Patch merges fields into the subscription object, creating the row when absent
func (r *DocumentRepository) Patch(ctx context.Context, userID string, fields domain.SubscriptionPatch) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToEncodePatch, err)
	}

	if _, err := r.db.Exec(ctx, SQLPatchDocument, userID, string(raw)); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToPatchDocument, err)
	}
	return nil
}

// Subscribe registers onChange with the change feed
func (r *DocumentRepository) Subscribe(ctx context.Context, userID string, onChange repository.DocumentHandler) (repository.Unsubscribe, error) {
	if r.feed == nil {
		return nil, errors.New(ErrMsgFeedNotStarted)
	}
	return r.feed.Subscribe(ctx, userID, onChange)
}
