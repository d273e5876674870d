package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/repository"
)

// ReferralRepository implements repository.Referrals
type ReferralRepository struct {
	db *pgxpool.Pool
}

// NewReferralRepository creates a new referral registry repository
func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

var _ repository.Referrals = (*ReferralRepository)(nil)

// GetReferralOwner returns the user who owns code
func (r *ReferralRepository) GetReferralOwner(ctx context.Context, code string) (string, error) {
	var owner string
	err := r.db.QueryRow(ctx, SQLSelectReferralOwner, code).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrReferralCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgFailedToGetReferralOwner, err)
	}
	return owner, nil
}

// RegisterReferralCode makes code the owner's only referral code
func (r *ReferralRepository) RegisterReferralCode(ctx context.Context, ownerUserID, code string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	if _, err := tx.Exec(ctx, SQLDeleteOtherReferralCodes, ownerUserID, code); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRegisterReferral, err)
	}

	tag, err := tx.Exec(ctx, SQLInsertReferralCode, code, ownerUserID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToRegisterReferral, err)
	}

	if tag.RowsAffected() == 0 {
		var owner string
		if err := tx.QueryRow(ctx, SQLSelectReferralOwner, code).Scan(&owner); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToRegisterReferral, err)
		}
		if owner != ownerUserID {
			return domain.ErrReferralCodeTaken
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}
