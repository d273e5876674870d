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

// PromoRepository implements repository.PromoCodes
type PromoRepository struct {
	db *pgxpool.Pool
}

// NewPromoRepository creates a new promo-code repository
func NewPromoRepository(db *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{db: db}
}

var (
	_ repository.PromoCodes   = (*PromoRepository)(nil)
	_ repository.PromoCatalog = (*PromoRepository)(nil)
)

// GetPromoCode looks a code up by its normalized value
func (r *PromoRepository) GetPromoCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	promo, err := scanPromoCode(r.db.QueryRow(ctx, SQLSelectPromoCode, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPromoCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPromoCode, err)
	}
	return promo, nil
}

// RedeemPromoCode consumes one use and records the redemption in one transaction
func (r *PromoRepository) RedeemPromoCode(ctx context.Context, code, userID string) (*domain.PromoCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	var redeemed bool
	if err := tx.QueryRow(ctx, SQLPromoRedemptionExists, code, userID).Scan(&redeemed); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToRedeemPromoCode, err)
	}
	if redeemed {
		return nil, domain.ErrPromoAlreadyRedeemed
	}

	promo, err := scanPromoCode(tx.QueryRow(ctx, SQLIncrementPromoUsage, code))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, SQLPromoCodeExists, code).Scan(&exists); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToRedeemPromoCode, err)
		}
		if !exists {
			return nil, domain.ErrPromoCodeNotFound
		}
		return nil, domain.ErrPromoCodeExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToRedeemPromoCode, err)
	}

	if _, err := tx.Exec(ctx, SQLInsertPromoRedemption, code, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPromoAlreadyRedeemed
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToRedeemPromoCode, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return promo, nil
}

// UpsertPromoCode inserts a catalog entry or refreshes its terms
func (r *PromoRepository) UpsertPromoCode(ctx context.Context, code domain.PromoCode) (bool, error) {
	var inserted bool
	err := r.db.QueryRow(ctx, SQLUpsertPromoCode,
		code.Code, code.IsActive, code.MaxUses, code.ExpiresAt, string(code.Plan), code.DurationDays,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToUpsertPromoCode, err)
	}
	return inserted, nil
}

func scanPromoCode(row pgx.Row) (*domain.PromoCode, error) {
	var (
		p    domain.PromoCode
		plan string
	)
	if err := row.Scan(&p.Code, &p.IsActive, &p.UsedCount, &p.MaxUses, &p.ExpiresAt, &plan, &p.DurationDays, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Plan = domain.Plan(plan)
	return &p, nil
}
