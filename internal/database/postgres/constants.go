package postgres

import "time"

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Change feed
const (
	// NotifyChannel must match the channel used by the entitlement_documents trigger
	NotifyChannel        = "entitlement_documents"
	FeedReconnectDelay   = time.Second
	FeedMaxReconnectWait = 30 * time.Second
	FeedLoadTimeout      = 5 * time.Second
)

// SQL Query Constants - Entitlement Documents
const (
	SQLSelectDocument = `
		SELECT document, updated_at
		FROM entitlement_documents
		WHERE user_id = $1
	`

	// SQLPatchDocument creates the document or merges the patch into its subscription object
	SQLPatchDocument = `
		INSERT INTO entitlement_documents (user_id, document, updated_at)
		VALUES ($1, jsonb_build_object('subscription', $2::jsonb), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET document = jsonb_set(
				entitlement_documents.document,
				'{subscription}',
				COALESCE(entitlement_documents.document->'subscription', '{}'::jsonb) || $2::jsonb,
				true),
			updated_at = NOW()
	`

	SQLListen = "LISTEN " + NotifyChannel
)

// SQL Query Constants - Promo Codes
const (
	SQLSelectPromoCode = `
		SELECT code, is_active, used_count, max_uses, expires_at, plan, duration_days, created_at
		FROM promo_codes
		WHERE code = $1
	`

	// SQLIncrementPromoUsage consumes one use only while uses remain
	SQLIncrementPromoUsage = `
		UPDATE promo_codes
		SET used_count = used_count + 1
		WHERE code = $1 AND used_count < max_uses
		RETURNING code, is_active, used_count, max_uses, expires_at, plan, duration_days, created_at
	`

	SQLInsertPromoRedemption = `
		INSERT INTO promo_redemptions (code, user_id, redeemed_at)
		VALUES ($1, $2, NOW())
	`

	// SQLUpsertPromoCode keeps used_count on update. xmax is zero only for a fresh insert.
	SQLUpsertPromoCode = `
		INSERT INTO promo_codes (code, is_active, max_uses, expires_at, plan, duration_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET is_active = EXCLUDED.is_active,
			max_uses = EXCLUDED.max_uses,
			expires_at = EXCLUDED.expires_at,
			plan = EXCLUDED.plan,
			duration_days = EXCLUDED.duration_days
		RETURNING (xmax = 0) AS inserted
	`

	SQLPromoCodeExists = `SELECT EXISTS (SELECT 1 FROM promo_codes WHERE code = $1)`

	SQLPromoRedemptionExists = `SELECT EXISTS (SELECT 1 FROM promo_redemptions WHERE code = $1 AND user_id = $2)`
)

// SQL Query Constants - Referral Codes
const (
	SQLSelectReferralOwner = `SELECT owner_user_id FROM referral_codes WHERE code = $1`

	SQLDeleteOtherReferralCodes = `DELETE FROM referral_codes WHERE owner_user_id = $1 AND code <> $2`

	SQLInsertReferralCode = `
		INSERT INTO referral_codes (code, owner_user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (code) DO NOTHING
	`
)

// Error Messages
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
	ErrMsgFailedToGetDocument       = "failed to get entitlement document"
	ErrMsgFailedToDecodeDocument    = "failed to decode entitlement document"
	ErrMsgFailedToEncodePatch       = "failed to encode subscription patch"
	ErrMsgFailedToPatchDocument     = "failed to patch entitlement document"
	ErrMsgFailedToGetPromoCode      = "failed to get promo code"
	ErrMsgFailedToRedeemPromoCode   = "failed to redeem promo code"
	ErrMsgFailedToUpsertPromoCode   = "failed to upsert promo code"
	ErrMsgFailedToGetReferralOwner  = "failed to get referral owner"
	ErrMsgFailedToRegisterReferral  = "failed to register referral code"
	ErrMsgFailedToAcquireListenConn = "failed to acquire listen connection"
	ErrMsgFailedToListen            = "failed to listen for document changes"
	ErrMsgFeedNotStarted            = "document feed not started"
)

// Log Messages
const (
	LogMsgFailedToRollback    = "Failed to rollback transaction"
	LogMsgFeedStarted         = "Entitlement document feed started"
	LogMsgFeedStopped         = "Entitlement document feed stopped"
	LogMsgFeedConnectionLost  = "Entitlement document feed lost its connection, reconnecting"
	LogMsgFeedReconnected     = "Entitlement document feed reconnected"
	LogMsgFeedLoadFailed      = "Failed to load changed entitlement document"
	LogMsgFeedHandlerPanicked = "Entitlement document handler panicked"
	LogMsgFeedStaleSkipped    = "Skipped stale entitlement document snapshot"
)
