package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEntitlementNotFound = errors.New("entitlement not found")

type EntitlementRepo struct {
	pool *pgxpool.Pool
}

type EntitlementRecord struct {
	AccountID string
	Tier      string
	ExpiresAt *time.Time
	IsTrial   bool
}

func NewEntitlementRepo(pool *pgxpool.Pool) *EntitlementRepo {
	return &EntitlementRepo{pool: pool}
}

func (r *EntitlementRepo) Get(ctx context.Context, accountID string) (EntitlementRecord, error) {
	if accountID == "" {
		return EntitlementRecord{}, fmt.Errorf("account id is required")
	}
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec EntitlementRecord
	err := r.pool.QueryRow(ctx, `
SELECT account_id, tier, expires_at, is_trial
FROM entitlements
WHERE account_id = $1
LIMIT 1
`, accountID).Scan(&rec.AccountID, &rec.Tier, &rec.ExpiresAt, &rec.IsTrial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntitlementRecord{}, ErrEntitlementNotFound
		}
		return EntitlementRecord{}, fmt.Errorf("get entitlement: %w", err)
	}

	return rec, nil
}

// GrantTrial inserts the one-time trial row. Under a read race only one
// caller creates it; the loser re-reads the winner's row.
func (r *EntitlementRepo) GrantTrial(ctx context.Context, accountID, tier string, until time.Time) (EntitlementRecord, error) {
	if accountID == "" || tier == "" || until.IsZero() {
		return EntitlementRecord{}, fmt.Errorf("invalid trial grant payload")
	}
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec EntitlementRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO entitlements (account_id, tier, expires_at, is_trial, updated_at)
VALUES ($1, $2, $3, TRUE, NOW())
ON CONFLICT (account_id) DO NOTHING
RETURNING account_id, tier, expires_at, is_trial
`, accountID, tier, until.UTC()).Scan(&rec.AccountID, &rec.Tier, &rec.ExpiresAt, &rec.IsTrial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Get(ctx, accountID)
		}
		return EntitlementRecord{}, fmt.Errorf("grant trial entitlement: %w", err)
	}

	return rec, nil
}

// MarkExpired persists the inactive state observed by a lazy read.
func (r *EntitlementRepo) MarkExpired(ctx context.Context, accountID string) (EntitlementRecord, error) {
	if accountID == "" {
		return EntitlementRecord{}, fmt.Errorf("account id is required")
	}
	if r.pool == nil {
		return EntitlementRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec EntitlementRecord
	err := r.pool.QueryRow(ctx, `
UPDATE entitlements
SET
	expires_at = NULL,
	is_trial = FALSE,
	updated_at = NOW()
WHERE account_id = $1
RETURNING account_id, tier, expires_at, is_trial
`, accountID).Scan(&rec.AccountID, &rec.Tier, &rec.ExpiresAt, &rec.IsTrial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntitlementRecord{}, ErrEntitlementNotFound
		}
		return EntitlementRecord{}, fmt.Errorf("mark entitlement expired: %w", err)
	}

	return rec, nil
}

// PurchaseTier debits the price and replaces the entitlement in one
// transaction; a failed debit leaves the old entitlement untouched.
func (r *EntitlementRepo) PurchaseTier(ctx context.Context, accountID, tier string, price int64, until time.Time) (EntitlementRecord, int64, error) {
	if accountID == "" || tier == "" || price <= 0 || until.IsZero() {
		return EntitlementRecord{}, 0, fmt.Errorf("invalid purchase payload")
	}

	var (
		rec        EntitlementRecord
		newBalance int64
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		balance, err := debitBalanceTx(txCtx, tx, accountID, price)
		if err != nil {
			return err
		}
		newBalance = balance

		if err := tx.QueryRow(txCtx, `
INSERT INTO entitlements (account_id, tier, expires_at, is_trial, updated_at)
VALUES ($1, $2, $3, FALSE, NOW())
ON CONFLICT (account_id) DO UPDATE SET
	tier = EXCLUDED.tier,
	expires_at = EXCLUDED.expires_at,
	is_trial = FALSE,
	updated_at = NOW()
RETURNING account_id, tier, expires_at, is_trial
`, accountID, tier, until.UTC()).Scan(&rec.AccountID, &rec.Tier, &rec.ExpiresAt, &rec.IsTrial); err != nil {
			return fmt.Errorf("replace entitlement: %w", err)
		}

		return appendEntryTx(txCtx, tx, accountID, "premium", -price, tier)
	})
	if err != nil {
		return EntitlementRecord{}, 0, err
	}

	return rec, newBalance, nil
}
