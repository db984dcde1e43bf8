package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type BalanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// GetBalance treats a missing account as a zero balance, accounts are
// created lazily on first credit or debit attempt.
func (r *BalanceRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	if accountID == "" {
		return 0, fmt.Errorf("account id is required")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var balance int64
	err := r.pool.QueryRow(ctx, `
SELECT balance
FROM accounts
WHERE account_id = $1
LIMIT 1
`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get account balance: %w", err)
	}

	return balance, nil
}

func (r *BalanceRepo) Credit(ctx context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	if accountID == "" || amount <= 0 {
		return 0, fmt.Errorf("invalid credit payload")
	}

	var newBalance int64
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		balance, err := creditBalanceTx(txCtx, tx, accountID, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return appendEntryTx(txCtx, tx, accountID, kind, amount, refID)
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Debit decreases the balance only when it covers the amount; the check and
// the write are one conditional UPDATE, so two racing debits can never both
// pass the sufficiency check.
func (r *BalanceRepo) Debit(ctx context.Context, accountID string, amount int64, kind, refID string) (int64, error) {
	if accountID == "" || amount <= 0 {
		return 0, fmt.Errorf("invalid debit payload")
	}

	var newBalance int64
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		balance, err := debitBalanceTx(txCtx, tx, accountID, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return appendEntryTx(txCtx, tx, accountID, kind, -amount, refID)
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

type LedgerEntryRecord struct {
	ID        string
	AccountID string
	Kind      string
	Amount    int64
	RefID     *string
	CreatedAt time.Time
}

func (r *BalanceRepo) ListEntries(ctx context.Context, accountID string, limit int) ([]LedgerEntryRecord, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, account_id, kind, amount, ref_id, created_at
FROM ledger_entries
WHERE account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntryRecord
	for rows.Next() {
		var rec LedgerEntryRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Kind, &rec.Amount, &rec.RefID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}

func creditBalanceTx(ctx context.Context, tx pgx.Tx, accountID string, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
INSERT INTO accounts (account_id, balance, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (account_id) DO UPDATE SET
	balance = accounts.balance + EXCLUDED.balance,
	updated_at = NOW()
RETURNING balance
`, accountID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit account balance: %w", err)
	}
	return balance, nil
}

func debitBalanceTx(ctx context.Context, tx pgx.Tx, accountID string, amount int64) (int64, error) {
	if _, err := tx.Exec(ctx, `
INSERT INTO accounts (account_id, balance, created_at, updated_at)
VALUES ($1, 0, NOW(), NOW())
ON CONFLICT (account_id) DO NOTHING
`, accountID); err != nil {
		return 0, fmt.Errorf("ensure account row: %w", err)
	}

	var balance int64
	err := tx.QueryRow(ctx, `
UPDATE accounts
SET
	balance = balance - $2,
	updated_at = NOW()
WHERE account_id = $1 AND balance >= $2
RETURNING balance
`, accountID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("debit account balance: %w", err)
	}

	return balance, nil
}

func appendEntryTx(ctx context.Context, tx pgx.Tx, accountID, kind string, amount int64, refID string) error {
	if _, err := tx.Exec(ctx, `
INSERT INTO ledger_entries (id, account_id, kind, amount, ref_id, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
`, uuid.NewString(), accountID, kind, amount, refID, time.Now().UTC()); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
