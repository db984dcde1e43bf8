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

var ErrContentNotFound = errors.New("content not found")

type ContentRepo struct {
	pool *pgxpool.Pool
}

type ContentRecord struct {
	ID           string
	OwnerID      string
	Kind         string
	Caption      string
	VideoSeconds int
	StarCount    int64
	PinnedUntil  *time.Time
	CreatedAt    time.Time
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) Insert(ctx context.Context, ownerID, kind, caption string, videoSeconds int) (ContentRecord, error) {
	if ownerID == "" || kind == "" {
		return ContentRecord{}, fmt.Errorf("invalid content payload")
	}
	if r.pool == nil {
		return ContentRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec ContentRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO content_items (id, owner_id, kind, caption, video_seconds, star_count, created_at)
VALUES ($1, $2, $3, $4, $5, 0, NOW())
RETURNING id, owner_id, kind, caption, video_seconds, star_count, pinned_until, created_at
`, uuid.NewString(), ownerID, kind, caption, videoSeconds).Scan(
		&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Caption,
		&rec.VideoSeconds, &rec.StarCount, &rec.PinnedUntil, &rec.CreatedAt,
	)
	if err != nil {
		return ContentRecord{}, fmt.Errorf("insert content item: %w", err)
	}

	return rec, nil
}

func (r *ContentRepo) FindByID(ctx context.Context, contentID string) (ContentRecord, error) {
	if contentID == "" {
		return ContentRecord{}, fmt.Errorf("content id is required")
	}
	if r.pool == nil {
		return ContentRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec ContentRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, owner_id, kind, caption, video_seconds, star_count, pinned_until, created_at
FROM content_items
WHERE id = $1
LIMIT 1
`, contentID).Scan(
		&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Caption,
		&rec.VideoSeconds, &rec.StarCount, &rec.PinnedUntil, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContentRecord{}, ErrContentNotFound
		}
		return ContentRecord{}, fmt.Errorf("find content item: %w", err)
	}

	return rec, nil
}

func (r *ContentRepo) IncrementStars(ctx context.Context, contentID string, delta int64) error {
	if contentID == "" || delta <= 0 {
		return fmt.Errorf("invalid star increment payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE content_items
SET star_count = star_count + $2
WHERE id = $1
`, contentID, delta)
	if err != nil {
		return fmt.Errorf("increment content stars: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

// List returns the feed: content with a live pin first, then newest first.
// Pinned state is computed against $1 at query time, never stored.
func (r *ContentRepo) List(ctx context.Context, at time.Time, limit int) ([]ContentRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, kind, caption, video_seconds, star_count, pinned_until, created_at
FROM content_items
ORDER BY (pinned_until IS NOT NULL AND pinned_until > $1) DESC, created_at DESC, id DESC
LIMIT $2
`, at.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	return scanContentRows(rows)
}

func (r *ContentRepo) ListByOwner(ctx context.Context, ownerID string, at time.Time, limit int) ([]ContentRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, kind, caption, video_seconds, star_count, pinned_until, created_at
FROM content_items
WHERE owner_id = $1
ORDER BY (pinned_until IS NOT NULL AND pinned_until > $2) DESC, created_at DESC, id DESC
LIMIT $3
`, ownerID, at.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list owner content items: %w", err)
	}
	defer rows.Close()

	return scanContentRows(rows)
}

// PinLatest pins the owner's most recent item of the requested kind. The
// row lock, the debit and the pinned_until write share one transaction.
func (r *ContentRepo) PinLatest(ctx context.Context, ownerID, kind string, price int64, until time.Time) (ContentRecord, int64, error) {
	if ownerID == "" || kind == "" || price <= 0 || until.IsZero() {
		return ContentRecord{}, 0, fmt.Errorf("invalid pin payload")
	}

	var (
		rec        ContentRecord
		newBalance int64
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var contentID string
		err := tx.QueryRow(txCtx, `
SELECT id
FROM content_items
WHERE owner_id = $1 AND kind = $2
ORDER BY created_at DESC, id DESC
LIMIT 1
FOR UPDATE
`, ownerID, kind).Scan(&contentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrContentNotFound
			}
			return fmt.Errorf("select pin target: %w", err)
		}

		balance, err := debitBalanceTx(txCtx, tx, ownerID, price)
		if err != nil {
			return err
		}
		newBalance = balance

		if err := tx.QueryRow(txCtx, `
UPDATE content_items
SET pinned_until = $2
WHERE id = $1
RETURNING id, owner_id, kind, caption, video_seconds, star_count, pinned_until, created_at
`, contentID, until.UTC()).Scan(
			&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Caption,
			&rec.VideoSeconds, &rec.StarCount, &rec.PinnedUntil, &rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("set pinned until: %w", err)
		}

		return appendEntryTx(txCtx, tx, ownerID, "pin", -price, contentID)
	})
	if err != nil {
		return ContentRecord{}, 0, err
	}

	return rec, newBalance, nil
}

func scanContentRows(rows pgx.Rows) ([]ContentRecord, error) {
	var items []ContentRecord
	for rows.Next() {
		var rec ContentRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Caption,
			&rec.VideoSeconds, &rec.StarCount, &rec.PinnedUntil, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content rows: %w", err)
	}
	return items, nil
}
