package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoleta_backend/platform/apperr"
)

const uniqueViolation = "23505"

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListItems lists all items.
func (r *Repo) ListItems(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, title, image_key, created_at
		FROM items
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[Item])
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}

// GetItemsByIDs retrieves the items matching ids.
func (r *Repo) GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}

	query := `
		SELECT id, title, image_key, created_at
		FROM items
		WHERE id = ANY($1)
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get items by ids: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[Item])
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}

// CreateItem creates an item.
func (r *Repo) CreateItem(ctx context.Context, params CreateItemParams) (Item, error) {
	query := `
		INSERT INTO items (title, image_key)
		VALUES ($1, $2)
		RETURNING id, title, image_key, created_at`

	var item Item
	if err := r.pool.QueryRow(ctx, query, params.Title, params.ImageKey).Scan(
		&item.ID, &item.Title, &item.ImageKey, &item.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Item{}, apperr.Conflict("an item with this title already exists")
		}
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// InsertMissing inserts params in order inside one transaction, skipping
// titles that already exist.
func (r *Repo) InsertMissing(ctx context.Context, params []CreateItemParams) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin seed items: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inserted := 0
	for _, p := range params {
		tag, err := tx.Exec(ctx,
			`INSERT INTO items (title, image_key) VALUES ($1, $2) ON CONFLICT (title) DO NOTHING`,
			p.Title, p.ImageKey,
		)
		if err != nil {
			return 0, fmt.Errorf("seed item %q: %w", p.Title, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit seed items: %w", err)
	}
	return inserted, nil
}
