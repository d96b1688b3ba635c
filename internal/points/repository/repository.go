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

const foreignKeyViolation = "23503"

// item_ids follow catalog order, matching the item list endpoint.
const pointColumns = `
	p.id, p.name, p.email, p.whatsapp, p.latitude, p.longitude, p.uf, p.city, p.image_key, p.created_at,
	ARRAY(
		SELECT pi.item_id::text FROM point_items pi
		JOIN items i ON i.id = pi.item_id
		WHERE pi.point_id = p.id
		ORDER BY i.created_at ASC, i.id ASC
	) AS item_ids`

// Repo implements the points repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new points repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// CreatePoint inserts the point and its item links in one transaction.
func (r *Repo) CreatePoint(ctx context.Context, params CreatePointParams) (Point, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Point{}, fmt.Errorf("begin create point: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	point := Point{
		Name:      params.Name,
		Email:     params.Email,
		WhatsApp:  params.WhatsApp,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		UF:        params.UF,
		City:      params.City,
		ItemIDs:   params.ItemIDs,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO points (name, email, whatsapp, latitude, longitude, uf, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		params.Name, params.Email, params.WhatsApp, params.Latitude, params.Longitude, params.UF, params.City,
	).Scan(&point.ID, &point.CreatedAt)
	if err != nil {
		return Point{}, fmt.Errorf("insert point: %w", err)
	}

	batch := &pgx.Batch{}
	for _, itemID := range params.ItemIDs {
		batch.Queue(`INSERT INTO point_items (point_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, point.ID, itemID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return Point{}, apperr.Validation("unknown items")
		}
		return Point{}, fmt.Errorf("insert point items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Point{}, fmt.Errorf("commit create point: %w", err)
	}
	return point, nil
}

// GetPoint retrieves a point with its item IDs.
func (r *Repo) GetPoint(ctx context.Context, id uuid.UUID) (Point, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pointColumns+` FROM points p WHERE p.id = $1`, id)
	point, err := scanPoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Point{}, apperr.NotFound("point not found")
		}
		return Point{}, fmt.Errorf("get point: %w", err)
	}
	return point, nil
}

// ListPoints lists points matching filter, newest first.
func (r *Repo) ListPoints(ctx context.Context, filter ListFilter) ([]Point, error) {
	itemIDs := make([]string, 0, len(filter.ItemIDs))
	for _, id := range filter.ItemIDs {
		itemIDs = append(itemIDs, id.String())
	}

	query := `SELECT ` + pointColumns + `
		FROM points p
		WHERE ($1 = '' OR p.uf = $1)
		  AND ($2 = '' OR lower(p.city) = lower($2))
		  AND (cardinality($3::uuid[]) = 0 OR EXISTS (
		      SELECT 1 FROM point_items pi WHERE pi.point_id = p.id AND pi.item_id = ANY($3::uuid[])
		  ))
		ORDER BY p.created_at DESC, p.id`

	rows, err := r.pool.Query(ctx, query, filter.UF, filter.City, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	points := make([]Point, 0)
	for rows.Next() {
		point, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return points, nil
}

// SetImageKey replaces the point's image key.
func (r *Repo) SetImageKey(ctx context.Context, id uuid.UUID, key string) (*string, error) {
	var previous *string
	err := r.pool.QueryRow(ctx, `
		UPDATE points p SET image_key = $2
		FROM (SELECT id, image_key FROM points WHERE id = $1 FOR UPDATE) old
		WHERE p.id = old.id
		RETURNING old.image_key`,
		id, key,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("point not found")
		}
		return nil, fmt.Errorf("set point image: %w", err)
	}
	return previous, nil
}

func scanPoint(row pgx.Row) (Point, error) {
	var (
		point   Point
		itemIDs []string
	)
	if err := row.Scan(
		&point.ID, &point.Name, &point.Email, &point.WhatsApp, &point.Latitude, &point.Longitude,
		&point.UF, &point.City, &point.ImageKey, &point.CreatedAt, &itemIDs,
	); err != nil {
		return Point{}, err
	}

	point.ItemIDs = make([]uuid.UUID, 0, len(itemIDs))
	for _, raw := range itemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Point{}, fmt.Errorf("parse item id %q: %w", raw, err)
		}
		point.ItemIDs = append(point.ItemIDs, id)
	}
	return point, nil
}
