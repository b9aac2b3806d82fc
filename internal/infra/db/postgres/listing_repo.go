package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-number-market/internal/domain/model"
	"telegram-number-market/internal/domain/ports/repository"
)

var _ repository.ListingArchiveRepository = (*ListingRepo)(nil)

// ListingRepo archives published listings in Postgres.
type ListingRepo struct {
	pool *pgxpool.Pool
}

func NewListingRepo(pool *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

// EnsureSchema creates the listings table when it does not exist yet.
func (r *ListingRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			fields     JSONB NOT NULL,
			body       TEXT NOT NULL,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure listings schema: %w", err)
	}
	return nil
}

func (r *ListingRepo) Save(ctx context.Context, l *model.Listing) error {
	fields, err := json.Marshal(l.Fields)
	if err != nil {
		return fmt.Errorf("marshal listing fields: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO listings (id, kind, fields, body, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, string(l.Kind), fields, l.Body, l.CreatedBy, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepo) ListRecent(ctx context.Context, limit int) ([]*model.Listing, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, kind, fields, body, created_by, created_at
		 FROM listings ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []*model.Listing
	for rows.Next() {
		var (
			l      model.Listing
			kind   string
			fields []byte
		)
		if err := rows.Scan(&l.ID, &kind, &fields, &l.Body, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.Kind = model.FlowKind(kind)
		if err := json.Unmarshal(fields, &l.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal listing fields: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
