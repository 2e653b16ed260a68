package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const affiliateNotFoundMsg = "affiliate not found"

// Affiliate is a partner code granting a percentage off the base price.
type Affiliate struct {
	Code            string
	Name            string
	DiscountPercent int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Repository provides database operations for affiliates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new affiliates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert creates the affiliate or replaces its name, percentage and state.
func (r *Repository) Upsert(ctx context.Context, a Affiliate) (Affiliate, error) {
	query := `
		INSERT INTO affiliates (code, name, discount_percent, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			discount_percent = EXCLUDED.discount_percent,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING code, name, discount_percent, active, created_at, updated_at`

	var out Affiliate
	err := r.pool.QueryRow(ctx, query, a.Code, a.Name, a.DiscountPercent, a.Active, a.UpdatedAt).Scan(
		&out.Code, &out.Name, &out.DiscountPercent, &out.Active, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return Affiliate{}, fmt.Errorf("failed to upsert affiliate: %w", err)
	}
	return out, nil
}

// GetByCode returns the affiliate for code, active or not.
func (r *Repository) GetByCode(ctx context.Context, code string) (Affiliate, error) {
	query := `
		SELECT code, name, discount_percent, active, created_at, updated_at
		FROM affiliates
		WHERE code = $1`

	var a Affiliate
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&a.Code, &a.Name, &a.DiscountPercent, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Affiliate{}, apperr.NotFound(affiliateNotFoundMsg)
		}
		return Affiliate{}, fmt.Errorf("failed to get affiliate: %w", err)
	}
	return a, nil
}

// List returns every affiliate ordered by code.
func (r *Repository) List(ctx context.Context) ([]Affiliate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, discount_percent, active, created_at, updated_at
		FROM affiliates
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliates: %w", err)
	}
	defer rows.Close()

	items := make([]Affiliate, 0)
	for rows.Next() {
		var a Affiliate
		if err := rows.Scan(&a.Code, &a.Name, &a.DiscountPercent, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan affiliate: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate affiliates: %w", err)
	}
	return items, nil
}
