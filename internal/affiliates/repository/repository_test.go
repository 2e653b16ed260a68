package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency_backend/platform/apperr"
	"agency_backend/platform/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryUpsertKeepsCreationDate(t *testing.T) {
	repo := New(dbtest.Start(t))
	ctx := context.Background()
	first := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	a, err := repo.Upsert(ctx, Affiliate{Code: "PARTNER20", Name: "Studio Nord", DiscountPercent: 20, Active: true, UpdatedAt: first})
	require.NoError(t, err)
	assert.True(t, a.CreatedAt.Equal(first))

	b, err := repo.Upsert(ctx, Affiliate{Code: "PARTNER20", Name: "Studio Nord", DiscountPercent: 15, Active: false, UpdatedAt: first.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, b.CreatedAt.Equal(first))
	assert.Equal(t, 15, b.DiscountPercent)
	assert.False(t, b.Active)

	_, err = repo.GetByCode(ctx, "MISSING")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
