package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency_backend/internal/affiliates/repository"
	"agency_backend/internal/affiliates/transport"
	"agency_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	items map[string]repository.Affiliate
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]repository.Affiliate{}}
}

func (f *fakeRepo) Upsert(_ context.Context, a repository.Affiliate) (repository.Affiliate, error) {
	if existing, ok := f.items[a.Code]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = a.UpdatedAt
	}
	f.items[a.Code] = a
	return a, nil
}

func (f *fakeRepo) GetByCode(_ context.Context, code string) (repository.Affiliate, error) {
	if f.err != nil {
		return repository.Affiliate{}, f.err
	}
	a, ok := f.items[code]
	if !ok {
		return repository.Affiliate{}, apperr.NotFound("affiliate not found")
	}
	return a, nil
}

func (f *fakeRepo) List(context.Context) ([]repository.Affiliate, error) {
	out := make([]repository.Affiliate, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, nil
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestUpsertNormalizesCode(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo)
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }

	res, err := svc.Upsert(context.Background(), " partner20 ", transport.UpsertAffiliateRequest{
		Name:            "Studio <b>Nord</b>",
		DiscountPercent: intPtr(20),
		Active:          boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "PARTNER20", res.Code)
	assert.Equal(t, 20, res.DiscountPercent)
	assert.NotContains(t, res.Name, "<b>")

	_, err = svc.Upsert(context.Background(), "a b", transport.UpsertAffiliateRequest{DiscountPercent: intPtr(5), Active: boolPtr(true)})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestLookup(t *testing.T) {
	repo := newFakeRepo()
	repo.items["PARTNER20"] = repository.Affiliate{Code: "PARTNER20", DiscountPercent: 20, Active: true}
	repo.items["OLD10"] = repository.Affiliate{Code: "OLD10", DiscountPercent: 10, Active: false}
	svc := New(repo)
	ctx := context.Background()

	percent, ok, err := svc.Lookup(ctx, "partner20")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, percent)

	_, ok, err = svc.Lookup(ctx, "OLD10")
	require.NoError(t, err)
	assert.False(t, ok, "inactive codes grant nothing")

	_, ok, err = svc.Lookup(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Lookup(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	repo.err = errors.New("connection reset")
	_, _, err = svc.Lookup(ctx, "PARTNER20")
	assert.Error(t, err, "storage failures are not swallowed")
}

func TestPublicLookupHidesInactiveCodes(t *testing.T) {
	repo := newFakeRepo()
	repo.items["OLD10"] = repository.Affiliate{Code: "OLD10", DiscountPercent: 10, Active: false}
	svc := New(repo)

	_, err := svc.PublicLookup(context.Background(), "old10")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
