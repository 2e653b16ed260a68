package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/pricing"
	"agency_backend/platform/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func sampleQuote(t *testing.T, id string) *domain.Quote {
	t.Helper()
	q, err := domain.New(domain.NewParams{
		ID:     id,
		Token:  fmt.Sprintf("%064s", id),
		Status: domain.StatusBrouillon,
		Actor:  domain.ActorAdmin,
		Client: domain.Client{Name: "Lucie Bernard", Email: "lucie@example.fr"},
		Project: pricing.Project{
			OfferType:    "vitrine",
			OfferLabel:   "Site vitrine",
			BasePrice:    decimal.NewFromInt(500),
			ExtraPages:   2,
			PricePerPage: decimal.NewFromInt(50),
			Options: []pricing.SelectedOption{
				{Key: "seo", Label: "SEO", Kind: pricing.OptionFlat, UnitPrice: decimal.NewFromInt(150), Quantity: 1},
			},
			VATRate: decimal.RequireFromString("0.2"),
		},
		DiscountPercent: 10,
		Now:             storeNow,
		Validity:        8 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return q
}

// runStoreContract checks the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("numbers are sequential per year", func(t *testing.T) {
		s := newStore(t)
		first, err := s.NextQuoteNumber(ctx, "DEV", 2026)
		require.NoError(t, err)
		second, err := s.NextQuoteNumber(ctx, "DEV", 2026)
		require.NoError(t, err)
		other, err := s.NextQuoteNumber(ctx, "DEV", 2027)
		require.NoError(t, err)

		assert.Equal(t, "DEV-2026-0001", first)
		assert.Equal(t, "DEV-2026-0002", second)
		assert.Equal(t, "DEV-2027-0001", other)
	})

	t.Run("round trip keeps amounts and history", func(t *testing.T) {
		s := newStore(t)
		q := sampleQuote(t, "DEV-2026-0001")
		require.NoError(t, s.Create(ctx, q))
		assert.Equal(t, 1, q.Version)

		got, err := s.GetByToken(ctx, q.Token)
		require.NoError(t, err)
		assert.Equal(t, q.ID, got.ID)
		assert.True(t, got.Amounts.Equal(q.Amounts))
		require.Len(t, got.History, 1)
		assert.Equal(t, domain.ActionCreated, got.History[0].Action)

		recomputed, err := got.Recompute()
		require.NoError(t, err)
		assert.True(t, recomputed.Equal(got.Amounts))
	})

	t.Run("stale writes are rejected", func(t *testing.T) {
		s := newStore(t)
		q := sampleQuote(t, "DEV-2026-0002")
		require.NoError(t, s.Create(ctx, q))

		a, err := s.GetByID(ctx, q.ID)
		require.NoError(t, err)
		b, err := s.GetByID(ctx, q.ID)
		require.NoError(t, err)

		require.NoError(t, a.Transition(storeNow.Add(time.Minute), domain.ActorAdmin, domain.ActionValider, domain.TransitionDetails{}))
		require.NoError(t, s.Update(ctx, a))
		assert.Equal(t, 2, a.Version)

		require.NoError(t, b.Transition(storeNow.Add(time.Minute), domain.ActorAdmin, domain.ActionRefuser, domain.TransitionDetails{Reason: domain.ReasonSpam}))
		err = s.Update(ctx, b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		stored, err := s.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusValide, stored.Status)
		assert.Len(t, stored.History, 2)
	})

	t.Run("deleted tokens stay retired", func(t *testing.T) {
		s := newStore(t)
		q := sampleQuote(t, "DEV-2026-0003")
		require.NoError(t, s.Create(ctx, q))

		err := s.Delete(ctx, q.ID, q.Version+1)
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		require.NoError(t, s.Delete(ctx, q.ID, q.Version))
		_, err = s.GetByToken(ctx, q.Token)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		used, err := s.TokenUsed(ctx, q.Token)
		require.NoError(t, err)
		assert.True(t, used)

		err = s.Delete(ctx, q.ID, q.Version)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("rotated token retires the old one", func(t *testing.T) {
		s := newStore(t)
		q := sampleQuote(t, "DEV-2026-0004")
		require.NoError(t, s.Create(ctx, q))

		old := q.Token
		q.Token = fmt.Sprintf("%064s", "rotated")
		q.Note(storeNow.Add(time.Minute), domain.ActorAdmin, domain.ActionTokenRegenere, "")
		require.NoError(t, s.RotateToken(ctx, q, old))

		_, err := s.QuoteIDByToken(ctx, old)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		id, err := s.QuoteIDByToken(ctx, q.Token)
		require.NoError(t, err)
		assert.Equal(t, q.ID, id)
		used, err := s.TokenUsed(ctx, old)
		require.NoError(t, err)
		assert.True(t, used)
	})

	t.Run("list filters on the effective status", func(t *testing.T) {
		s := newStore(t)
		sent := sampleQuote(t, "DEV-2026-0005")
		require.NoError(t, s.Create(ctx, sent))
		require.NoError(t, sent.Transition(storeNow, domain.ActorAdmin, domain.ActionValider, domain.TransitionDetails{}))
		require.NoError(t, s.Update(ctx, sent))
		require.NoError(t, s.Create(ctx, sampleQuote(t, "DEV-2026-0006")))

		expired := domain.StatusExpire
		res, err := s.List(ctx, ListParams{Status: &expired, Now: storeNow.Add(30 * 24 * time.Hour)})
		require.NoError(t, err)
		require.Equal(t, 1, res.Total)
		assert.Equal(t, "DEV-2026-0005", res.Items[0].ID)

		all, err := s.List(ctx, ListParams{Now: storeNow, SortBy: "id", SortOrder: "asc", PageSize: 1, Page: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, all.Total)
		assert.Equal(t, 2, all.TotalPages)
		require.Len(t, all.Items, 1)
		assert.Equal(t, "DEV-2026-0006", all.Items[0].ID)

		_, err = s.List(ctx, ListParams{SortBy: "token"})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("content drafts are versioned", func(t *testing.T) {
		s := newStore(t)
		q := sampleQuote(t, "DEV-2026-0007")
		require.NoError(t, s.Create(ctx, q))

		d, err := s.GetContentDraft(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, d.Version)

		d.Fields = map[string]string{"slogan": "Le goût du fait main"}
		d.UpdatedAt = storeNow
		require.NoError(t, s.SaveContentDraft(ctx, d))
		assert.Equal(t, 1, d.Version)

		stale := &domain.ContentDraft{QuoteID: q.ID, Fields: map[string]string{}, UpdatedAt: storeNow}
		err = s.SaveContentDraft(ctx, stale)
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		got, err := s.GetContentDraft(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, "Le goût du fait main", got.Fields["slogan"])
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) Store { return NewMemory() })
}

func TestMemoryStoreHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	q := sampleQuote(t, "DEV-2026-0001")
	require.NoError(t, s.Create(ctx, q))

	got, err := s.GetByID(ctx, q.ID)
	require.NoError(t, err)
	got.Project.Options[0].Quantity = 9
	got.History[0].Details = "changed"

	again, err := s.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Project.Options[0].Quantity)
	assert.Empty(t, again.History[0].Details)
}
