package token

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"agency_backend/internal/quotes/domain"
	"agency_backend/platform/apperr"
	"agency_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	byToken map[string]string
	retired map[string]bool
}

func newMapStore() *mapStore {
	return &mapStore{byToken: map[string]string{}, retired: map[string]bool{}}
}

func (s *mapStore) QuoteIDByToken(_ context.Context, tok string) (string, error) {
	id, ok := s.byToken[tok]
	if !ok {
		return "", domain.ErrQuoteNotFound()
	}
	return id, nil
}

func (s *mapStore) TokenUsed(_ context.Context, tok string) (bool, error) {
	_, held := s.byToken[tok]
	return held || s.retired[tok], nil
}

func TestIssueYieldsDistinctWellFormedTokens(t *testing.T) {
	store := newMapStore()
	m := NewManager(store, logger.Discard())
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		tok, err := m.Issue(ctx, "DEV-2026-0001")
		require.NoError(t, err)
		require.True(t, WellFormed(tok), tok)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
		store.byToken[tok] = "q"
	}
}

func TestIssueSkipsRetiredTokens(t *testing.T) {
	store := newMapStore()
	m := NewManager(store, logger.Discard())

	first := bytes.Repeat([]byte{0xab}, byteLength)
	second := bytes.Repeat([]byte{0xcd}, byteLength)
	m.random = bytes.NewReader(append(append([]byte{}, first...), second...))
	store.retired[hexOf(first)] = true

	tok, err := m.Issue(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, hexOf(second), tok)
}

func TestIssueFailsWhenRandomSourceFails(t *testing.T) {
	m := NewManager(newMapStore(), logger.Discard())
	m.random = bytes.NewReader(nil)

	_, err := m.Issue(context.Background(), "q")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	store := newMapStore()
	m := NewManager(store, logger.Discard())
	ctx := context.Background()

	tok, err := m.Issue(ctx, "DEV-2026-0007")
	require.NoError(t, err)
	store.byToken[tok] = "DEV-2026-0007"

	id, err := m.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0007", id)

	other, err := m.Issue(ctx, "unused")
	require.NoError(t, err)
	for _, candidate := range []string{other, "", "short", tok[:Length-1] + "Z"} {
		_, err := m.Resolve(ctx, candidate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		assert.Equal(t, domain.MsgQuoteNotFound, err.(*apperr.Error).Message)
	}
}

func hexOf(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}
