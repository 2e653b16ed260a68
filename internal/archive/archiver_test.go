package archive

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"agency_backend/internal/events"
	"agency_backend/internal/quotes/transport"
	platformevents "agency_backend/platform/events"
	"agency_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStore) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = body
	return nil
}

type quoteReader map[string]transport.QuoteResponse

func (r quoteReader) Get(_ context.Context, id string) (transport.QuoteResponse, error) {
	q, ok := r[id]
	if !ok {
		return transport.QuoteResponse{}, errors.New("not found")
	}
	return q, nil
}

func newArchiver(store ObjectStore) *Archiver {
	a := New(store, quoteReader{
		"DEV-2026-0001": {ID: "DEV-2026-0001", PublicURL: "https://agence.test/devis/secret"},
	}, logger.Discard())
	a.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return a
}

func TestArchiveWritesSnapshotWithoutLink(t *testing.T) {
	store := &memoryStore{}

	key, err := newArchiver(store).Archive(context.Background(), "DEV-2026-0001", "client")
	require.NoError(t, err)
	assert.Equal(t, "quotes/DEV-2026-0001/accepted-1772445600.json", key)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(store.objects[key], &snap))
	assert.Equal(t, "client", snap.AcceptedBy)
	assert.Equal(t, "DEV-2026-0001", snap.Quote.ID)
	assert.Empty(t, snap.Quote.PublicURL)
	assert.NotContains(t, string(store.objects[key]), "secret")
}

func TestArchiveUnknownQuote(t *testing.T) {
	store := &memoryStore{}

	_, err := newArchiver(store).Archive(context.Background(), "DEV-2026-0099", "admin")

	assert.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestAcceptedEventTriggersArchive(t *testing.T) {
	store := &memoryStore{}
	bus := platformevents.NewInMemoryBus(logger.Discard())
	newArchiver(store).Subscribe(bus)

	bus.Publish(context.Background(), events.QuoteAccepted{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   "DEV-2026-0001",
		Actor:     "admin",
	})
	bus.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.objects, 1)
}
