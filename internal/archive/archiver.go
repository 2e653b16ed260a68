package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agency_backend/internal/events"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/logger"
)

// QuoteReader loads the admin view of a quote.
type QuoteReader interface {
	Get(ctx context.Context, id string) (transport.QuoteResponse, error)
}

// Snapshot is the archived document.
type Snapshot struct {
	ArchivedAt time.Time               `json:"archivedAt"`
	AcceptedBy string                  `json:"acceptedBy"`
	Quote      transport.QuoteResponse `json:"quote"`
}

// Archiver writes a snapshot when a quote is accepted.
type Archiver struct {
	store  ObjectStore
	quotes QuoteReader
	log    *logger.Logger
	now    func() time.Time
}

// New creates an Archiver.
func New(store ObjectStore, quotes QuoteReader, log *logger.Logger) *Archiver {
	return &Archiver{store: store, quotes: quotes, log: log, now: time.Now}
}

// Subscribe registers the archiver on the event bus.
func (a *Archiver) Subscribe(bus events.Bus) {
	bus.Subscribe(events.QuoteAccepted{}.EventName(), events.HandlerFunc(a.handle))
}

func (a *Archiver) handle(ctx context.Context, e events.Event) error {
	accepted, ok := e.(events.QuoteAccepted)
	if !ok {
		return nil
	}
	key, err := a.Archive(ctx, accepted.QuoteID, accepted.Actor)
	if err != nil {
		return err
	}
	a.log.Info("quote archived", "quoteId", accepted.QuoteID, "key", key)
	return nil
}

// Archive stores the current state of quote id and returns the object key.
func (a *Archiver) Archive(ctx context.Context, id, actor string) (string, error) {
	q, err := a.quotes.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load quote %s: %w", id, err)
	}
	// The public link is a bearer credential and stays out of storage.
	q.PublicURL = ""

	now := a.now().UTC()
	body, err := json.MarshalIndent(Snapshot{ArchivedAt: now, AcceptedBy: actor, Quote: q}, "", "  ")
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("quotes/%s/accepted-%d.json", id, now.Unix())
	if err := a.store.Put(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}
