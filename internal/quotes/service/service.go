// Package service implements the quote use cases: creation from the console
// or the public funnel, the admin actions, the client link and the content
// draft. Every write is one optimistic read-modify-write on the repository.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"agency_backend/internal/events"
	"agency_backend/internal/notification"
	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/pricing"
	"agency_backend/internal/quotes/repository"
	"agency_backend/internal/quotes/token"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/apperr"
	"agency_backend/platform/config"
	"agency_backend/platform/logger"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	publicPathPrefix     = "/devis/"
	maxMessageLength     = 2000
)

// DiscountValidator resolves an affiliate code to its discount. ok is false
// for unknown or inactive codes.
type DiscountValidator interface {
	Lookup(ctx context.Context, code string) (percent int, ok bool, err error)
}

// Config is the part of the application configuration the service reads.
type Config interface {
	config.QuoteConfig
	config.NotificationConfig
}

// Service provides business logic for quotes.
type Service struct {
	repo      repository.Store
	tokens    *token.Manager
	catalog   *pricing.Catalog
	cfg       Config
	discounts DiscountValidator
	notifier  notification.Dispatcher
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new quotes service. Notifications are dropped until a
// notifier is set.
func New(repo repository.Store, tokens *token.Manager, catalog *pricing.Catalog, cfg Config, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		tokens:  tokens,
		catalog: catalog,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		notifier: notification.DispatcherFunc(func(context.Context, notification.Message) error {
			return nil
		}),
	}
}

// SetDiscountValidator sets the affiliate code lookup used at creation.
func (s *Service) SetDiscountValidator(v DiscountValidator) {
	s.discounts = v
}

// SetNotifier sets the dispatcher for client and agency emails.
func (s *Service) SetNotifier(d notification.Dispatcher) {
	s.notifier = d
}

// SetEventBus sets the event bus for publishing domain events.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, e)
}

// mutate runs fn on q as one write. A pending expiry is recorded first, so
// fn always sees the expired state. If fn fails after an expiry was recorded
// the expiry alone is stored and fn's error is returned. expected, when set,
// must equal the version the caller last read.
func (s *Service) mutate(ctx context.Context, q *domain.Quote, expected *int, fn func(q *domain.Quote, now time.Time) error) error {
	if expected != nil && *expected != q.Version {
		return apperr.Conflict(domain.MsgStaleQuote)
	}

	now := s.now()
	before := len(q.History)
	expired := q.MaterializeExpiry(now)

	if err := fn(q, now); err != nil {
		if expired {
			if saveErr := s.save(ctx, q, before); saveErr != nil {
				s.log.WithContext(ctx).Error("failed to record quote expiry", "quote_id", q.ID, "error", saveErr)
			}
		}
		return err
	}
	return s.save(ctx, q, before)
}

// save writes q and announces the transitions appended since before.
func (s *Service) save(ctx context.Context, q *domain.Quote, before int) error {
	if err := s.repo.Update(ctx, q); err != nil {
		return err
	}
	s.announce(ctx, q, q.History[before:])
	return nil
}

func (s *Service) announce(ctx context.Context, q *domain.Quote, entries []domain.HistoryEntry) {
	log := s.log.WithContext(ctx)
	for _, e := range entries {
		if !e.IsTransition() {
			continue
		}
		log.QuoteTransition(q.ID, string(e.From), string(e.To), string(e.Actor), string(e.Action))
		s.publish(ctx, events.QuoteStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			QuoteID:    q.ID,
			FromStatus: string(e.From),
			ToStatus:   string(e.To),
			Actor:      string(e.Actor),
			Action:     string(e.Action),
			Reason:     string(e.Reason),
		})
		if e.To == domain.StatusAccepte {
			s.publish(ctx, events.QuoteAccepted{
				BaseEvent: events.NewBaseEvent(),
				QuoteID:   q.ID,
				Actor:     string(e.Actor),
				TotalTTC:  q.Amounts.TTC.StringFixed(2),
			})
		}
	}
}

// notify dispatches msg within the configured timeout. The caller's write is
// already committed: a failure is logged and turned into a warning, never
// into an error.
func (s *Service) notify(ctx context.Context, msg notification.Message) []transport.Warning {
	if msg.To == "" {
		return nil
	}
	timeout := s.cfg.GetNotifyTimeout()
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.notifier.Dispatch(nctx, msg)
	}()

	var err error
	select {
	case err = <-done:
	case <-nctx.Done():
		err = nctx.Err()
	}
	if err == nil {
		return nil
	}

	s.log.WithContext(ctx).NotificationFailed(msg.QuoteID, string(msg.Kind), err)
	return []transport.Warning{{
		Code:    transport.WarningNotificationFailed,
		Message: "the action was applied but the notification could not be sent",
	}}
}

// link is the client URL of q. It embeds the token and must not be logged.
func (s *Service) link(q *domain.Quote) string {
	return strings.TrimRight(s.cfg.GetPublicBaseURL(), "/") + publicPathPrefix + q.Token
}

func (s *Service) linkMessage(q *domain.Quote, kind notification.Kind, note string) notification.Message {
	return notification.Message{
		Kind:       kind,
		QuoteID:    q.ID,
		To:         q.Client.Email,
		ClientName: q.Client.Name,
		Link:       s.link(q),
		TotalTTC:   q.Amounts.TTC,
		ValidUntil: q.ValidityDeadline,
		Comment:    note,
	}
}

func isStale(err error) bool {
	return errors.Is(err, apperr.ErrConflict)
}
