package service

import (
	"context"
	"time"

	"agency_backend/internal/notification"
	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/apperr"
	"agency_backend/platform/sanitize"
)

// maxViewAttempts bounds the retries of a view racing another write.
const maxViewAttempts = 3

// loadByToken resolves the client link. A quote the client may not see yet
// answers exactly like an unknown token.
func (s *Service) loadByToken(ctx context.Context, tok string) (*domain.Quote, error) {
	id, err := s.tokens.Resolve(ctx, tok)
	if err != nil {
		return nil, err
	}
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.EffectiveStatus(s.now()).IsPubliclyVisible() {
		return nil, domain.ErrQuoteNotFound()
	}
	return q, nil
}

// View shows the quote behind a link. The first view of a sent quote marks
// it consulte; a pending expiry is recorded on the way.
func (s *Service) View(ctx context.Context, tok string) (transport.PublicQuoteResponse, error) {
	for attempt := 0; attempt < maxViewAttempts; attempt++ {
		q, err := s.loadByToken(ctx, tok)
		if err != nil {
			return transport.PublicQuoteResponse{}, err
		}

		now := s.now()
		before := len(q.History)
		expired := q.MaterializeExpiry(now)
		_, recorded := q.RecordView(now)
		if !expired && !recorded {
			return toPublicResponse(q, now), nil
		}

		err = s.save(ctx, q, before)
		if err == nil {
			return toPublicResponse(q, now), nil
		}
		if !isStale(err) {
			return transport.PublicQuoteResponse{}, err
		}
	}
	return transport.PublicQuoteResponse{}, apperr.Conflict(domain.MsgStaleQuote)
}

// ClientAccept records the client's acceptance and tells the agency.
func (s *Service) ClientAccept(ctx context.Context, tok string) (transport.PublicQuoteResponse, error) {
	q, err := s.loadByToken(ctx, tok)
	if err != nil {
		return transport.PublicQuoteResponse{}, err
	}

	err = s.mutate(ctx, q, nil, func(q *domain.Quote, now time.Time) error {
		return q.Transition(now, domain.ActorClient, domain.ActionAccepter, domain.TransitionDetails{})
	})
	if err != nil {
		return transport.PublicQuoteResponse{}, err
	}

	s.notifyAgency(ctx, q, notification.KindClientAccepted, "")
	return toPublicResponse(q, s.now()), nil
}

// ClientRefuse records the client's refusal with an optional comment.
func (s *Service) ClientRefuse(ctx context.Context, tok string, req transport.ClientRefuseRequest) (transport.PublicQuoteResponse, error) {
	q, err := s.loadByToken(ctx, tok)
	if err != nil {
		return transport.PublicQuoteResponse{}, err
	}
	comment := sanitize.Truncated(req.Comment, maxMessageLength)

	err = s.mutate(ctx, q, nil, func(q *domain.Quote, now time.Time) error {
		return q.Transition(now, domain.ActorClient, domain.ActionRefuser, domain.TransitionDetails{Details: comment})
	})
	if err != nil {
		return transport.PublicQuoteResponse{}, err
	}

	s.notifyAgency(ctx, q, notification.KindClientRefused, comment)
	return toPublicResponse(q, s.now()), nil
}

// notifyAgency mails the client's decision to the agency owner, when an
// address is configured. The client is not told about failures.
func (s *Service) notifyAgency(ctx context.Context, q *domain.Quote, kind notification.Kind, comment string) {
	to := s.cfg.GetAdminNotifyEmail()
	if to == "" {
		return
	}
	s.notify(ctx, notification.Message{
		Kind:       kind,
		QuoteID:    q.ID,
		To:         to,
		ClientName: q.Client.Name,
		TotalTTC:   q.Amounts.TTC,
		Comment:    comment,
	})
}
