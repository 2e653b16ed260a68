package service

import (
	"context"
	"strings"
	"time"

	"agency_backend/internal/events"
	"agency_backend/internal/notification"
	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/repository"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/apperr"
	"agency_backend/platform/sanitize"

	"github.com/skip2/go-qrcode"
)

// actionDuplicate is the wire name of the duplicate action. It is not a
// lifecycle action: the source quote is left as it is.
const actionDuplicate = "duplicate"

// actionDelete is listed in allowed actions when the quote may be removed.
const actionDelete = "delete"

const qrCodeSize = 256

// List returns a page of quotes with their effective status.
func (s *Service) List(ctx context.Context, req transport.ListQuotesRequest) (transport.QuoteListResponse, error) {
	now := s.now()
	params := repository.ListParams{
		Now:       now,
		Search:    strings.TrimSpace(req.Search),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return transport.QuoteListResponse{}, err
		}
		params.Status = &status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.QuoteListResponse{}, err
	}

	items := make([]transport.QuoteSummary, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toSummary(&result.Items[i], now))
	}
	return transport.QuoteListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Get returns one quote as the console shows it.
func (s *Service) Get(ctx context.Context, id string) (transport.QuoteResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return s.toResponse(q, s.now()), nil
}

// Act applies an admin action from the console.
func (s *Service) Act(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	switch req.Action {
	case string(domain.ActionValider):
		return s.validate(ctx, id, req)
	case string(domain.ActionRefuser):
		return s.refuse(ctx, id, req)
	case string(domain.ActionAccepter):
		return s.accept(ctx, id, req)
	case string(domain.ActionRenvoyer):
		return s.resend(ctx, id, req)
	case string(domain.ActionMettreEnAttente):
		return s.putOnHold(ctx, id, req)
	case actionDuplicate:
		return s.duplicate(ctx, id)
	default:
		return transport.ActionResponse{}, apperr.FieldValidation("action", "unknown action "+req.Action)
	}
}

// validate sends the quote to the client: the validity window restarts and
// the link is mailed with the agency's message.
func (s *Service) validate(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	message := sanitize.Truncated(req.Message, maxMessageLength)

	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		if err := q.Transition(now, domain.ActorAdmin, domain.ActionValider, domain.TransitionDetails{Details: message}); err != nil {
			return err
		}
		q.RestartValidity(now, s.cfg.GetQuoteValidity())
		return nil
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}

	warnings := s.notify(ctx, s.linkMessage(q, notification.KindQuoteValidated, message))
	return transport.ActionResponse{Quote: s.toResponse(q, s.now()), Warnings: warnings}, nil
}

func (s *Service) refuse(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	comment := sanitize.Truncated(req.Comment, maxMessageLength)

	var reason domain.RefusalReason
	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		if _, err := domain.Next(q.Status, domain.ActorAdmin, domain.ActionRefuser); err != nil {
			return err
		}
		r, err := domain.ParseRefusalReason(req.ReasonCode)
		if err != nil {
			return err
		}
		reason = r
		return q.Transition(now, domain.ActorAdmin, domain.ActionRefuser, domain.TransitionDetails{Reason: r, Details: r.HistoryDetails(comment)})
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}

	var warnings []transport.Warning
	if reason.NotifiesClient() {
		warnings = s.notify(ctx, notification.Message{
			Kind:       notification.KindQuoteRefused,
			QuoteID:    q.ID,
			To:         q.Client.Email,
			ClientName: q.Client.Name,
			ReasonText: reason.Template(),
		})
	}
	return transport.ActionResponse{Quote: s.toResponse(q, s.now()), Warnings: warnings}, nil
}

// accept records an acceptance on the client's behalf. From brouillon or
// en_attente the client never saw the quote, and the history says so.
func (s *Service) accept(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	comment := sanitize.Truncated(req.Comment, maxMessageLength)

	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		details := "Acceptation enregistrée par l'agence"
		if q.Status == domain.StatusBrouillon || q.Status == domain.StatusEnAttente {
			details = "Acceptation directe par l'agence, sans envoi au client"
		}
		if comment != "" {
			details += " : " + comment
		}
		return q.Transition(now, domain.ActorAdmin, domain.ActionAccepter, domain.TransitionDetails{Details: details})
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}
	return transport.ActionResponse{Quote: s.toResponse(q, s.now())}, nil
}

// resend mails the link again without touching the status. Each attempt
// leaves its own history entry.
func (s *Service) resend(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	message := sanitize.Truncated(req.Message, maxMessageLength)

	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		if !q.Status.IsSent() {
			return apperr.InvalidTransition(domain.MsgNotResendable).
				WithDetails(map[string]string{"status": string(q.Status), "action": string(domain.ActionRenvoyer)})
		}
		q.Note(now, domain.ActorAdmin, domain.ActionRenvoyer, message)
		return nil
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}

	warnings := s.notify(ctx, s.linkMessage(q, notification.KindQuoteResent, message))
	return transport.ActionResponse{Quote: s.toResponse(q, s.now()), Warnings: warnings}, nil
}

func (s *Service) putOnHold(ctx context.Context, id string, req transport.QuoteActionRequest) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	comment := sanitize.Truncated(req.Comment, maxMessageLength)

	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		return q.Transition(now, domain.ActorAdmin, domain.ActionMettreEnAttente, domain.TransitionDetails{Details: comment})
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}
	return transport.ActionResponse{Quote: s.toResponse(q, s.now())}, nil
}

// duplicate copies any quote into a new draft with its own number and token.
func (s *Service) duplicate(ctx context.Context, id string) (transport.ActionResponse, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}

	now := s.now()
	newID, err := s.repo.NextQuoteNumber(ctx, s.cfg.GetQuoteNumberPrefix(), now.Year())
	if err != nil {
		return transport.ActionResponse{}, err
	}
	tok, err := s.tokens.Issue(ctx, newID)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	dup, err := src.Duplicate(newID, tok, now, s.cfg.GetQuoteValidity())
	if err != nil {
		return transport.ActionResponse{}, err
	}
	if err := s.repo.Create(ctx, dup); err != nil {
		return transport.ActionResponse{}, err
	}

	s.log.WithContext(ctx).Info("quote duplicated", "quote_id", dup.ID, "source_quote_id", src.ID)
	s.publish(ctx, events.QuoteDuplicated{
		BaseEvent:     events.NewBaseEvent(),
		SourceQuoteID: src.ID,
		QuoteID:       dup.ID,
	})
	return transport.ActionResponse{Quote: s.toResponse(dup, now)}, nil
}

// Delete physically removes a refused or expired quote. Its token is retired
// with it.
func (s *Service) Delete(ctx context.Context, id string, expected *int) error {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expected != nil && *expected != q.Version {
		return apperr.Conflict(domain.MsgStaleQuote)
	}

	q.MaterializeExpiry(s.now())
	if !q.Status.IsDeletable() {
		return apperr.InvalidTransition(domain.MsgNotDeletable).
			WithDetails(map[string]string{"status": string(q.Status)})
	}
	if err := s.repo.Delete(ctx, q.ID, q.Version); err != nil {
		return err
	}

	s.log.WithContext(ctx).Info("quote deleted", "quote_id", q.ID, "status", string(q.Status))
	s.publish(ctx, events.QuoteDeleted{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   q.ID,
		Status:    string(q.Status),
	})
	return nil
}

// RegenerateToken replaces the client link. The old token is retired in the
// same write and resolves to nothing from then on.
func (s *Service) RegenerateToken(ctx context.Context, id string) (transport.ActionResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}

	now := s.now()
	before := len(q.History)
	q.MaterializeExpiry(now)

	tok, err := s.tokens.Issue(ctx, q.ID)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	old := q.Token
	q.Token = tok
	q.Note(now, domain.ActorAdmin, domain.ActionTokenRegenere, "")

	if err := s.repo.RotateToken(ctx, q, old); err != nil {
		return transport.ActionResponse{}, err
	}
	s.announce(ctx, q, q.History[before:])
	s.publish(ctx, events.QuoteTokenRegenerated{BaseEvent: events.NewBaseEvent(), QuoteID: q.ID})
	return transport.ActionResponse{Quote: s.toResponse(q, now)}, nil
}

// RecordPayment moves the payment status of an accepted quote forward.
func (s *Service) RecordPayment(ctx context.Context, id string, req transport.PaymentRequest) (transport.ActionResponse, error) {
	to, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ActionResponse{}, err
	}

	err = s.mutate(ctx, q, req.Version, func(q *domain.Quote, now time.Time) error {
		return q.AdvancePayment(now, to)
	})
	if err != nil {
		return transport.ActionResponse{}, err
	}

	s.publish(ctx, events.QuotePaymentRecorded{
		BaseEvent:     events.NewBaseEvent(),
		QuoteID:       q.ID,
		PaymentStatus: string(q.PaymentStatus),
	})
	return transport.ActionResponse{Quote: s.toResponse(q, s.now())}, nil
}

// QRCode renders the client link as a PNG, once the link is live.
func (s *Service) QRCode(ctx context.Context, id string) ([]byte, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.EffectiveStatus(s.now()).IsPubliclyVisible() {
		return nil, apperr.Conflict("the client link is not active until the quote is validated")
	}
	return qrcode.Encode(s.link(q), qrcode.Medium, qrCodeSize)
}
