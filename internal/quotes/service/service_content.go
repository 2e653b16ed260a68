package service

import (
	"context"
	"strings"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/apperr"
	"agency_backend/platform/sanitize"
)

// GetContent returns the client's content draft. It is only reachable once
// the quote is accepted and the deposit paid.
func (s *Service) GetContent(ctx context.Context, tok string) (transport.ContentDraftResponse, error) {
	q, err := s.contentQuote(ctx, tok)
	if err != nil {
		return transport.ContentDraftResponse{}, err
	}
	draft, err := s.repo.GetContentDraft(ctx, q.ID)
	if err != nil {
		return transport.ContentDraftResponse{}, err
	}
	return toDraftResponse(draft), nil
}

// SaveContent replaces the draft. The quote itself is never written.
func (s *Service) SaveContent(ctx context.Context, tok string, req transport.SaveContentRequest) (transport.ContentDraftResponse, error) {
	q, err := s.contentQuote(ctx, tok)
	if err != nil {
		return transport.ContentDraftResponse{}, err
	}

	fields := make(map[string]string, len(req.Fields))
	for k, v := range req.Fields {
		fields[strings.TrimSpace(k)] = sanitize.Text(v)
	}
	if err := domain.ValidateDraftFields(fields); err != nil {
		return transport.ContentDraftResponse{}, err
	}

	draft := &domain.ContentDraft{
		QuoteID:   q.ID,
		Fields:    fields,
		UpdatedAt: s.now(),
		Version:   req.Version,
	}
	if err := s.repo.SaveContentDraft(ctx, draft); err != nil {
		return transport.ContentDraftResponse{}, err
	}
	s.log.WithContext(ctx).Info("content draft saved", "quote_id", q.ID, "version", draft.Version)
	return toDraftResponse(draft), nil
}

func (s *Service) contentQuote(ctx context.Context, tok string) (*domain.Quote, error) {
	q, err := s.loadByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if !q.CanCollectContent() {
		return nil, apperr.Forbidden(domain.MsgContentLocked)
	}
	return q, nil
}
