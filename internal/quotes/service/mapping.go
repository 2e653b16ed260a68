package service

import (
	"time"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/transport"
)

func (s *Service) toResponse(q *domain.Quote, now time.Time) transport.QuoteResponse {
	status := q.EffectiveStatus(now)
	history := q.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}

	resp := transport.QuoteResponse{
		ID:               q.ID,
		Status:           status,
		PaymentStatus:    q.PaymentStatus,
		Client:           q.Client,
		Project:          q.Project,
		Amounts:          q.Amounts,
		AffiliateCode:    q.AffiliateCode,
		DiscountPercent:  q.DiscountPercent,
		History:          history,
		DuplicatedFrom:   q.DuplicatedFrom,
		AllowedActions:   adminActions(status),
		CreatedAt:        q.CreatedAt,
		ValidityDeadline: q.ValidityDeadline,
		UpdatedAt:        q.UpdatedAt,
		Version:          q.Version,
	}
	if status.IsPubliclyVisible() {
		resp.PublicURL = s.link(q)
	}
	return resp
}

// adminActions lists what the console may offer for a quote in status.
func adminActions(status domain.Status) []string {
	out := []string{}
	for _, a := range domain.Allowed(status, domain.ActorAdmin) {
		out = append(out, string(a))
	}
	if status.IsSent() {
		out = append(out, string(domain.ActionRenvoyer))
	}
	out = append(out, actionDuplicate)
	if status.IsDeletable() {
		out = append(out, actionDelete)
	}
	return out
}

func toSummary(q *domain.Quote, now time.Time) transport.QuoteSummary {
	return transport.QuoteSummary{
		ID:               q.ID,
		Status:           q.EffectiveStatus(now),
		PaymentStatus:    q.PaymentStatus,
		ClientName:       q.Client.Name,
		ClientEmail:      q.Client.Email,
		OfferType:        q.Project.OfferType,
		TotalTTC:         q.Amounts.TTC,
		CreatedAt:        q.CreatedAt,
		ValidityDeadline: q.ValidityDeadline,
		UpdatedAt:        q.UpdatedAt,
	}
}

func toPublicResponse(q *domain.Quote, now time.Time) transport.PublicQuoteResponse {
	status := q.EffectiveStatus(now)
	return transport.PublicQuoteResponse{
		ID:                q.ID,
		Status:            status,
		PaymentStatus:     q.PaymentStatus,
		ClientName:        q.Client.Name,
		ClientCompany:     q.Client.Company,
		Project:           q.Project,
		Amounts:           q.Amounts,
		DiscountPercent:   q.DiscountPercent,
		CreatedAt:         q.CreatedAt,
		ValidityDeadline:  q.ValidityDeadline,
		CanRespond:        status.IsSent(),
		CanCollectContent: q.CanCollectContent(),
	}
}

func toDraftResponse(d *domain.ContentDraft) transport.ContentDraftResponse {
	fields := d.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	resp := transport.ContentDraftResponse{Fields: fields, Version: d.Version}
	if !d.UpdatedAt.IsZero() {
		updated := d.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
