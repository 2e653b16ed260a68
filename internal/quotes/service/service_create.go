package service

import (
	"context"
	"strings"

	"agency_backend/internal/events"
	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/pricing"
	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/phone"
	"agency_backend/platform/sanitize"
)

const (
	maxClientNameLength    = 120
	maxClientAddressLength = 300
)

// Catalog returns the offers and options the funnel can choose from.
func (s *Service) Catalog() transport.CatalogResponse {
	regime := s.taxRegime()
	return transport.CatalogResponse{
		Currency:     s.catalog.Currency,
		PricePerPage: s.catalog.PricePerPage,
		VATEnabled:   regime.Enabled,
		VATRate:      regime.EffectiveRate(),
		Offers:       s.catalog.Offers,
		Options:      s.catalog.Options,
	}
}

// Preview prices a selection exactly like Create would, without storing it.
func (s *Service) Preview(ctx context.Context, req transport.PreviewRequest) (transport.PreviewResponse, error) {
	project, err := s.catalog.Resolve(toSelection(req.Project), s.taxRegime())
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	percent, _, warnings, err := s.resolveDiscount(ctx, req.AffiliateCode)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	amounts, err := pricing.ComputeAmounts(project, percent)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	return transport.PreviewResponse{
		Project:         project,
		Amounts:         amounts,
		DiscountPercent: percent,
		Warnings:        warnings,
	}, nil
}

// Create opens a draft from the admin console.
func (s *Service) Create(ctx context.Context, req transport.CreateQuoteRequest) (transport.ActionResponse, error) {
	q, warnings, err := s.open(ctx, req, domain.StatusBrouillon, domain.ActorAdmin)
	if err != nil {
		return transport.ActionResponse{}, err
	}
	return transport.ActionResponse{Quote: s.toResponse(q, s.now()), Warnings: warnings}, nil
}

// SubmitRequest records a request from the public funnel. It waits in
// en_attente until the agency reviews it.
func (s *Service) SubmitRequest(ctx context.Context, req transport.CreateQuoteRequest) (transport.QuoteRequestResponse, error) {
	q, warnings, err := s.open(ctx, req, domain.StatusEnAttente, domain.ActorClient)
	if err != nil {
		return transport.QuoteRequestResponse{}, err
	}
	return transport.QuoteRequestResponse{
		ID:       q.ID,
		Status:   q.Status,
		Amounts:  q.Amounts,
		Warnings: warnings,
	}, nil
}

func (s *Service) open(ctx context.Context, req transport.CreateQuoteRequest, status domain.Status, actor domain.Actor) (*domain.Quote, []transport.Warning, error) {
	project, err := s.catalog.Resolve(toSelection(req.Project), s.taxRegime())
	if err != nil {
		return nil, nil, err
	}
	percent, code, warnings, err := s.resolveDiscount(ctx, req.AffiliateCode)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	id, err := s.repo.NextQuoteNumber(ctx, s.cfg.GetQuoteNumberPrefix(), now.Year())
	if err != nil {
		return nil, nil, err
	}
	tok, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	q, err := domain.New(domain.NewParams{
		ID:              id,
		Token:           tok,
		Status:          status,
		Actor:           actor,
		Client:          toClient(req.Client),
		Project:         project,
		AffiliateCode:   code,
		DiscountPercent: percent,
		Now:             now,
		Validity:        s.cfg.GetQuoteValidity(),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, nil, err
	}

	s.log.WithContext(ctx).Info("quote created", "quote_id", q.ID, "status", string(q.Status), "actor", string(actor))
	s.publish(ctx, events.QuoteCreated{
		BaseEvent:     events.NewBaseEvent(),
		QuoteID:       q.ID,
		Status:        string(q.Status),
		Actor:         string(actor),
		AffiliateCode: q.AffiliateCode,
		TotalTTC:      q.Amounts.TTC.StringFixed(2),
	})
	return q, warnings, nil
}

// resolveDiscount turns an optional affiliate code into a percentage. An
// unknown or inactive code never fails the request: it is dropped with a
// warning.
func (s *Service) resolveDiscount(ctx context.Context, raw string) (int, string, []transport.Warning, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return 0, "", nil, nil
	}
	ignored := []transport.Warning{{
		Code:    transport.WarningAffiliateCodeIgnored,
		Message: "unknown or inactive affiliate code, no discount applied",
	}}
	if s.discounts == nil {
		return 0, "", ignored, nil
	}

	percent, ok, err := s.discounts.Lookup(ctx, code)
	if err != nil {
		return 0, "", nil, err
	}
	if !ok {
		return 0, "", ignored, nil
	}
	return percent, code, nil, nil
}

func (s *Service) taxRegime() pricing.TaxRegime {
	return pricing.TaxRegime{Enabled: s.cfg.GetVATEnabled(), Rate: s.cfg.GetVATRate()}
}

func toSelection(p transport.ProjectRequest) pricing.Selection {
	options := make([]pricing.OptionChoice, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, pricing.OptionChoice{Key: strings.TrimSpace(o.Key), Quantity: o.Quantity})
	}
	return pricing.Selection{
		OfferType:   strings.TrimSpace(p.OfferType),
		ExtraPages:  p.ExtraPages,
		Options:     options,
		Description: p.Description,
	}
}

func toClient(c transport.ClientRequest) domain.Client {
	return domain.Client{
		Name:    sanitize.Truncated(c.Name, maxClientNameLength),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Company: sanitize.Truncated(c.Company, maxClientNameLength),
		Address: sanitize.Truncated(c.Address, maxClientAddressLength),
		Phone:   phone.NormalizeE164(c.Phone),
	}
}
