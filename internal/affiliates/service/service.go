package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"agency_backend/internal/affiliates/repository"
	"agency_backend/internal/affiliates/transport"
	"agency_backend/platform/apperr"
	"agency_backend/platform/sanitize"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// Repository is the storage the service needs.
type Repository interface {
	Upsert(ctx context.Context, a repository.Affiliate) (repository.Affiliate, error)
	GetByCode(ctx context.Context, code string) (repository.Affiliate, error)
	List(ctx context.Context) ([]repository.Affiliate, error)
}

// Service provides business logic for affiliates. It is also the discount
// validator used when quotes are created.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates a new affiliates service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Upsert(ctx context.Context, code string, req transport.UpsertAffiliateRequest) (transport.AffiliateResponse, error) {
	code = NormalizeCode(code)
	if !codePattern.MatchString(code) {
		return transport.AffiliateResponse{}, apperr.FieldValidation("code", "codes are 3 to 32 letters, digits, '-' or '_'")
	}

	a, err := s.repo.Upsert(ctx, repository.Affiliate{
		Code:            code,
		Name:            sanitize.Text(req.Name),
		DiscountPercent: *req.DiscountPercent,
		Active:          *req.Active,
		UpdatedAt:       s.now(),
	})
	if err != nil {
		return transport.AffiliateResponse{}, err
	}
	return mapAffiliate(a), nil
}

func (s *Service) List(ctx context.Context) (transport.AffiliateListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.AffiliateListResponse{}, err
	}
	out := transport.AffiliateListResponse{Items: make([]transport.AffiliateResponse, 0, len(items))}
	for _, a := range items {
		out.Items = append(out.Items, mapAffiliate(a))
	}
	return out, nil
}

// PublicLookup returns an active affiliate. Inactive and unknown codes are
// both NotFound.
func (s *Service) PublicLookup(ctx context.Context, code string) (transport.PublicAffiliateResponse, error) {
	a, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return transport.PublicAffiliateResponse{}, err
	}
	if !a.Active {
		return transport.PublicAffiliateResponse{}, apperr.NotFound("affiliate not found")
	}
	return transport.PublicAffiliateResponse{Code: a.Code, Name: a.Name, DiscountPercent: a.DiscountPercent}, nil
}

// Lookup validates a code for a new quote. ok is false for unknown or
// inactive codes; err is only set when the lookup itself failed.
func (s *Service) Lookup(ctx context.Context, code string) (percent int, ok bool, err error) {
	code = NormalizeCode(code)
	if code == "" {
		return 0, false, nil
	}
	a, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !a.Active {
		return 0, false, nil
	}
	return a.DiscountPercent, true, nil
}

func mapAffiliate(a repository.Affiliate) transport.AffiliateResponse {
	return transport.AffiliateResponse{
		Code:            a.Code,
		Name:            a.Name,
		DiscountPercent: a.DiscountPercent,
		Active:          a.Active,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
