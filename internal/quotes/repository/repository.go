// Package repository stores quotes. Every write is an optimistic
// read-modify-write: it only applies when the stored version still matches
// the version the caller read, and fails with a Conflict error otherwise.
package repository

import (
	"context"
	"fmt"
	"time"

	"agency_backend/internal/quotes/domain"
	"agency_backend/platform/apperr"
)

// ListParams contains parameters for listing quotes.
type ListParams struct {
	Status *domain.Status
	// Now decides which sent quotes already read as expire when filtering
	// by status. Stored rows are returned unchanged.
	Now       time.Time
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing quotes.
type ListResult struct {
	Items      []domain.Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Store is the persistence contract of the quote lifecycle.
type Store interface {
	NextQuoteNumber(ctx context.Context, prefix string, year int) (string, error)
	Create(ctx context.Context, q *domain.Quote) error
	GetByID(ctx context.Context, id string) (*domain.Quote, error)
	GetByToken(ctx context.Context, token string) (*domain.Quote, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	// Update writes q if the stored version equals q.Version, then bumps
	// q.Version. History entries already stored are never rewritten.
	Update(ctx context.Context, q *domain.Quote) error
	// RotateToken is Update plus retiring oldToken, in one transaction.
	RotateToken(ctx context.Context, q *domain.Quote, oldToken string) error
	// Delete removes the quote at version and retires its token.
	Delete(ctx context.Context, id string, version int) error
	QuoteIDByToken(ctx context.Context, token string) (string, error)
	TokenUsed(ctx context.Context, token string) (bool, error)
	GetContentDraft(ctx context.Context, quoteID string) (*domain.ContentDraft, error)
	// SaveContentDraft stores draft if draft.Version matches the stored one
	// (zero for a first save), then bumps draft.Version.
	SaveContentDraft(ctx context.Context, draft *domain.ContentDraft) error
}

func formatQuoteNumber(prefix string, year, n int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, n)
}

func staleQuote() *apperr.Error {
	return apperr.Conflict(domain.MsgStaleQuote)
}

func staleDraft() *apperr.Error {
	return apperr.Conflict(domain.MsgStaleDraft)
}

func normalizePaging(params ListParams) ListParams {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}
	return params
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "id", "status", "total", "createdAt", "updatedAt":
		return sortBy, nil
	default:
		return "", apperr.FieldValidation("sortBy", "invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.FieldValidation("sortOrder", "invalid sort order")
	}
}

func totalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}
