package service

import (
	"context"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/repository"
	"agency_backend/platform/apperr"
)

const sweepPageSize = 100

// SweepExpired records the expiry of every sent quote past its deadline.
// Reads already derive expire on their own; the sweep keeps stored rows and
// history in step for reporting. It returns how many quotes it wrote.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired := domain.StatusExpire

	var ids []string
	for page := 1; ; page++ {
		result, err := s.repo.List(ctx, repository.ListParams{
			Status:    &expired,
			Now:       now,
			SortBy:    "createdAt",
			SortOrder: "asc",
			Page:      page,
			PageSize:  sweepPageSize,
		})
		if err != nil {
			return 0, err
		}
		for _, q := range result.Items {
			if q.Status.IsSent() {
				ids = append(ids, q.ID)
			}
		}
		if page >= result.TotalPages {
			break
		}
	}

	written := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		q, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			return written, err
		}
		before := len(q.History)
		if !q.MaterializeExpiry(s.now()) {
			continue
		}
		if err := s.save(ctx, q, before); err != nil {
			// Someone else wrote the quote first and recorded the expiry.
			if isStale(err) {
				continue
			}
			return written, err
		}
		written++
	}

	if written > 0 {
		s.log.WithContext(ctx).Info("expired quotes recorded", "count", written)
	}
	return written, nil
}
