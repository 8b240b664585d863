package transactions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service wraps the repository with input validation.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the user's transactions for the given filter.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Transaction, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		filter.From, filter.To = filter.To, filter.From
	}
	return s.repo.List(ctx, userID, filter)
}

// Recategorize overrides one transaction's category.
func (s *Service) Recategorize(ctx context.Context, userID, id uuid.UUID, categoryID *int) error {
	return s.repo.SetCategory(ctx, userID, id, categoryID)
}

// MonthlySummary returns per-category totals for the month containing ref.
func (s *Service) MonthlySummary(ctx context.Context, userID uuid.UUID, ref time.Time) ([]CategoryTotal, error) {
	return s.repo.MonthlyTotals(ctx, userID, ref)
}

// exportPageSize bounds each page pulled during an export.
const exportPageSize = 500

// Export returns every transaction matching the filter, paging through
// the repository's listing limit.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, filter Filter) ([]Transaction, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		filter.From, filter.To = filter.To, filter.From
	}
	filter.Limit = exportPageSize
	filter.Offset = 0

	var all []Transaction
	for {
		page, err := s.repo.List(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
		filter.Offset += exportPageSize
	}
}
