package balance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mapleledger/mapleledger/pkg/money"
)

// Repo is the storage surface the service needs.
type Repo interface {
	GetAccountBalances(ctx context.Context, userID uuid.UUID) ([]AccountBalanceData, error)
	GetTotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	GetBalanceHistory(ctx context.Context, userID uuid.UUID, days int) ([]DailyBalanceData, error)
	GetBalanceStats(ctx context.Context, userID uuid.UUID, days int) (highest, lowest, average decimal.Decimal, err error)
}

// Service handles balance business logic
type Service struct {
	repo Repo
}

// NewService creates a new balance service
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// BalanceResult holds the complete balance response
type BalanceResult struct {
	Total        decimal.Decimal      `json:"total"`
	TotalDisplay string               `json:"total_display"`
	Currency     string               `json:"currency"`
	Accounts     []AccountBalanceData `json:"accounts"`
}

// HistoryResult holds balance history response
type HistoryResult struct {
	History  []DailyBalanceData `json:"history"`
	Highest  decimal.Decimal    `json:"highest"`
	Lowest   decimal.Decimal    `json:"lowest"`
	Average  decimal.Decimal    `json:"average"`
	Currency string             `json:"currency"`
}

// GetBalance computes the user's balance per account plus the total.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResult, error) {
	accounts, err := s.repo.GetAccountBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	return &BalanceResult{
		Total:        total,
		TotalDisplay: money.FromDecimal(total, money.DefaultCurrency).Display(),
		Currency:     money.DefaultCurrency,
		Accounts:     accounts,
	}, nil
}

// GetBalanceHistory returns daily balance snapshots for charts.
func (s *Service) GetBalanceHistory(ctx context.Context, userID uuid.UUID, days int) (*HistoryResult, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	history, err := s.repo.GetBalanceHistory(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	highest, lowest, average, err := s.repo.GetBalanceStats(ctx, userID, days)
	if err != nil {
		// Non-fatal, continue with zeros
		highest, lowest, average = decimal.Zero, decimal.Zero, decimal.Zero
	}

	return &HistoryResult{
		History:  history,
		Highest:  highest,
		Lowest:   lowest,
		Average:  average,
		Currency: money.DefaultCurrency,
	}, nil
}
