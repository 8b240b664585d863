package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepo implements Repo for testing
type mockRepo struct {
	accountBalances []AccountBalanceData
	totalBalance    decimal.Decimal
	history         []DailyBalanceData
	highest         decimal.Decimal
	lowest          decimal.Decimal
	average         decimal.Decimal
	err             error
	statsErr        error
}

func (m *mockRepo) GetAccountBalances(ctx context.Context, userID uuid.UUID) ([]AccountBalanceData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.accountBalances, nil
}

func (m *mockRepo) GetTotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.totalBalance, nil
}

func (m *mockRepo) GetBalanceHistory(ctx context.Context, userID uuid.UUID, days int) ([]DailyBalanceData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

func (m *mockRepo) GetBalanceStats(ctx context.Context, userID uuid.UUID, days int) (highest, lowest, average decimal.Decimal, err error) {
	return m.highest, m.lowest, m.average, m.statsErr
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetBalanceAggregatesAccounts(t *testing.T) {
	mock := &mockRepo{
		accountBalances: []AccountBalanceData{
			{
				Bank:         "CIBC",
				AccountType:  "checking",
				Balance:      dec("1528.40"),
				Transactions: 14,
				LastActivity: time.Now(),
			},
			{
				Bank:         "RBC",
				AccountType:  "credit",
				Balance:      dec("-245.67"),
				Transactions: 7,
				LastActivity: time.Now(),
			},
		},
	}

	svc := NewService(mock)
	result, err := svc.GetBalance(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.True(t, dec("1282.73").Equal(result.Total))
	assert.Equal(t, "$1,282.73", result.TotalDisplay)
	assert.Equal(t, "CAD", result.Currency)
	assert.Len(t, result.Accounts, 2)
}

func TestGetBalanceEmpty(t *testing.T) {
	svc := NewService(&mockRepo{})
	result, err := svc.GetBalance(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Empty(t, result.Accounts)
}

func TestGetBalanceRepoError(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("boom")})
	_, err := svc.GetBalance(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestGetBalanceHistoryClampsDays(t *testing.T) {
	mock := &mockRepo{
		history: []DailyBalanceData{
			{Date: time.Now().AddDate(0, 0, -1), Balance: dec("100"), Change: dec("100")},
			{Date: time.Now(), Balance: dec("75"), Change: dec("-25")},
		},
		highest: dec("100"),
		lowest:  dec("75"),
		average: dec("87.5"),
	}

	svc := NewService(mock)
	for _, days := range []int{0, -5, 9999} {
		result, err := svc.GetBalanceHistory(context.Background(), uuid.New(), days)
		require.NoError(t, err)
		assert.Len(t, result.History, 2)
		assert.True(t, dec("100").Equal(result.Highest))
	}
}

func TestGetBalanceHistoryStatsErrorIsNonFatal(t *testing.T) {
	mock := &mockRepo{
		history:  []DailyBalanceData{{Date: time.Now(), Balance: dec("50"), Change: dec("50")}},
		highest:  dec("50"),
		statsErr: errors.New("stats unavailable"),
	}

	svc := NewService(mock)
	result, err := svc.GetBalanceHistory(context.Background(), uuid.New(), 30)

	require.NoError(t, err)
	assert.True(t, result.Highest.IsZero())
	assert.Len(t, result.History, 1)
}
