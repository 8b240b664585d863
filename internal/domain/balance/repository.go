// Package balance derives account balances from the imported
// transactions. Statements only carry deltas, so every figure here is a
// sum of signed amounts, not a bank-reported balance.
package balance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mapleledger/mapleledger/pkg/db"
)

// AccountBalanceData holds the computed balance for one bank account.
type AccountBalanceData struct {
	Bank         string          `json:"bank"`
	AccountType  string          `json:"account_type"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions int             `json:"transactions"`
	LastActivity time.Time       `json:"last_activity"`
}

// DailyBalanceData holds a single day's running balance.
type DailyBalanceData struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	Change  decimal.Decimal `json:"change"`
}

// Repository handles balance queries
type Repository struct {
	pool db.Querier
}

// NewRepository creates a new balance repository
func NewRepository(pool db.Querier) *Repository {
	return &Repository{pool: pool}
}

// GetAccountBalances sums transactions per bank and account type.
func (r *Repository) GetAccountBalances(ctx context.Context, userID uuid.UUID) ([]AccountBalanceData, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bank, account_type,
		       COALESCE(SUM(amount), 0),
		       COUNT(*),
		       MAX(txn_date)
		FROM transactions
		WHERE user_id = $1
		GROUP BY bank, account_type
		ORDER BY 3 DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []AccountBalanceData
	for rows.Next() {
		var b AccountBalanceData
		if err := rows.Scan(&b.Bank, &b.AccountType, &b.Balance, &b.Transactions, &b.LastActivity); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// GetTotalBalance sums all of the user's transactions.
func (r *Repository) GetTotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1`,
		userID).Scan(&total)
	return total, err
}

// GetBalanceHistory returns the running balance for each of the last
// `days` days, including days with no activity.
func (r *Repository) GetBalanceHistory(ctx context.Context, userID uuid.UUID, days int) ([]DailyBalanceData, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE dates AS (
			SELECT CURRENT_DATE - ($2::integer) + 1 AS date
			UNION ALL
			SELECT date + 1 FROM dates WHERE date < CURRENT_DATE
		),
		daily_totals AS (
			SELECT txn_date AS date, SUM(amount) AS daily_sum
			FROM transactions
			WHERE user_id = $1
			  AND txn_date >= CURRENT_DATE - ($2::integer)
			GROUP BY txn_date
		)
		SELECT d.date,
		       SUM(COALESCE(dt.daily_sum, 0)) OVER (ORDER BY d.date),
		       COALESCE(dt.daily_sum, 0)
		FROM dates d
		LEFT JOIN daily_totals dt ON dt.date = d.date
		ORDER BY d.date`,
		userID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []DailyBalanceData
	for rows.Next() {
		var d DailyBalanceData
		if err := rows.Scan(&d.Date, &d.Balance, &d.Change); err != nil {
			return nil, err
		}
		history = append(history, d)
	}
	return history, rows.Err()
}

// GetBalanceStats computes summary statistics over the period's running
// balance.
func (r *Repository) GetBalanceStats(ctx context.Context, userID uuid.UUID, days int) (highest, lowest, average decimal.Decimal, err error) {
	err = r.pool.QueryRow(ctx, `
		WITH daily_balances AS (
			SELECT txn_date,
			       SUM(SUM(amount)) OVER (ORDER BY txn_date) AS running_balance
			FROM transactions
			WHERE user_id = $1
			  AND txn_date >= CURRENT_DATE - ($2::integer)
			GROUP BY txn_date
		)
		SELECT COALESCE(MAX(running_balance), 0),
		       COALESCE(MIN(running_balance), 0),
		       COALESCE(AVG(running_balance), 0)
		FROM daily_balances`,
		userID, days).Scan(&highest, &lowest, &average)
	return
}
