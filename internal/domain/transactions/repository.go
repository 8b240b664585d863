// Package transactions exposes the stored canonical transactions: listing
// with filters, pagination, and per-category monthly summaries.
package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mapleledger/mapleledger/pkg/db"
)

// Transaction is a stored canonical transaction.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Date          time.Time       `json:"date"`
	DateConfident bool            `json:"date_confident"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Bank          string          `json:"bank"`
	AccountType   string          `json:"account_type"`
	CategoryID    *int            `json:"category_id,omitempty"`
	CategoryHint  string          `json:"category_hint,omitempty"`
}

// Filter narrows a transaction listing. Zero values mean "no filter".
type Filter struct {
	From       time.Time
	To         time.Time
	CategoryID *int
	Bank       string
	Search     string // substring match on description
	Limit      int
	Offset     int
}

// CategoryTotal is one row of a monthly spending summary.
type CategoryTotal struct {
	CategoryID *int            `json:"category_id"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// Repository is the storage surface of the transactions domain.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Transaction, error)
	SetCategory(ctx context.Context, userID, id uuid.UUID, categoryID *int) error
	MonthlyTotals(ctx context.Context, userID uuid.UUID, month time.Time) ([]CategoryTotal, error)
}

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	pool db.Querier
}

func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns the user's transactions newest first, applying the filter.
// The query is assembled with positional placeholders only.
func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Transaction, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !filter.From.IsZero() {
		add("txn_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("txn_date <= $%d", filter.To)
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.Bank != "" {
		add("bank = $%d", filter.Bank)
	}
	if filter.Search != "" {
		add("description ILIKE $%d", "%"+filter.Search+"%")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT id, txn_date, date_confident, description, amount,
		       bank, account_type, category_id, category_hint
		FROM transactions
		WHERE %s
		ORDER BY txn_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.DateConfident, &t.Description, &t.Amount,
			&t.Bank, &t.AccountType, &t.CategoryID, &t.CategoryHint); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// SetCategory overrides a transaction's category. A nil category clears it
// back to uncategorized.
func (r *PostgresRepository) SetCategory(ctx context.Context, userID, id uuid.UUID, categoryID *int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions SET category_id = $3
		WHERE id = $1 AND user_id = $2`,
		id, userID, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found")
	}
	return nil
}

// MonthlyTotals sums signed amounts per category for one calendar month.
func (r *PostgresRepository) MonthlyTotals(ctx context.Context, userID uuid.UUID, month time.Time) ([]CategoryTotal, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.pool.Query(ctx, `
		SELECT category_id, COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND txn_date >= $2 AND txn_date < $3
		GROUP BY category_id
		ORDER BY 2 ASC`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.CategoryID, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
