// Package repository persists statement uploads and the transactions
// extracted from them.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mapleledger/mapleledger/pkg/db"
)

// ErrUploadNotFound is returned when an upload job does not exist or
// belongs to another user.
var ErrUploadNotFound = errors.New("upload not found")

// Upload is one statement-upload job and its lifecycle state.
type Upload struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	FileName    string
	SizeBytes   int64
	Bank        string
	AccountType string
	Status      string // running, succeeded, failed
	TxParsed    int
	TxImported  int
	TxDuplicate int
	Error       *string
	CreatedAt   time.Time
	FinishedAt  *time.Time
}

// Record is a canonical transaction ready for storage.
type Record struct {
	Date          time.Time
	DateConfident bool
	Description   string
	Amount        decimal.Decimal
	Bank          string
	AccountType   string
	CategoryID    *int
	CategoryHint  string
}

// ImportRepository is the storage surface the import service depends on.
type ImportRepository interface {
	CreateUpload(ctx context.Context, upload *Upload) error
	FinishUpload(ctx context.Context, id uuid.UUID, status string, parsed, imported, duplicates int, errMsg *string) error
	GetUpload(ctx context.Context, userID, id uuid.UUID) (*Upload, error)
	ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]Upload, error)
	InsertTransactions(ctx context.Context, userID, uploadID uuid.UUID, records []Record) (inserted int, err error)
	DeleteStaleUploads(ctx context.Context, olderThan time.Time) (int64, error)
}

// PostgresImportRepository implements ImportRepository on PostgreSQL.
type PostgresImportRepository struct {
	pool db.Querier
}

// NewPostgresImportRepository creates a repository backed by the pool.
func NewPostgresImportRepository(pool db.Querier) *PostgresImportRepository {
	return &PostgresImportRepository{pool: pool}
}

// CreateUpload inserts a running upload job and fills in its id and
// creation time.
func (r *PostgresImportRepository) CreateUpload(ctx context.Context, upload *Upload) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO statement_uploads (user_id, file_name, size_bytes, bank, account_type, status)
		VALUES ($1, $2, $3, $4, $5, 'running')
		RETURNING id, created_at`,
		upload.UserID, upload.FileName, upload.SizeBytes, upload.Bank, upload.AccountType,
	).Scan(&upload.ID, &upload.CreatedAt)
}

// FinishUpload records the terminal state of an upload job.
func (r *PostgresImportRepository) FinishUpload(ctx context.Context, id uuid.UUID, status string, parsed, imported, duplicates int, errMsg *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE statement_uploads
		SET status = $2, tx_parsed = $3, tx_imported = $4, tx_duplicate = $5,
		    error = $6, finished_at = now()
		WHERE id = $1`,
		id, status, parsed, imported, duplicates, errMsg)
	return err
}

// GetUpload fetches one upload job scoped to its owner.
func (r *PostgresImportRepository) GetUpload(ctx context.Context, userID, id uuid.UUID) (*Upload, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, file_name, size_bytes, bank, account_type, status,
		       tx_parsed, tx_imported, tx_duplicate, error, created_at, finished_at
		FROM statement_uploads
		WHERE id = $1 AND user_id = $2`,
		id, userID)

	var u Upload
	err := row.Scan(&u.ID, &u.UserID, &u.FileName, &u.SizeBytes, &u.Bank, &u.AccountType,
		&u.Status, &u.TxParsed, &u.TxImported, &u.TxDuplicate, &u.Error, &u.CreatedAt, &u.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUploads returns a user's upload jobs, newest first.
func (r *PostgresImportRepository) ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]Upload, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, file_name, size_bytes, bank, account_type, status,
		       tx_parsed, tx_imported, tx_duplicate, error, created_at, finished_at
		FROM statement_uploads
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.UserID, &u.FileName, &u.SizeBytes, &u.Bank, &u.AccountType,
			&u.Status, &u.TxParsed, &u.TxImported, &u.TxDuplicate, &u.Error, &u.CreatedAt, &u.FinishedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// InsertTransactions stores extracted records. Re-uploading the same
// statement is expected, so duplicates (same user, date, amount and
// description) are skipped via the table's unique constraint rather than
// pre-checked.
func (r *PostgresImportRepository) InsertTransactions(ctx context.Context, userID, uploadID uuid.UUID, records []Record) (int, error) {
	inserted := 0
	for _, rec := range records {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO transactions
				(user_id, upload_id, txn_date, date_confident, description,
				 amount, bank, account_type, category_id, category_hint)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (user_id, txn_date, amount, description) DO NOTHING`,
			userID, uploadID, rec.Date, rec.DateConfident, rec.Description,
			rec.Amount, rec.Bank, rec.AccountType, rec.CategoryID, rec.CategoryHint)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// DeleteStaleUploads removes jobs stuck in running state past the cutoff.
// Run from the scheduler, not request paths.
func (r *PostgresImportRepository) DeleteStaleUploads(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM statement_uploads
		WHERE status = 'running' AND created_at < $1`,
		olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
