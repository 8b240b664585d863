package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleledger/mapleledger/internal/domain/import/extractor"
	"github.com/mapleledger/mapleledger/internal/domain/import/repository"
	"github.com/mapleledger/mapleledger/internal/domain/statement/parser"
)

// mockImportRepo implements repository.ImportRepository in memory. A
// subset of descriptions can be marked as pre-existing to simulate the
// duplicate-suppressing unique constraint.
type mockImportRepo struct {
	uploads    map[uuid.UUID]*repository.Upload
	existing   map[string]bool
	inserted   []repository.Record
	insertErr  error
	staleCount int64
}

func newMockImportRepo() *mockImportRepo {
	return &mockImportRepo{
		uploads:  make(map[uuid.UUID]*repository.Upload),
		existing: make(map[string]bool),
	}
}

func (m *mockImportRepo) CreateUpload(ctx context.Context, upload *repository.Upload) error {
	upload.ID = uuid.New()
	upload.CreatedAt = time.Now()
	upload.Status = "running"
	m.uploads[upload.ID] = upload
	return nil
}

func (m *mockImportRepo) FinishUpload(ctx context.Context, id uuid.UUID, status string, parsed, imported, duplicates int, errMsg *string) error {
	u, ok := m.uploads[id]
	if !ok {
		return repository.ErrUploadNotFound
	}
	u.Status = status
	u.TxParsed = parsed
	u.TxImported = imported
	u.TxDuplicate = duplicates
	u.Error = errMsg
	now := time.Now()
	u.FinishedAt = &now
	return nil
}

func (m *mockImportRepo) GetUpload(ctx context.Context, userID, id uuid.UUID) (*repository.Upload, error) {
	u, ok := m.uploads[id]
	if !ok || u.UserID != userID {
		return nil, repository.ErrUploadNotFound
	}
	return u, nil
}

func (m *mockImportRepo) ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]repository.Upload, error) {
	var out []repository.Upload
	for _, u := range m.uploads {
		if u.UserID == userID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockImportRepo) InsertTransactions(ctx context.Context, userID, uploadID uuid.UUID, records []repository.Record) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	inserted := 0
	for _, rec := range records {
		key := rec.Date.Format("2006-01-02") + "|" + rec.Amount.String() + "|" + rec.Description
		if m.existing[key] {
			continue
		}
		m.existing[key] = true
		m.inserted = append(m.inserted, rec)
		inserted++
	}
	return inserted, nil
}

func (m *mockImportRepo) DeleteStaleUploads(ctx context.Context, olderThan time.Time) (int64, error) {
	return m.staleCount, nil
}

func testImportService(repo repository.ImportRepository) *ImportService {
	clock := func() time.Time { return time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC) }
	return NewImportService(repo, parser.NewPipeline(parser.WithClock(clock)), slog.New(slog.DiscardHandler))
}

const cibcCreditStatement = `CIBC CREDIT CARD STATEMENT
PURCHASES
Jul 2 Jul 3 TIM HORTONS #1234 TORONTO ON 45.67
Jul 5 Jul 6 PAYMENT THANK YOU 500.00
`

func TestImportStoresParsedTransactions(t *testing.T) {
	repo := newMockImportRepo()
	svc := testImportService(repo)
	userID := uuid.New()

	result, err := svc.Import(context.Background(), userID, "statement.txt", []byte(cibcCreditStatement))
	require.NoError(t, err)

	assert.Equal(t, parser.BankCIBC, result.Bank)
	assert.Equal(t, parser.AccountCredit, result.AccountType)
	assert.Equal(t, 2, result.Parsed)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Duplicates)

	upload, err := svc.GetUpload(context.Background(), userID, result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", upload.Status)
	assert.Equal(t, 2, upload.TxImported)
	require.NotNil(t, upload.FinishedAt)
}

func TestImportCountsDuplicates(t *testing.T) {
	repo := newMockImportRepo()
	svc := testImportService(repo)
	userID := uuid.New()

	first, err := svc.Import(context.Background(), userID, "statement.txt", []byte(cibcCreditStatement))
	require.NoError(t, err)
	require.Equal(t, 2, first.Imported)

	second, err := svc.Import(context.Background(), userID, "statement.txt", []byte(cibcCreditStatement))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Parsed)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 2, second.Duplicates)
}

func TestImportRejectsUnsupportedFormat(t *testing.T) {
	svc := testImportService(newMockImportRepo())

	_, err := svc.Import(context.Background(), uuid.New(), "statement.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, extractor.ErrUnsupportedFormat)
}

func TestImportMarksUploadFailedOnStorageError(t *testing.T) {
	repo := newMockImportRepo()
	repo.insertErr = errors.New("connection reset")
	svc := testImportService(repo)
	userID := uuid.New()

	_, err := svc.Import(context.Background(), userID, "statement.txt", []byte(cibcCreditStatement))
	require.Error(t, err)

	uploads, err := svc.ListUploads(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "failed", uploads[0].Status)
	require.NotNil(t, uploads[0].Error)
	assert.Contains(t, *uploads[0].Error, "connection reset")
}

func TestImportManyGeneratedMerchants(t *testing.T) {
	repo := newMockImportRepo()
	svc := testImportService(repo)
	gofakeit.Seed(11)

	var b strings.Builder
	b.WriteString("CIBC CREDIT CARD STATEMENT\nPURCHASES\n")
	for i := 0; i < 25; i++ {
		merchant := strings.ToUpper(gofakeit.Company())
		merchant = strings.Map(func(r rune) rune {
			if r == ',' || r == '.' {
				return -1
			}
			return r
		}, merchant)
		fmt.Fprintf(&b, "Jul %d %s TORONTO ON %d.%02d\n", i%28+1, merchant, gofakeit.Number(1, 400), gofakeit.Number(0, 99))
	}
	b.WriteString("Jul 29 PAYMENT THANK YOU 500.00\n")

	result, err := svc.Import(context.Background(), uuid.New(), "statement.txt", []byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 26, result.Parsed)
	assert.Equal(t, 26, result.Imported)
	for _, rec := range repo.inserted {
		assert.NotEmpty(t, rec.Description)
		assert.LessOrEqual(t, len(rec.Description), 200)
	}
}

func TestAnalyzeFile(t *testing.T) {
	svc := testImportService(newMockImportRepo())

	data := []byte("CIBC,Account,Statement\nDate,Description,Amount\n2025/07/02,TIM HORTONS,-4.56\n")
	result, err := svc.AnalyzeFile(context.Background(), "export.csv", data)
	require.NoError(t, err)

	assert.Equal(t, parser.BankCIBC, result.Bank)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, result.FileConfig.Headers)
	assert.Equal(t, 0, result.Suggestions.DateCol)
	assert.False(t, result.Suggestions.IsDoubleEntry)
}

func TestCleanupStaleUploads(t *testing.T) {
	repo := newMockImportRepo()
	repo.staleCount = 3
	svc := testImportService(repo)

	removed, err := svc.CleanupStaleUploads(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}
