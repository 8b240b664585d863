// Package service orchestrates statement imports: file text extraction,
// parsing, and persistence with duplicate suppression.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mapleledger/mapleledger/internal/domain/import/extractor"
	"github.com/mapleledger/mapleledger/internal/domain/import/repository"
	"github.com/mapleledger/mapleledger/internal/domain/import/sniffer"
	"github.com/mapleledger/mapleledger/internal/domain/statement/parser"
	"github.com/mapleledger/mapleledger/pkg/storage"
)

// AnalyzeResult describes a delimited file's detected shape, returned to
// the client before a full import so the user can confirm it.
type AnalyzeResult struct {
	FileConfig  *sniffer.FileConfig
	Suggestions *sniffer.ColumnSuggestions
	Bank        parser.Bank
	AccountType parser.AccountType
}

// ImportResult summarizes one completed statement import.
type ImportResult struct {
	UploadID    uuid.UUID
	Bank        parser.Bank
	AccountType parser.AccountType
	Parsed      int
	Imported    int
	Duplicates  int
}

// ImportService runs uploads through the parsing pipeline and stores the
// results.
type ImportService struct {
	repo     repository.ImportRepository
	pipeline *parser.Pipeline
	archive  storage.Storage
	logger   *slog.Logger
}

// NewImportService creates an import service.
func NewImportService(repo repository.ImportRepository, pipeline *parser.Pipeline, logger *slog.Logger) *ImportService {
	return &ImportService{repo: repo, pipeline: pipeline, logger: logger}
}

// WithArchive keeps a copy of each raw upload so a bad parse can be
// re-run later against the original file. Archiving failures are logged,
// never fatal.
func (s *ImportService) WithArchive(archive storage.Storage) *ImportService {
	s.archive = archive
	return s
}

// AnalyzeFile inspects a delimited upload without importing it.
func (s *ImportService) AnalyzeFile(ctx context.Context, filename string, data []byte) (*AnalyzeResult, error) {
	config, err := sniffer.DetectConfig(data)
	if err != nil {
		return nil, fmt.Errorf("analyze file: %w", err)
	}

	text, err := extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	profile := parser.Detect(text)

	return &AnalyzeResult{
		FileConfig:  config,
		Suggestions: sniffer.SuggestColumns(config.Headers),
		Bank:        profile.Bank,
		AccountType: profile.AccountType,
	}, nil
}

// Import extracts text from the upload, parses it, and stores the
// transactions. Zero extracted transactions is not an error; the result
// reports it and the caller decides how to surface it.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*ImportResult, error) {
	text, err := extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}

	profile := parser.Detect(text)
	upload := &repository.Upload{
		UserID:      userID,
		FileName:    filename,
		SizeBytes:   int64(len(data)),
		Bank:        string(profile.Bank),
		AccountType: string(profile.AccountType),
	}
	if err := s.repo.CreateUpload(ctx, upload); err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}

	if s.archive != nil {
		if _, err := s.archive.Save(ctx, userID, filename, bytes.NewReader(data)); err != nil {
			s.logger.Warn("failed to archive upload", "uploadID", upload.ID, "error", err)
		}
	}

	txns := s.pipeline.Parse(text)
	records := toRecords(txns)

	inserted, err := s.repo.InsertTransactions(ctx, userID, upload.ID, records)
	if err != nil {
		msg := err.Error()
		if finishErr := s.repo.FinishUpload(ctx, upload.ID, "failed", len(records), inserted, 0, &msg); finishErr != nil {
			s.logger.Warn("failed to mark upload failed", "uploadID", upload.ID, "error", finishErr)
		}
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	duplicates := len(records) - inserted
	if err := s.repo.FinishUpload(ctx, upload.ID, "succeeded", len(records), inserted, duplicates, nil); err != nil {
		s.logger.Warn("failed to finish upload", "uploadID", upload.ID, "error", err)
	}

	s.logger.Info("statement imported",
		"uploadID", upload.ID,
		"bank", profile.Bank,
		"accountType", profile.AccountType,
		"parsed", len(records),
		"imported", inserted,
		"duplicates", duplicates)

	return &ImportResult{
		UploadID:    upload.ID,
		Bank:        profile.Bank,
		AccountType: profile.AccountType,
		Parsed:      len(records),
		Imported:    inserted,
		Duplicates:  duplicates,
	}, nil
}

// GetUpload returns one of the user's upload jobs.
func (s *ImportService) GetUpload(ctx context.Context, userID, id uuid.UUID) (*repository.Upload, error) {
	return s.repo.GetUpload(ctx, userID, id)
}

// ListUploads returns the user's upload history.
func (s *ImportService) ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]repository.Upload, error) {
	return s.repo.ListUploads(ctx, userID, limit)
}

// CleanupStaleUploads removes jobs stuck in running state. Called from the
// scheduler.
func (s *ImportService) CleanupStaleUploads(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.DeleteStaleUploads(ctx, time.Now().Add(-maxAge))
}

func toRecords(txns []parser.Transaction) []repository.Record {
	records := make([]repository.Record, 0, len(txns))
	for _, tx := range txns {
		records = append(records, repository.Record{
			Date:          tx.Date,
			DateConfident: tx.DateConfident,
			Description:   tx.Description,
			Amount:        tx.Amount,
			Bank:          string(tx.Bank),
			AccountType:   string(tx.AccountType),
			CategoryID:    tx.CategoryID,
			CategoryHint:  tx.CategoryHint,
		})
	}
	return records
}
