// Package handler exposes the statement-import HTTP endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mapleledger/mapleledger/internal/domain/auth"
	"github.com/mapleledger/mapleledger/internal/domain/import/extractor"
	"github.com/mapleledger/mapleledger/internal/domain/import/repository"
	importservice "github.com/mapleledger/mapleledger/internal/domain/import/service"
)

// maxUploadBytes bounds statement uploads. Real statements are well under
// a megabyte of text; the headroom covers Excel workbooks.
const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".txt": true, ".csv": true, ".tsv": true, ".xlsx": true,
}

// ImportHandler handles statement upload and import requests.
type ImportHandler struct {
	svc      *importservice.ImportService
	logger   *slog.Logger
	limiters *userLimiters
}

// NewImportHandler creates an import handler. Uploads are rate limited
// per user since parsing is CPU-bound.
func NewImportHandler(svc *importservice.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		svc:      svc,
		logger:   logger,
		limiters: newUserLimiters(rate.Every(2*time.Second), 5),
	}
}

// Register routes the handler's endpoints onto the mux. All routes expect
// the auth middleware upstream.
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/imports", h.importStatement)
	mux.HandleFunc("POST /api/v1/imports/analyze", h.analyze)
	mux.HandleFunc("GET /api/v1/imports", h.listUploads)
	mux.HandleFunc("GET /api/v1/imports/{id}", h.getUpload)
}

type importResponse struct {
	UploadID    string `json:"upload_id"`
	Bank        string `json:"bank"`
	AccountType string `json:"account_type"`
	Parsed      int    `json:"parsed"`
	Imported    int    `json:"imported"`
	Duplicates  int    `json:"duplicates"`
}

func (h *ImportHandler) importStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !h.limiters.allow(userID) {
		writeError(w, http.StatusTooManyRequests, "too many uploads, slow down")
		return
	}

	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Import(r.Context(), userID, filename, data)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		h.logger.Error("import failed", "user", userID, "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		UploadID:    result.UploadID.String(),
		Bank:        string(result.Bank),
		AccountType: string(result.AccountType),
		Parsed:      result.Parsed,
		Imported:    result.Imported,
		Duplicates:  result.Duplicates,
	})
}

func (h *ImportHandler) analyze(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.AnalyzeFile(r.Context(), filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bank":         string(result.Bank),
		"account_type": string(result.AccountType),
		"delimiter":    string(result.FileConfig.Delimiter),
		"skip_lines":   result.FileConfig.SkipLines,
		"headers":      result.FileConfig.Headers,
		"fingerprint":  result.FileConfig.Fingerprint,
		"sample_rows":  result.FileConfig.SampleRows,
		"columns":      result.Suggestions,
	})
}

func (h *ImportHandler) listUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	uploads, err := h.svc.ListUploads(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list uploads failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not list uploads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (h *ImportHandler) getUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload id")
		return
	}

	upload, err := h.svc.GetUpload(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		h.logger.Error("get upload failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load upload")
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

// readUpload pulls the multipart file out of the request, bounding its
// size and validating the extension.
func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		writeError(w, http.StatusUnsupportedMediaType, "supported formats: txt, csv, tsv, xlsx")
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return "", nil, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return "", nil, false
	}
	return filename, data, true
}

// sanitizeFilename strips any path components a client smuggles into the
// multipart filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "upload"
	}
	return name
}

// userLimiters keeps one token bucket per user.
type userLimiters struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newUserLimiters(limit rate.Limit, burst int) *userLimiters {
	return &userLimiters{
		limiters: make(map[uuid.UUID]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (u *userLimiters) allow(id uuid.UUID) bool {
	u.mu.Lock()
	lim, ok := u.limiters[id]
	if !ok {
		lim = rate.NewLimiter(u.limit, u.burst)
		u.limiters[id] = lim
	}
	u.mu.Unlock()
	return lim.Allow()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
