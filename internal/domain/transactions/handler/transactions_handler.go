// Package handler exposes the transactions HTTP endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/mapleledger/mapleledger/internal/domain/auth"
	"github.com/mapleledger/mapleledger/internal/domain/transactions"
	"github.com/mapleledger/mapleledger/pkg/money"
)

// TransactionsHandler handles transaction listing and categorization.
type TransactionsHandler struct {
	svc    *transactions.Service
	logger *slog.Logger
}

func NewTransactionsHandler(svc *transactions.Service, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, logger: logger}
}

// Register routes the handler's endpoints onto the mux. All routes expect
// the auth middleware upstream.
func (h *TransactionsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/transactions", h.list)
	mux.HandleFunc("PATCH /api/v1/transactions/{id}/category", h.recategorize)
	mux.HandleFunc("GET /api/v1/transactions/summary", h.summary)
	mux.HandleFunc("GET /api/v1/transactions/export", h.export)
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list transactions failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

type recategorizeRequest struct {
	CategoryID *int `json:"category_id"`
}

func (h *TransactionsHandler) recategorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req recategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Recategorize(r.Context(), userID, id, req.CategoryID); err != nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionsHandler) summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ref := time.Now()
	if month := r.URL.Query().Get("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		ref = parsed
	}

	totals, err := h.svc.MonthlySummary(r.Context(), userID, ref)
	if err != nil {
		h.logger.Error("monthly summary failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}

	type summaryRow struct {
		CategoryID *int   `json:"category_id"`
		Total      string `json:"total"`
		Display    string `json:"display"`
		Count      int    `json:"count"`
	}
	rows := make([]summaryRow, 0, len(totals))
	for _, t := range totals {
		m := money.FromDecimal(t.Total, money.DefaultCurrency)
		rows = append(rows, summaryRow{
			CategoryID: t.CategoryID,
			Total:      m.String(),
			Display:    m.Display(),
			Count:      t.Count,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":      ref.Format("2006-01"),
		"categories": rows,
	})
}

// exportRow is the CSV shape of one exported transaction.
type exportRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Bank        string `csv:"bank"`
	AccountType string `csv:"account_type"`
	CategoryID  string `csv:"category_id"`
}

func (h *TransactionsHandler) export(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.svc.Export(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("export transactions failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not export transactions")
		return
	}

	rows := make([]exportRow, 0, len(txns))
	for _, t := range txns {
		var category string
		if t.CategoryID != nil {
			category = strconv.Itoa(*t.CategoryID)
		}
		rows = append(rows, exportRow{
			Date:        t.Date.Format("2006-01-02"),
			Description: t.Description,
			Amount:      t.Amount.StringFixed(2),
			Bank:        t.Bank,
			AccountType: t.AccountType,
			CategoryID:  category,
		})
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		h.logger.Error("csv encode failed", "user", userID, "error", err)
	}
}

func filterFromQuery(r *http.Request) (transactions.Filter, error) {
	var filter transactions.Filter
	q := r.URL.Query()

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, errInvalidDate("from")
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, errInvalidDate("to")
		}
		filter.To = t
	}
	if cat := q.Get("category_id"); cat != "" {
		id, err := strconv.Atoi(cat)
		if err != nil {
			return filter, errInvalidDate("category_id")
		}
		filter.CategoryID = &id
	}
	filter.Bank = q.Get("bank")
	filter.Search = q.Get("q")
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	return filter, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errInvalidDate(field string) error {
	return queryError("invalid " + field + " parameter")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
