// Package handler exposes the balance HTTP endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mapleledger/mapleledger/internal/domain/auth"
	"github.com/mapleledger/mapleledger/internal/domain/balance"
)

// BalanceHandler serves derived account balances.
type BalanceHandler struct {
	svc    *balance.Service
	logger *slog.Logger
}

func NewBalanceHandler(svc *balance.Service, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{svc: svc, logger: logger}
}

// Register routes the handler's endpoints onto the mux. All routes expect
// the auth middleware upstream.
func (h *BalanceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/balance", h.getBalance)
	mux.HandleFunc("GET /api/v1/balance/history", h.getHistory)
}

func (h *BalanceHandler) getBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		h.logger.Error("get balance failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute balance")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BalanceHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	result, err := h.svc.GetBalanceHistory(r.Context(), userID, days)
	if err != nil {
		h.logger.Error("get balance history failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute balance history")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
