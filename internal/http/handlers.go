package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// reportNames are the recognized report endpoints under /api/reports/.
var reportNames = map[string]struct{}{
	"balance":    {},
	"monthly":    {},
	"categories": {},
	"trend":      {},
	"comparison": {},
	"savings":    {},
	"insights":   {},
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.finance.Refresh(r.Context())

	q := r.URL.Query()
	filter := core.Filter{
		Search:   sanitizeInput(q.Get("search")),
		Type:     sanitizeInput(q.Get("type")),
		Category: sanitizeInput(q.Get("category")),
	}

	list := s.finance.Transactions(filter)
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req core.Transaction
	if err := decodeJSON(w, r, &req); err != nil {
		slog.ErrorContext(r.Context(), "Parse transaction error", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ID = ""
	req.Category = sanitizeInput(req.Category)
	req.Description = sanitizeInput(req.Description)

	saved, alerts, err := s.finance.AddTransaction(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if alerts == nil {
		alerts = []services.AlertEvent{}
	}
	s.reqLog.LogTransactionRecorded(r.Context(), saved.ID, string(saved.Type), saved.Category, saved.Amount.Cents)

	writeJSON(w, http.StatusCreated, struct {
		Transaction core.Transaction      `json:"transaction"`
		Alerts      []services.AlertEvent `json:"alerts"`
	}{saved, alerts})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	if err := s.finance.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetTable(w http.ResponseWriter, r *http.Request) {
	s.finance.Refresh(r.Context())

	table := s.finance.BudgetTable()
	if table == nil {
		table = []core.BudgetStatus{}
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string     `json:"category"`
		Cap      core.Money `json:"cap"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Category = sanitizeInput(req.Category)
	if err := s.finance.SetBudget(r.Context(), req.Category, req.Cap); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.finance.Refresh(r.Context())

	alerts := s.finance.Alerts()
	if alerts == nil {
		alerts = []services.AlertEvent{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req core.SavingsGoal
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = sanitizeInput(req.Name)
	if err := s.finance.SetGoal(r.Context(), req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := reportNames[name]; !ok {
		writeError(w, http.StatusNotFound, "unknown report")
		return
	}

	// Materialize due templates before reading the revision so a newly
	// due period never serves a stale cached report.
	s.finance.Refresh(r.Context())

	key := fmt.Sprintf("%s:rev%d", name, s.finance.Revision())
	if body, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "report", name)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	var payload any
	switch name {
	case "balance":
		payload = s.finance.Balance()
	case "monthly":
		payload = s.finance.Monthly()
	case "categories":
		if cats := s.finance.Categories(); cats != nil {
			payload = cats
		} else {
			payload = []core.CategoryAmount{}
		}
	case "trend":
		payload = s.finance.Trend()
	case "comparison":
		payload = s.finance.Compare()
	case "savings":
		payload = s.finance.Savings()
	case "insights":
		payload = s.finance.Insights()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report marshal error", "error", err, "report", name)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.finance.Export()
	if err != nil {
		slog.ErrorContext(r.Context(), "Export error", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="finance-data.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.finance.Import(r.Context(), data); err != nil {
		slog.WarnContext(r.Context(), "Import rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "invalid backup bundle")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
