// Package rest serves the JSON/HTTP expense API. Every response uses the
// envelope {"success": bool, "data": any, "message": string}.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// expense is the REST form of an expense; created_at is RFC 3339.
type expense struct {
	ID          string       `json:"id"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	PaidBy      string       `json:"paid_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

type expenseBody struct {
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	PaidBy      string       `json:"paid_by"`
}

func toExpense(e *models.Expense) expense {
	return expense{
		ID:          e.ID,
		Amount:      money.NewAmount(e.Amount),
		Description: e.Description,
		PaidBy:      e.PaidBy,
		CreatedAt:   time.Unix(e.CreatedAt, 0).UTC(),
	}
}

// Handler serves the REST routes on top of a Ledger.
type Handler struct {
	ledger  *service.Ledger
	metrics *metrics.Metrics
}

// NewHandler creates a Handler.
func NewHandler(ledger *service.Ledger, m *metrics.Metrics) *Handler {
	return &Handler{ledger: ledger, metrics: m}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	h.handle(mux, "GET /expenses", h.listExpenses)
	h.handle(mux, "POST /expenses", h.createExpense)
	h.handle(mux, "GET /expenses/{id}", h.getExpense)
	h.handle(mux, "PUT /expenses/{id}", h.updateExpense)
	h.handle(mux, "DELETE /expenses/{id}", h.deleteExpense)
	h.handle(mux, "GET /balances", h.balances)
	h.handle(mux, "GET /settlements", h.settlements)
	h.handle(mux, "GET /people", h.people)
	h.handle(mux, "GET /summary", h.summary)
	h.handle(mux, "GET /healthz", h.healthz)
}

// handleFunc handles a request and returns the status it wrote.
type handleFunc func(w http.ResponseWriter, r *http.Request) int

func (h *Handler) handle(mux *http.ServeMux, pattern string, fn handleFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := fn(w, r)
		h.metrics.RequestsTotal.WithLabelValues("rest", pattern, strconv.Itoa(status)).Inc()
		h.metrics.RequestDuration.WithLabelValues("rest", pattern).Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
	return status
}

func ok(w http.ResponseWriter, status int, data any, message string) int {
	return writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

// fail maps a ledger error to an HTTP status.
func fail(w http.ResponseWriter, r *http.Request, err error) int {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	return writeJSON(w, status, envelope{Success: false, Data: nil, Message: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request) (models.ExpenseInput, error) {
	var body expenseBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return models.ExpenseInput{}, err
	}
	return models.ExpenseInput{
		Amount:      body.Amount.Decimal,
		Description: body.Description,
		PaidBy:      body.PaidBy,
	}, nil
}

func badRequest(w http.ResponseWriter, err error) int {
	return writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid request body: " + err.Error()})
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) int {
	expenses, err := h.ledger.ListExpenses(r.Context())
	if err != nil {
		return fail(w, r, err)
	}
	out := make([]expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return ok(w, http.StatusOK, out, "Expenses retrieved successfully")
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) int {
	in, err := decodeBody(w, r)
	if err != nil {
		return badRequest(w, err)
	}
	created, err := h.ledger.CreateExpense(r.Context(), in)
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusCreated, toExpense(created), "Expense added successfully")
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) int {
	found, err := h.ledger.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, toExpense(found), "Expense retrieved successfully")
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) int {
	in, err := decodeBody(w, r)
	if err != nil {
		return badRequest(w, err)
	}
	updated, err := h.ledger.UpdateExpense(r.Context(), r.PathValue("id"), in)
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, toExpense(updated), "Expense updated successfully")
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) int {
	if err := h.ledger.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, "", "Expense deleted successfully")
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) int {
	balances, err := h.ledger.Balances(r.Context())
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, api.FromBalances(balances), "Balances retrieved successfully")
}

func (h *Handler) settlements(w http.ResponseWriter, r *http.Request) int {
	transfers, err := h.ledger.Settlements(r.Context())
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, api.FromTransfers(transfers), "Settlements calculated successfully")
}

func (h *Handler) people(w http.ResponseWriter, r *http.Request) int {
	people, err := h.ledger.ListPeople(r.Context())
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, people, "People retrieved successfully")
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) int {
	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		return fail(w, r, err)
	}
	return ok(w, http.StatusOK, api.FromSummary(summary), "Summary calculated successfully")
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) int {
	if err := h.ledger.Ping(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "Health check failed", "error", err)
		return writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "storage unavailable"})
	}
	return ok(w, http.StatusOK, "ok", "Healthy")
}
