package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// maxAmount is the largest amount a single expense may carry (DECIMAL(10,2)).
var maxAmount = decimal.RequireFromString("99999999.99")

// ValidationError reports caller input that can never become a valid expense.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// normalizeExpense validates in and returns it with the amount rounded to
// cents and surrounding whitespace trimmed from the text fields.
func normalizeExpense(in models.ExpenseInput) (models.ExpenseInput, error) {
	in.Amount = money.Round(in.Amount)
	in.Description = strings.TrimSpace(in.Description)
	in.PaidBy = strings.TrimSpace(in.PaidBy)

	switch {
	case !in.Amount.IsPositive():
		return in, &ValidationError{Field: "amount", Message: "Amount must be positive"}
	case in.Amount.GreaterThan(maxAmount):
		return in, &ValidationError{Field: "amount", Message: fmt.Sprintf("Amount must not exceed %s", money.Format(maxAmount))}
	case in.Description == "":
		return in, &ValidationError{Field: "description", Message: "Description cannot be empty"}
	case in.PaidBy == "":
		return in, &ValidationError{Field: "paid_by", Message: "Paid_by cannot be empty"}
	}
	return in, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "expense_id", Message: "Expense ID cannot be empty"}
	}
	return nil
}

// Ledger is the transport-independent expense service. It validates input,
// persists expenses through the store and derives balances and settlements
// from a fresh snapshot of the store on every read.
type Ledger struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewLedger creates a Ledger. A nil publisher disables events; nil metrics
// records into a private registry.
func NewLedger(store storage.Store, publisher events.Publisher, m *metrics.Metrics) *Ledger {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Ledger{store: store, publisher: publisher, metrics: m}
}

// publish sends event; failures are logged and counted but never returned.
func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.metrics.PublishFailures.Inc()
		slog.WarnContext(ctx, "Failed to publish expense event",
			"type", event.Type,
			"expense_id", event.ExpenseID,
			"error", err,
		)
	}
}

// CreateExpense validates and stores a new expense.
func (l *Ledger) CreateExpense(ctx context.Context, in models.ExpenseInput) (*models.Expense, error) {
	in, err := normalizeExpense(in)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Amount:      in.Amount,
		Description: in.Description,
		PaidBy:      in.PaidBy,
	}
	if err := l.store.CreateExpense(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "CreateExpense failed", "error", err)
		return nil, err
	}

	l.metrics.ExpenseChanges.WithLabelValues("created").Inc()
	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"amount", money.Format(expense.Amount),
		"paid_by", expense.PaidBy,
	)
	l.publish(ctx, events.NewExpenseEvent(events.ExpenseCreated, expense))
	return expense, nil
}

// GetExpense returns one expense.
func (l *Ledger) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return l.store.GetExpense(ctx, id)
}

// ListExpenses returns every expense in insertion order.
func (l *Ledger) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return l.store.ListExpenses(ctx)
}

// UpdateExpense replaces the amount, description and payer of an expense.
func (l *Ledger) UpdateExpense(ctx context.Context, id string, in models.ExpenseInput) (*models.Expense, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	in, err := normalizeExpense(in)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:          id,
		Amount:      in.Amount,
		Description: in.Description,
		PaidBy:      in.PaidBy,
	}
	if err := l.store.UpdateExpense(ctx, expense); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.ErrorContext(ctx, "UpdateExpense failed", "expense_id", id, "error", err)
		}
		return nil, err
	}

	l.metrics.ExpenseChanges.WithLabelValues("updated").Inc()
	slog.InfoContext(ctx, "Expense updated", "expense_id", id)
	l.publish(ctx, events.NewExpenseEvent(events.ExpenseUpdated, expense))
	return expense, nil
}

// DeleteExpense removes an expense.
func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := l.store.DeleteExpense(ctx, id); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.ErrorContext(ctx, "DeleteExpense failed", "expense_id", id, "error", err)
		}
		return err
	}

	l.metrics.ExpenseChanges.WithLabelValues("deleted").Inc()
	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	l.publish(ctx, events.NewDeletedEvent(id))
	return nil
}

// ListPeople returns the distinct payers.
func (l *Ledger) ListPeople(ctx context.Context) ([]string, error) {
	return l.store.ListPeople(ctx)
}

// snapshot loads the current expenses in the shape the calculator needs.
func (l *Ledger) snapshot(ctx context.Context) ([]calculator.ExpenseForBalance, error) {
	expenses, err := l.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		out[i] = calculator.ExpenseForBalance{Amount: e.Amount, PayerID: e.PaidBy}
	}
	return out, nil
}

// Balances computes every payer's net balance.
func (l *Ledger) Balances(ctx context.Context) (calculator.Balances, error) {
	expenses, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.ComputeBalances(expenses), nil
}

// Settlements computes the transfers that settle all balances.
func (l *Ledger) Settlements(ctx context.Context) ([]calculator.Transfer, error) {
	balances, err := l.Balances(ctx)
	if err != nil {
		return nil, err
	}

	transfers, err := calculator.ComputeSettlements(balances)
	if err != nil {
		l.metrics.Imbalances.Inc()
		slog.ErrorContext(ctx, "Settlement plan rejected", "people", len(balances), "error", err)
		return nil, err
	}

	l.metrics.Transfers.Observe(float64(len(transfers)))
	slog.DebugContext(ctx, "Settlement plan computed", "people", len(balances), "transfers", len(transfers))
	return transfers, nil
}

// Summary returns total spending, the fair share and what each payer paid.
func (l *Ledger) Summary(ctx context.Context) (calculator.Summary, error) {
	expenses, err := l.snapshot(ctx)
	if err != nil {
		return calculator.Summary{}, err
	}
	return calculator.Summarize(expenses), nil
}

// Ping checks the store.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}
