// Package events publishes expense lifecycle notifications so other systems
// can react to ledger changes without polling.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Type identifies what happened to an expense.
type Type string

const (
	ExpenseCreated Type = "expense.created"
	ExpenseUpdated Type = "expense.updated"
	ExpenseDeleted Type = "expense.deleted"
)

// Event is the JSON message published for every expense change.
// Amount, Description and PaidBy are empty for deletions.
type Event struct {
	Type        Type          `json:"type"`
	ExpenseID   string        `json:"expense_id"`
	Amount      *money.Amount `json:"amount,omitempty"`
	Description string        `json:"description,omitempty"`
	PaidBy      string        `json:"paid_by,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// NewExpenseEvent builds an event describing expense.
func NewExpenseEvent(t Type, expense *models.Expense) Event {
	amount := money.NewAmount(expense.Amount)
	return Event{
		Type:        t,
		ExpenseID:   expense.ID,
		Amount:      &amount,
		Description: expense.Description,
		PaidBy:      expense.PaidBy,
		OccurredAt:  time.Now().UTC(),
	}
}

// NewDeletedEvent builds the event for a removed expense.
func NewDeletedEvent(expenseID string) Event {
	return Event{
		Type:       ExpenseDeleted,
		ExpenseID:  expenseID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event published by a Publisher.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
