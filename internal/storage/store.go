// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for expense storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateExpense persists a new expense.
	// The expense.ID and expense.CreatedAt fields will be populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by its ID.
	// Returns an error wrapping ErrNotFound if the expense does not exist.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns every expense in insertion order.
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// UpdateExpense replaces the amount, description and payer of an existing expense.
	// Returns an error wrapping ErrNotFound if the expense does not exist.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense by its ID.
	// Returns an error wrapping ErrNotFound if the expense does not exist.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListPeople returns the distinct payers, in the order they first paid.
	ListPeople(ctx context.Context) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
