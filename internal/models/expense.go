package models

import "github.com/shopspring/decimal"

// Expense represents money spent by one person on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Amount is the amount paid, with exactly two fraction digits. Always > 0.
	Amount decimal.Decimal

	// Description is a short human-readable label (e.g., "Groceries").
	Description string

	// PaidBy is the name of the person who paid.
	PaidBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseInput holds the caller-supplied fields of an expense, used for
// both creation and full replacement.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Description string
	PaidBy      string
}
