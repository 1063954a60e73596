// Package api defines the request and response messages of the
// splitledger.v1.ExpenseService RPC service. Messages are plain structs
// serialized as JSON; every amount is a money.Amount.
package api

import "github.com/mmynk/splitledger/internal/money"

// Expense is the wire form of models.Expense. CreatedAt is a Unix timestamp.
type Expense struct {
	ID          string       `json:"id"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	PaidBy      string       `json:"paid_by"`
	CreatedAt   int64        `json:"created_at"`
}

// Balance is one person's net position.
type Balance struct {
	Person  string       `json:"person"`
	Balance money.Amount `json:"balance"`
}

// Settlement is a transfer from a debtor to a creditor.
type Settlement struct {
	FromPerson string       `json:"from_person"`
	ToPerson   string       `json:"to_person"`
	Amount     money.Amount `json:"amount"`
}

// PersonPaid is the total one person paid.
type PersonPaid struct {
	Person string       `json:"person"`
	Paid   money.Amount `json:"paid"`
}

type CreateExpenseRequest struct {
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	PaidBy      string       `json:"paid_by"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct{}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type UpdateExpenseRequest struct {
	ExpenseID   string       `json:"expense_id"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
	PaidBy      string       `json:"paid_by"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListPeopleRequest struct{}

type ListPeopleResponse struct {
	People []string `json:"people"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []*Balance `json:"balances"`
}

type GetSettlementsRequest struct{}

type GetSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	Total     money.Amount  `json:"total"`
	FairShare money.Amount  `json:"fair_share"`
	People    int           `json:"people"`
	Paid      []*PersonPaid `json:"paid"`
}
