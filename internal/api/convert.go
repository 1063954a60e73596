package api

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// FromExpense converts a stored expense to its wire form.
func FromExpense(e *models.Expense) *Expense {
	return &Expense{
		ID:          e.ID,
		Amount:      money.NewAmount(e.Amount),
		Description: e.Description,
		PaidBy:      e.PaidBy,
		CreatedAt:   e.CreatedAt,
	}
}

// FromExpenses converts a list of expenses, preserving order.
func FromExpenses(expenses []*models.Expense) []*Expense {
	out := make([]*Expense, len(expenses))
	for i, e := range expenses {
		out[i] = FromExpense(e)
	}
	return out
}

// FromBalances converts balances, preserving order.
func FromBalances(b calculator.Balances) []*Balance {
	out := make([]*Balance, len(b))
	for i, bal := range b {
		out[i] = &Balance{Person: bal.Person, Balance: money.NewAmount(bal.Amount)}
	}
	return out
}

// FromTransfers converts a settlement plan, preserving order.
func FromTransfers(transfers []calculator.Transfer) []*Settlement {
	out := make([]*Settlement, len(transfers))
	for i, t := range transfers {
		out[i] = &Settlement{FromPerson: t.From, ToPerson: t.To, Amount: money.NewAmount(t.Amount)}
	}
	return out
}

// FromSummary converts a spending summary.
func FromSummary(s calculator.Summary) *GetSummaryResponse {
	paid := make([]*PersonPaid, len(s.Paid))
	for i, p := range s.Paid {
		paid[i] = &PersonPaid{Person: p.Person, Paid: money.NewAmount(p.Paid)}
	}
	return &GetSummaryResponse{
		Total:     money.NewAmount(s.Total),
		FairShare: money.NewAmount(s.FairShare),
		People:    len(s.Paid),
		Paid:      paid,
	}
}
