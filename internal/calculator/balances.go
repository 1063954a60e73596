package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount  decimal.Decimal
	PayerID string
}

// Balance is one person's net position. Positive = owed money, negative = owes money.
type Balance struct {
	Person string
	Amount decimal.Decimal
}

// Balances is an ordered list of per-person balances. Order is the order in
// which each person first appeared in the input expenses, and the settlement
// planner relies on it for deterministic output.
type Balances []Balance

// Get returns the balance for person.
func (b Balances) Get(person string) (decimal.Decimal, bool) {
	for _, bal := range b {
		if bal.Person == person {
			return bal.Amount, true
		}
	}
	return money.Zero, false
}

// People returns the people in b, in order.
func (b Balances) People() []string {
	people := make([]string, len(b))
	for i, bal := range b {
		people[i] = bal.Person
	}
	return people
}

// Sum returns the sum of all balances.
func (b Balances) Sum() decimal.Decimal {
	sum := money.Zero
	for _, bal := range b {
		sum = sum.Add(bal.Amount)
	}
	return sum
}

// Tolerance is the largest |Sum()| a consistent set of balances can have:
// one cent per person, since the fair share may not divide evenly.
func (b Balances) Tolerance() decimal.Decimal {
	return money.Cent.Mul(decimal.NewFromInt(int64(len(b))))
}

// PersonPaid is the total paid by one person.
type PersonPaid struct {
	Person string
	Paid   decimal.Decimal
}

// Summary describes the totals behind a set of balances.
type Summary struct {
	Total     decimal.Decimal
	FairShare decimal.Decimal // rounded to cents for display only
	Paid      []PersonPaid
}

// tally accumulates totals per payer in first-appearance order.
type tally struct {
	order []string
	paid  map[string]decimal.Decimal
	total decimal.Decimal
}

func newTally(expenses []ExpenseForBalance) *tally {
	t := &tally{paid: make(map[string]decimal.Decimal), total: money.Zero}
	for _, e := range expenses {
		if _, seen := t.paid[e.PayerID]; !seen {
			t.order = append(t.order, e.PayerID)
			t.paid[e.PayerID] = money.Zero
		}
		t.paid[e.PayerID] = t.paid[e.PayerID].Add(e.Amount)
		t.total = t.total.Add(e.Amount)
	}
	return t
}

// fairShare is total / |P|, unrounded.
func (t *tally) fairShare() decimal.Decimal {
	if len(t.order) == 0 {
		return money.Zero
	}
	return t.total.Div(decimal.NewFromInt(int64(len(t.order))))
}

// ComputeBalances computes each payer's net balance against an equal split of
// total spending.
//
// Algorithm:
// - People are the distinct payers, in the order they first appear
// - fair_share = total / len(people), kept unrounded
// - balance(p) = round2(paid(p) - fair_share), half away from zero
//
// An empty input yields an empty result. The input is never modified.
func ComputeBalances(expenses []ExpenseForBalance) Balances {
	t := newTally(expenses)
	if len(t.order) == 0 {
		return Balances{}
	}

	balances := make(Balances, 0, len(t.order))
	if t.total.IsZero() {
		for _, person := range t.order {
			balances = append(balances, Balance{Person: person, Amount: money.Zero})
		}
		return balances
	}

	fairShare := t.fairShare()
	for _, person := range t.order {
		balances = append(balances, Balance{
			Person: person,
			Amount: money.Round(t.paid[person].Sub(fairShare)),
		})
	}
	return balances
}

// Summarize returns the total spent, the fair share and what each payer paid.
func Summarize(expenses []ExpenseForBalance) Summary {
	t := newTally(expenses)
	summary := Summary{
		Total:     money.Round(t.total),
		FairShare: money.Round(t.fairShare()),
		Paid:      make([]PersonPaid, 0, len(t.order)),
	}
	for _, person := range t.order {
		summary.Paid = append(summary.Paid, PersonPaid{Person: person, Paid: money.Round(t.paid[person])})
	}
	return summary
}
