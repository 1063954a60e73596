package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// ErrUnbalanced is returned when balances do not sum to zero within tolerance.
// It points at an upstream data or calculation bug and is never patched over.
var ErrUnbalanced = errors.New("balances do not sum to zero")

// Transfer is a single directed payment that settles part of a debt.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// position is a debtor's remaining debt or a creditor's remaining credit, as a
// positive magnitude.
type position struct {
	person    string
	remaining decimal.Decimal
}

// ComputeSettlements produces an ordered list of transfers that zeroes all balances.
//
// Algorithm:
// - Debtors (balance < 0) and creditors (balance > 0) keep the order of b;
//   people with a zero balance neither pay nor receive
// - Two pointers sweep both lists; each step moves min(debt, credit) from the
//   current debtor to the current creditor
// - A pointer advances once its remaining amount drops below one cent
//
// The result is greedy, not the theoretical minimum number of transfers. An
// ErrUnbalanced error is returned, with no transfers, if b does not sum to zero
// within Tolerance or if the sweep leaves unsettled amounts above it.
func ComputeSettlements(b Balances) ([]Transfer, error) {
	if sum, tol := b.Sum(), b.Tolerance(); !money.WithinTolerance(sum, tol) {
		return nil, fmt.Errorf("%w: sum is %s, tolerance is %s", ErrUnbalanced, money.Format(sum), money.Format(tol))
	}

	var debtors, creditors []position
	for _, bal := range b {
		switch bal.Amount.Sign() {
		case -1:
			debtors = append(debtors, position{person: bal.Person, remaining: bal.Amount.Neg()})
		case 1:
			creditors = append(creditors, position{person: bal.Person, remaining: bal.Amount})
		}
	}

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := money.Round(decimal.Min(debtor.remaining, creditor.remaining))
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{
				From:   debtor.person,
				To:     creditor.person,
				Amount: amount,
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.LessThan(money.Cent) {
			i++
		}
		if creditor.remaining.LessThan(money.Cent) {
			j++
		}
	}

	residual := unsettled(debtors[i:]).Add(unsettled(creditors[j:]))
	if !money.WithinTolerance(residual, b.Tolerance()) {
		return nil, fmt.Errorf("%w: %s left unsettled", ErrUnbalanced, money.Format(residual))
	}

	return transfers, nil
}

func unsettled(positions []position) decimal.Decimal {
	sum := money.Zero
	for _, p := range positions {
		sum = sum.Add(p.remaining)
	}
	return sum
}

// ApplyTransfers returns a copy of b with every transfer applied: the payer's
// balance rises by the amount and the receiver's falls by it. b is not modified.
func ApplyTransfers(b Balances, transfers []Transfer) Balances {
	out := make(Balances, len(b))
	copy(out, b)

	index := make(map[string]int, len(out))
	for i, bal := range out {
		index[bal.Person] = i
	}

	for _, t := range transfers {
		if i, ok := index[t.From]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
		}
		if i, ok := index[t.To]; ok {
			out[i].Amount = out[i].Amount.Sub(t.Amount)
		}
	}
	return out
}
