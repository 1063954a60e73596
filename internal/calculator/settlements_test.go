package calculator

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

func TestComputeSettlements(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
		want     []Transfer
	}{
		{
			name:     "one debtor one creditor",
			balances: Balances{{"Alice", d("25.00")}, {"Bob", d("-25.00")}},
			want:     []Transfer{{From: "Bob", To: "Alice", Amount: d("25.00")}},
		},
		{
			name:     "debtors settle in encounter order",
			balances: Balances{{"A", d("20.00")}, {"B", d("-10.00")}, {"C", d("-10.00")}},
			want: []Transfer{
				{From: "B", To: "A", Amount: d("10.00")},
				{From: "C", To: "A", Amount: d("10.00")},
			},
		},
		{
			name:     "empty balances",
			balances: Balances{},
			want:     []Transfer{},
		},
		{
			name:     "all settled",
			balances: Balances{{"A", d("0")}},
			want:     []Transfer{},
		},
		{
			name: "debtor split across creditors",
			balances: Balances{
				{"D1", d("-30.00")}, {"C1", d("20.00")}, {"D2", d("-10.00")}, {"C2", d("20.00")},
			},
			want: []Transfer{
				{From: "D1", To: "C1", Amount: d("20.00")},
				{From: "D1", To: "C2", Amount: d("10.00")},
				{From: "D2", To: "C2", Amount: d("10.00")},
			},
		},
		{
			name:     "zero balances are skipped",
			balances: Balances{{"A", d("0")}, {"B", d("-5.50")}, {"C", d("0")}, {"D", d("5.50")}},
			want:     []Transfer{{From: "B", To: "D", Amount: d("5.50")}},
		},
		{
			name:     "one cent of rounding residue is absorbed",
			balances: Balances{{"A", d("66.66")}, {"B", d("-33.32")}, {"C", d("-33.33")}},
			want: []Transfer{
				{From: "B", To: "A", Amount: d("33.32")},
				{From: "C", To: "A", Amount: d("33.33")},
			},
		},
		{
			name:     "a genuine one cent debt is still paid",
			balances: Balances{{"A", d("10.01")}, {"B", d("-10.00")}, {"C", d("-0.01")}},
			want: []Transfer{
				{From: "B", To: "A", Amount: d("10.00")},
				{From: "C", To: "A", Amount: d("0.01")},
			},
		},
		{
			name:     "residue alone produces no transfers",
			balances: Balances{{"A", d("0")}, {"B", d("0")}, {"C", d("0.01")}},
			want:     []Transfer{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSettlements(tt.balances)
			if err != nil {
				t.Fatalf("ComputeSettlements() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ComputeSettlements() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %s->%s %s, want %s->%s %s", i,
						got[i].From, got[i].To, got[i].Amount,
						tt.want[i].From, tt.want[i].To, tt.want[i].Amount)
				}
			}
		})
	}
}

func TestComputeSettlements_Unbalanced(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
	}{
		{
			name:     "credit without debt",
			balances: Balances{{"A", d("10.00")}, {"B", d("-5.00")}},
		},
		{
			name:     "debt without credit",
			balances: Balances{{"A", d("-1.00")}},
		},
		{
			name:     "just over tolerance",
			balances: Balances{{"A", d("0.03")}, {"B", d("0")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSettlements(tt.balances)
			if !errors.Is(err, ErrUnbalanced) {
				t.Fatalf("ComputeSettlements() error = %v, want ErrUnbalanced", err)
			}
			if got != nil {
				t.Errorf("expected no transfers on error, got %v", got)
			}
		})
	}
}

func TestApplyTransfers(t *testing.T) {
	b := Balances{{"A", d("20.00")}, {"B", d("-10.00")}, {"C", d("-10.00")}}
	after := ApplyTransfers(b, []Transfer{
		{From: "B", To: "A", Amount: d("10.00")},
		{From: "C", To: "A", Amount: d("4.00")},
	})

	want := map[string]string{"A": "6.00", "B": "0.00", "C": "-6.00"}
	for _, bal := range after {
		if bal.Amount.StringFixed(2) != want[bal.Person] {
			t.Errorf("%s = %s, want %s", bal.Person, bal.Amount.StringFixed(2), want[bal.Person])
		}
	}
	if !b[0].Amount.Equal(d("20.00")) {
		t.Error("ApplyTransfers modified its input")
	}
}

// TestEndToEnd_Properties checks the ledger invariants over many random expense sets.
func TestEndToEnd_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace"}

	for run := 0; run < 200; run++ {
		t.Run(fmt.Sprintf("run_%d", run), func(t *testing.T) {
			var in []ExpenseForBalance
			for n := rng.Intn(12); n >= 0; n-- {
				in = append(in, ExpenseForBalance{
					Amount:  money.FromCents(int64(1 + rng.Intn(50000))),
					PayerID: names[rng.Intn(len(names))],
				})
			}

			balances := ComputeBalances(in)
			tol := balances.Tolerance()
			if !money.WithinTolerance(balances.Sum(), tol) {
				t.Fatalf("balances sum to %s, tolerance %s", balances.Sum(), tol)
			}

			transfers, err := ComputeSettlements(balances)
			if err != nil {
				t.Fatalf("ComputeSettlements() error = %v", err)
			}
			for _, tr := range transfers {
				if !tr.Amount.IsPositive() {
					t.Errorf("non-positive transfer %+v", tr)
				}
				if tr.From == tr.To {
					t.Errorf("self transfer %+v", tr)
				}
			}

			residual := decimal.Zero
			for _, bal := range ApplyTransfers(balances, transfers) {
				if !money.WithinTolerance(bal.Amount, tol) {
					t.Errorf("%s left with %s after settling", bal.Person, bal.Amount)
				}
				residual = residual.Add(bal.Amount.Abs())
			}
			if !money.WithinTolerance(residual, tol) {
				t.Errorf("total residual %s exceeds %s", residual, tol)
			}

			again, err := ComputeSettlements(ComputeBalances(in))
			if err != nil {
				t.Fatalf("second ComputeSettlements() error = %v", err)
			}
			if len(again) != len(transfers) {
				t.Fatalf("non-deterministic transfer count: %d vs %d", len(again), len(transfers))
			}
			for i := range again {
				if again[i].From != transfers[i].From || again[i].To != transfers[i].To || !again[i].Amount.Equal(transfers[i].Amount) {
					t.Errorf("non-deterministic transfer %d: %+v vs %+v", i, again[i], transfers[i])
				}
			}
		})
	}
}
