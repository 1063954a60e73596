package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/api/apiconnect"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/money"
)

// setupTestServer creates a test server backed by a temporary SQLite database
func setupTestServer(t *testing.T) apiconnect.ExpenseServiceClient {
	t.Helper()

	m := metrics.New()
	ledger := NewLedger(newTestStore(t), nil, m)

	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor(m))
	path, handler := apiconnect.NewExpenseServiceHandler(NewExpenseService(ledger), interceptors)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL)
}

func amt(s string) money.Amount {
	return money.NewAmount(decimal.RequireFromString(s))
}

func createExpense(t *testing.T, client apiconnect.ExpenseServiceClient, amount, description, paidBy string) *api.Expense {
	t.Helper()
	resp, err := client.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{
		Amount:      amt(amount),
		Description: description,
		PaidBy:      paidBy,
	}))
	require.NoError(t, err)
	return resp.Msg.Expense
}

func TestCreateAndGetExpense(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	created := createExpense(t, client, "12.50", "Pizza", "Alice")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "12.50", created.Amount.String())
	assert.NotZero(t, created.CreatedAt)

	resp, err := client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{ExpenseID: created.ID}))
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.Msg.Expense.ID)
	assert.Equal(t, "Pizza", resp.Msg.Expense.Description)
	assert.Equal(t, "Alice", resp.Msg.Expense.PaidBy)
}

func TestCreateExpense_RejectsZeroAmount(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{
		Amount:      amt("0.00"),
		Description: "Coffee",
		PaidBy:      "Carl",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr))
	assert.Contains(t, connectErr.Message(), "Amount must be positive")
}

func TestExpenseNotFound(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	_, err := client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{ExpenseID: "nope"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: "nope", Amount: amt("1"), Description: "x", PaidBy: "y",
	}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: "nope"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestUpdateDeleteAndList(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	first := createExpense(t, client, "10.00", "Taxi", "Bob")
	second := createExpense(t, client, "4.00", "Gum", "Alice")

	updated, err := client.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: first.ID, Amount: amt("11.00"), Description: "Taxi + tip", PaidBy: "Bob",
	}))
	require.NoError(t, err)
	assert.Equal(t, "11.00", updated.Msg.Expense.Amount.String())
	assert.Equal(t, first.CreatedAt, updated.Msg.Expense.CreatedAt)

	_, err = client.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: second.ID}))
	require.NoError(t, err)

	list, err := client.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 1)
	assert.Equal(t, first.ID, list.Msg.Expenses[0].ID)

	people, err := client.ListPeople(ctx, connect.NewRequest(&api.ListPeopleRequest{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, people.Msg.People)
}

func TestGetBalancesAndSettlements(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	createExpense(t, client, "60.00", "Groceries", "A")
	createExpense(t, client, "30.00", "Wine", "B")
	createExpense(t, client, "30.00", "Bread", "C")

	balances, err := client.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Balances, 3)
	want := []struct{ person, balance string }{{"A", "20.00"}, {"B", "-10.00"}, {"C", "-10.00"}}
	for i, w := range want {
		assert.Equal(t, w.person, balances.Msg.Balances[i].Person)
		assert.Equal(t, w.balance, balances.Msg.Balances[i].Balance.String())
	}

	settlements, err := client.GetSettlements(ctx, connect.NewRequest(&api.GetSettlementsRequest{}))
	require.NoError(t, err)
	require.Len(t, settlements.Msg.Settlements, 2)
	assert.Equal(t, "B", settlements.Msg.Settlements[0].FromPerson)
	assert.Equal(t, "A", settlements.Msg.Settlements[0].ToPerson)
	assert.Equal(t, "10.00", settlements.Msg.Settlements[0].Amount.String())
	assert.Equal(t, "C", settlements.Msg.Settlements[1].FromPerson)

	summary, err := client.GetSummary(ctx, connect.NewRequest(&api.GetSummaryRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "120.00", summary.Msg.Total.String())
	assert.Equal(t, "40.00", summary.Msg.FairShare.String())
	assert.Equal(t, 3, summary.Msg.People)
}

func TestGetSettlements_Empty(t *testing.T) {
	client := setupTestServer(t)

	resp, err := client.GetSettlements(context.Background(), connect.NewRequest(&api.GetSettlementsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Settlements)

	balances, err := client.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{}))
	require.NoError(t, err)
	assert.Empty(t, balances.Msg.Balances)
}
