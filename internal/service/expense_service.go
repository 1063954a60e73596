package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/api/apiconnect"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure ExpenseService implements the Connect handler interface
var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService on top of a Ledger.
type ExpenseService struct {
	ledger *Ledger
}

// NewExpenseService creates a new ExpenseService backed by ledger.
func NewExpenseService(ledger *Ledger) *ExpenseService {
	return &ExpenseService{ledger: ledger}
}

// connectError maps ledger errors to Connect codes.
func connectError(err error) error {
	switch {
	case IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrUnbalanced):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// CreateExpense records a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	expense, err := s.ledger.CreateExpense(ctx, models.ExpenseInput{
		Amount:      req.Msg.Amount.Decimal,
		Description: req.Msg.Description,
		PaidBy:      req.Msg.PaidBy,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: api.FromExpense(expense)}), nil
}

// GetExpense retrieves one expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	expense, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: api.FromExpense(expense)}), nil
}

// ListExpenses retrieves all expenses.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	expenses, err := s.ledger.ListExpenses(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: api.FromExpenses(expenses)}), nil
}

// UpdateExpense replaces an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	expense, err := s.ledger.UpdateExpense(ctx, req.Msg.ExpenseID, models.ExpenseInput{
		Amount:      req.Msg.Amount.Decimal,
		Description: req.Msg.Description,
		PaidBy:      req.Msg.PaidBy,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: api.FromExpense(expense)}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	if err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListPeople lists everyone who has paid for something.
func (s *ExpenseService) ListPeople(ctx context.Context, req *connect.Request[api.ListPeopleRequest]) (*connect.Response[api.ListPeopleResponse], error) {
	people, err := s.ledger.ListPeople(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListPeopleResponse{People: people}), nil
}

// GetBalances computes every payer's net balance.
func (s *ExpenseService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetBalancesResponse{Balances: api.FromBalances(balances)}), nil
}

// GetSettlements computes the transfers that settle all balances.
func (s *ExpenseService) GetSettlements(ctx context.Context, req *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error) {
	transfers, err := s.ledger.Settlements(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetSettlementsResponse{Settlements: api.FromTransfers(transfers)}), nil
}

// GetSummary reports total spending and the fair share.
func (s *ExpenseService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	summary, err := s.ledger.Summary(ctx)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(api.FromSummary(summary)), nil
}
