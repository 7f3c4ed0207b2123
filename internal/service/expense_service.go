package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseService records group expenses and reports each caller's net balances.
type ExpenseService struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewExpenseService creates a new ExpenseService. m may be nil.
func NewExpenseService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{store: store, metrics: m, logger: logger}
}

// EqualSplit returns the SplitFunc used for new expenses. It splits amount
// equally across the membership snapshot the store reads in its transaction.
func EqualSplit(amount decimal.Decimal, paidBy string) storage.SplitFunc {
	return func(memberIDs []string) ([]models.ExpenseSplit, error) {
		if len(memberIDs) == 0 {
			return nil, ErrNoMembers
		}
		if !slices.Contains(memberIDs, paidBy) {
			return nil, fmt.Errorf("%w: %s", ErrPayerNotMember, paidBy)
		}

		shares, err := calculator.EqualSplit(amount, memberIDs)
		if err != nil {
			return nil, err
		}

		// One row per member in membership order
		splits := make([]models.ExpenseSplit, len(memberIDs))
		for i, id := range memberIDs {
			splits[i] = models.ExpenseSplit{UserID: id, Amount: shares[id]}
		}
		return splits, nil
	}
}

// CreateExpense records an expense paid by one member and splits it equally
// among everyone in the group at that moment.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	s.logger.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"paid_by", req.Msg.PaidBy,
		"amount", req.Msg.Amount,
	)

	if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: amount %q", calculator.ErrInvalidArgument, req.Msg.Amount))
	}

	expense := &models.Expense{
		GroupID:     req.Msg.GroupID,
		PaidBy:      req.Msg.PaidBy,
		Amount:      amount,
		Description: req.Msg.Description,
	}

	if err := s.store.CreateExpense(ctx, expense, EqualSplit(amount, req.Msg.PaidBy)); err != nil {
		s.logger.Error("CreateExpense failed", "group_id", req.Msg.GroupID, "error", err)
		switch {
		case errors.Is(err, ErrNoMembers):
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		case errors.Is(err, ErrPayerNotMember), errors.Is(err, calculator.ErrInvalidArgument):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		default:
			return nil, storeError(err)
		}
	}

	shares := make(map[string]decimal.Decimal, len(expense.Splits))
	for _, sp := range expense.Splits {
		shares[sp.UserID] = sp.Amount
	}
	remainder := calculator.SplitRemainder(amount, shares)
	if !remainder.IsZero() {
		s.logger.Debug("Split left a remainder",
			"expense_id", expense.ID,
			"amount", calculator.FormatCents(amount),
			"remainder", calculator.FormatCents(remainder),
		)
	}
	s.metrics.ExpenseCreated(remainder)

	s.logger.Info("Expense created", "expense_id", expense.ID, "splits", len(expense.Splits))

	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense:   toAPIExpense(expense),
		Remainder: calculator.FormatCents(remainder),
	}), nil
}

// ListExpenses returns a group's expenses with their splits, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroups(ctx, []string{req.Msg.GroupID})
	if err != nil {
		s.logger.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	ids := make([]string, len(expenses))
	byID := make(map[string]*models.Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	splits, err := s.store.ListSplitsByExpenses(ctx, ids)
	if err != nil {
		s.logger.Error("ListExpenses failed to load splits", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}
	for _, sp := range splits {
		if e, ok := byID[sp.ExpenseID]; ok {
			e.Splits = append(e.Splits, sp.ExpenseSplit)
		}
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}

	s.logger.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetSummary returns the caller's net balance with every other member across
// all of the caller's groups.
func (s *ExpenseService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.summaryFor(ctx, userID)
	if err != nil {
		s.logger.Error("GetSummary failed", "user_id", userID, "error", err)
		return nil, storeError(err)
	}

	s.logger.Info("GetSummary successful",
		"user_id", userID,
		"owed_by", len(summary.OwedBy),
		"owes_to", len(summary.OwesTo),
	)

	return connect.NewResponse(&api.GetSummaryResponse{Summary: toAPISummary(summary)}), nil
}

func (s *ExpenseService) summaryFor(ctx context.Context, userID string) (calculator.Summary, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return calculator.Summary{}, err
	}
	if len(groups) == 0 {
		return calculator.ZeroSummary(), nil
	}

	groupIDs := make([]string, len(groups))
	for i, g := range groups {
		groupIDs[i] = g.ID
	}

	expenses, err := s.store.ListExpensesByGroups(ctx, groupIDs)
	if err != nil {
		return calculator.Summary{}, err
	}
	if len(expenses) == 0 {
		return calculator.ZeroSummary(), nil
	}

	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	expenseIDs := make([]string, len(expenses))
	for i, e := range expenses {
		forBalance[i] = calculator.ExpenseForBalance{ID: e.ID, GroupID: e.GroupID, PayerID: e.PaidBy}
		expenseIDs[i] = e.ID
	}

	rows, err := s.store.ListSplitsByExpenses(ctx, expenseIDs)
	if err != nil {
		return calculator.Summary{}, err
	}

	splits := make([]calculator.SplitForBalance, len(rows))
	for i, r := range rows {
		splits[i] = calculator.SplitForBalance{
			ExpenseID: r.ExpenseID,
			UserID:    r.UserID,
			Amount:    r.Amount,
			UserName:  r.UserName,
			UserEmail: r.UserEmail,
		}
	}

	return calculator.ComputeSummary(userID, groupIDs, forBalance, splits), nil
}
