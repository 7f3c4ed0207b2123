package service

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/pkg/api"
)

func TestCreateExpense_TwoParty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	groupID := env.group(t, "Flatmates", alice, bob)

	resp := env.expense(t, groupID, alice, "100.00")

	require.NotNil(t, resp.Expense)
	assert.NotEmpty(t, resp.Expense.ID)
	assert.Equal(t, "100.00", resp.Expense.Amount)
	assert.Equal(t, "0.00", resp.Remainder)
	require.Len(t, resp.Expense.Splits, 2)
	assert.Equal(t, alice, resp.Expense.Splits[0].UserID)
	assert.Equal(t, "50.00", resp.Expense.Splits[0].Amount)
	assert.Equal(t, bob, resp.Expense.Splits[1].UserID)
	assert.Equal(t, "50.00", resp.Expense.Splits[1].Amount)

	t.Run("payer is owed", func(t *testing.T) {
		s := env.summary(t, alice)
		assert.Equal(t, "50.00", s.TotalBalance)
		assert.Equal(t, "50.00", s.TotalOwed)
		assert.Equal(t, "0.00", s.TotalOwes)
		require.Len(t, s.OwedBy, 1)
		assert.Equal(t, api.Counterparty{UserID: bob, Name: "Bob", Amount: "50.00"}, *s.OwedBy[0])
		assert.Empty(t, s.OwesTo)
	})

	t.Run("participant owes", func(t *testing.T) {
		s := env.summary(t, bob)
		assert.Equal(t, "-50.00", s.TotalBalance)
		assert.Equal(t, "0.00", s.TotalOwed)
		assert.Equal(t, "50.00", s.TotalOwes)
		require.Len(t, s.OwesTo, 1)
		assert.Equal(t, api.Counterparty{UserID: alice, Name: "Alice", Amount: "50.00"}, *s.OwesTo[0])
		assert.Empty(t, s.OwedBy)
	})
}

func TestCreateExpense_RemainderIsReported(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a@example.com", "A")
	b := env.user(t, "b@example.com", "B")
	c := env.user(t, "c@example.com", "C")
	groupID := env.group(t, "Trip", a, b, c)

	resp := env.expense(t, groupID, a, "100.00")

	require.Len(t, resp.Expense.Splits, 3)
	for _, s := range resp.Expense.Splits {
		assert.Equal(t, "33.33", s.Amount)
	}
	assert.Equal(t, "0.01", resp.Remainder)

	// The cent is not redistributed; A is owed two shares
	s := env.summary(t, a)
	assert.Equal(t, "66.66", s.TotalOwed)
	assert.Len(t, s.OwedBy, 2)

	body := env.scrapeMetrics(t)
	assert.Contains(t, body, "splitledger_expenses_created_total 1")
	assert.Contains(t, body, "splitledger_split_remainder_cents_total 1")
}

func TestCreateExpense_Netting(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "")
	groupID := env.group(t, "Lunch", alice, bob)

	env.expense(t, groupID, alice, "30.00")
	env.expense(t, groupID, bob, "20.00")

	s := env.summary(t, alice)
	assert.Equal(t, "5.00", s.TotalBalance)
	require.Len(t, s.OwedBy, 1)
	// No display name: falls back to email
	assert.Equal(t, "bob@example.com", s.OwedBy[0].Name)
	assert.Equal(t, "5.00", s.OwedBy[0].Amount)

	t.Run("equal payments cancel out", func(t *testing.T) {
		env.expense(t, groupID, bob, "10.00")

		for _, id := range []string{alice, bob} {
			s := env.summary(t, id)
			assert.Equal(t, "0.00", s.TotalBalance)
			assert.Empty(t, s.OwedBy)
			assert.Empty(t, s.OwesTo)
		}
	})
}

func TestCreateExpense_MembershipSnapshot(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	carol := env.user(t, "carol@example.com", "Carol")
	groupID := env.group(t, "House", alice, bob)

	env.expense(t, groupID, alice, "60.00")

	_, err := env.groups.AddMember(context.Background(), as(alice, &api.AddMemberRequest{GroupID: groupID, UserID: carol}))
	require.NoError(t, err)

	// Carol joined after the expense and owes nothing for it
	s := env.summary(t, carol)
	assert.Equal(t, "0.00", s.TotalBalance)
	assert.Empty(t, s.OwesTo)

	s = env.summary(t, alice)
	require.Len(t, s.OwedBy, 1)
	assert.Equal(t, bob, s.OwedBy[0].UserID)
	assert.Equal(t, "30.00", s.OwedBy[0].Amount)
}

func TestGetSummary_AcrossGroups(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	carol := env.user(t, "carol@example.com", "Carol")

	g1 := env.group(t, "Flat", alice, bob)
	g2 := env.group(t, "Trip", carol, alice)

	env.expense(t, g1, alice, "40.00")
	env.expense(t, g2, carol, "90.00")

	s := env.summary(t, alice)
	require.Len(t, s.OwedBy, 1)
	assert.Equal(t, bob, s.OwedBy[0].UserID)
	assert.Equal(t, "20.00", s.OwedBy[0].Amount)
	require.Len(t, s.OwesTo, 1)
	assert.Equal(t, carol, s.OwesTo[0].UserID)
	assert.Equal(t, "45.00", s.OwesTo[0].Amount)
	assert.Equal(t, "-25.00", s.TotalBalance)

	// Bob is not in the trip group and never sees it
	s = env.summary(t, bob)
	require.Len(t, s.OwesTo, 1)
	assert.Equal(t, alice, s.OwesTo[0].UserID)
	assert.Equal(t, "-20.00", s.TotalBalance)

	t.Run("repeated calls agree", func(t *testing.T) {
		assert.Equal(t, env.summary(t, alice), env.summary(t, alice))
	})
}

func TestGetSummary_NoGroups(t *testing.T) {
	env := newTestEnv(t)
	loner := env.user(t, "loner@example.com", "Loner")

	s := env.summary(t, loner)
	assert.Equal(t, "0.00", s.TotalBalance)
	assert.Equal(t, "0.00", s.TotalOwed)
	assert.Equal(t, "0.00", s.TotalOwes)
	assert.Empty(t, s.OwedBy)
	assert.Empty(t, s.OwesTo)

	t.Run("groups without expenses", func(t *testing.T) {
		env.group(t, "Empty", loner)
		s := env.summary(t, loner)
		assert.Equal(t, "0.00", s.TotalBalance)
	})
}

func TestCreateExpense_Errors(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	mallory := env.user(t, "mallory@example.com", "Mallory")
	groupID := env.group(t, "Flat", alice, bob)

	tests := []struct {
		name     string
		caller   string
		req      *api.CreateExpenseRequest
		wantCode connect.Code
	}{
		{
			name:     "unauthenticated",
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "10.00"},
			wantCode: connect.CodeUnauthenticated,
		},
		{
			name:     "missing amount",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "zero amount",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "0.00"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "negative amount",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "-10.00"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "sub-cent amount",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "10.001"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "amount above the money column",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "10000000000.00"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "huge exponent",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "1e10000000"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "payer outside the group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: mallory, Amount: "10.00"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "caller outside the group",
			caller:   mallory,
			req:      &api.CreateExpenseRequest{GroupID: groupID, PaidBy: alice, Amount: "10.00"},
			wantCode: connect.CodePermissionDenied,
		},
		{
			name:     "unknown group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: uuid.NewString(), PaidBy: alice, Amount: "10.00"},
			wantCode: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(tt.req)
			if tt.caller != "" {
				req = as(tt.caller, tt.req)
			}
			_, err := env.expenses.CreateExpense(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err), "error: %v", err)
		})
	}

	t.Run("nothing was written", func(t *testing.T) {
		resp, err := env.expenses.ListExpenses(context.Background(), as(alice, &api.ListExpensesRequest{GroupID: groupID}))
		require.NoError(t, err)
		assert.Empty(t, resp.Msg.Expenses)
	})
}

func TestEqualSplitFunc(t *testing.T) {
	amount := decimal.RequireFromString("10.00")

	t.Run("empty membership", func(t *testing.T) {
		_, err := EqualSplit(amount, "a")(nil)
		assert.True(t, errors.Is(err, ErrNoMembers))
	})

	t.Run("payer not in snapshot", func(t *testing.T) {
		_, err := EqualSplit(amount, "z")([]string{"a", "b"})
		assert.True(t, errors.Is(err, ErrPayerNotMember))
	})

	t.Run("rows follow membership order", func(t *testing.T) {
		splits, err := EqualSplit(amount, "b")([]string{"c", "a", "b"})
		require.NoError(t, err)
		require.Len(t, splits, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{splits[0].UserID, splits[1].UserID, splits[2].UserID})
		for _, s := range splits {
			assert.Equal(t, "3.33", calculator.FormatCents(s.Amount))
		}
	})

	t.Run("calculator errors pass through", func(t *testing.T) {
		_, err := EqualSplit(decimal.RequireFromString("1.001"), "a")([]string{"a"})
		assert.True(t, errors.Is(err, calculator.ErrInvalidArgument))
	})
}

func TestListExpenses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com", "Alice")
	bob := env.user(t, "bob@example.com", "Bob")
	mallory := env.user(t, "mallory@example.com", "Mallory")
	groupID := env.group(t, "Flat", alice, bob)
	ctx := context.Background()

	_, err := env.expenses.CreateExpense(ctx, as(bob, &api.CreateExpenseRequest{
		GroupID:     groupID,
		PaidBy:      alice,
		Amount:      "12.00",
		Description: "Groceries",
	}))
	require.NoError(t, err)
	env.expense(t, groupID, bob, "7.50")

	resp, err := env.expenses.ListExpenses(ctx, as(alice, &api.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Expenses, 2)

	first := resp.Msg.Expenses[0]
	assert.Equal(t, "Groceries", first.Description)
	assert.Equal(t, alice, first.PaidBy)
	require.Len(t, first.Splits, 2)
	assert.Equal(t, "6.00", first.Splits[0].Amount)

	second := resp.Msg.Expenses[1]
	assert.Equal(t, "7.50", second.Amount)
	require.Len(t, second.Splits, 2)
	assert.Equal(t, "3.75", second.Splits[1].Amount)

	_, err = env.expenses.ListExpenses(ctx, as(mallory, &api.ListExpensesRequest{GroupID: groupID}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}
