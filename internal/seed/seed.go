// Package seed loads a fixed demo dataset: ten users, three groups and four
// equally split expenses.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "splitledger-demo"

// ErrAlreadySeeded is returned when the first demo user already exists.
var ErrAlreadySeeded = errors.New("demo data already present")

type groupFixture struct {
	name    string
	creator int   // index into users
	members []int // excluding the creator
}

type expenseFixture struct {
	group       int
	payer       int
	amount      string
	description string
}

var (
	groups = []groupFixture{
		{name: "Trip to Goa", creator: 0, members: []int{1, 2, 3}},
		{name: "Office Lunch", creator: 1, members: []int{2, 4, 5}},
		{name: "Flatmates", creator: 2, members: []int{6, 7}},
	}

	expenses = []expenseFixture{
		{group: 0, payer: 0, amount: "4000.00", description: "Hotel"},
		{group: 0, payer: 1, amount: "2000.00", description: "Food"},
		{group: 1, payer: 4, amount: "1200.00", description: "Lunch"},
		{group: 2, payer: 2, amount: "3000.00", description: "Utilities"},
	}
)

const userCount = 10

// Result lists what Run created.
type Result struct {
	Users    []*models.User
	Groups   []*models.Group
	Expenses []*models.Expense
}

// Run creates the demo dataset. Accounts go through the authenticator so they
// can log in with DemoPassword; expenses go through the same split path as the API.
func Run(ctx context.Context, store storage.Store, authenticator auth.Authenticator, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{}

	for i := range userCount {
		email := fmt.Sprintf("user%d@example.com", i+1)
		user, err := authenticator.Register(ctx, email, fmt.Sprintf("User %d", i+1), DemoPassword)
		if errors.Is(err, auth.ErrEmailExists) && i == 0 {
			return nil, ErrAlreadySeeded
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", email, err)
		}
		res.Users = append(res.Users, user)
	}
	logger.Info("Seeded users", "count", len(res.Users))

	for _, fx := range groups {
		group := &models.Group{Name: fx.name, CreatedBy: res.Users[fx.creator].ID}
		if err := store.CreateGroup(ctx, group); err != nil {
			return nil, fmt.Errorf("failed to create group %q: %w", fx.name, err)
		}
		for _, m := range fx.members {
			if err := store.AddGroupMember(ctx, group.ID, res.Users[m].ID); err != nil {
				return nil, fmt.Errorf("failed to add member to %q: %w", fx.name, err)
			}
		}
		res.Groups = append(res.Groups, group)
	}
	logger.Info("Seeded groups", "count", len(res.Groups))

	for _, fx := range expenses {
		payer := res.Users[fx.payer].ID
		amount := decimal.RequireFromString(fx.amount)
		expense := &models.Expense{
			GroupID:     res.Groups[fx.group].ID,
			PaidBy:      payer,
			Amount:      amount,
			Description: fx.description,
		}
		if err := store.CreateExpense(ctx, expense, service.EqualSplit(amount, payer)); err != nil {
			return nil, fmt.Errorf("failed to create expense %q: %w", fx.description, err)
		}
		res.Expenses = append(res.Expenses, expense)
	}
	logger.Info("Seeded expenses", "count", len(res.Expenses))

	return res, nil
}
