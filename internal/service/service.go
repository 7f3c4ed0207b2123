// Package service implements the Connect RPC handlers declared in pkg/api.
package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	// ErrNoMembers is returned when an expense is created in a group with an empty membership.
	ErrNoMembers = errors.New("group has no members")
	// ErrPayerNotMember is returned when the payer does not belong to the expense's group.
	ErrPayerNotMember = errors.New("payer is not a member of the group")
	// ErrNotGroupMember is returned when the caller acts on a group they do not belong to.
	ErrNotGroupMember = errors.New("not a member of this group")
)

// callerID returns the authenticated user ID set by middleware.RequireAuth.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func validate(msg any) error {
	if err := validation.ValidateStruct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// storeError maps storage sentinels to Connect codes.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyMember), errors.Is(err, storage.ErrEmailTaken):
		return connect.NewError(connect.CodeAlreadyExists, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// memberGroup loads a group and checks that userID belongs to it.
func memberGroup(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("%w: %s", ErrNotGroupMember, groupID))
	}
	return group, nil
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		MemberIDs: members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.ExpenseSplit, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.ExpenseSplit{UserID: s.UserID, Amount: calculator.FormatCents(s.Amount)}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PaidBy:      e.PaidBy,
		Amount:      calculator.FormatCents(e.Amount),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		Splits:      splits,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     calculator.FormatCents(s.Amount),
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
	}
}

func toAPISummary(s calculator.Summary) *api.Summary {
	convert := func(cps []calculator.Counterparty) []*api.Counterparty {
		out := make([]*api.Counterparty, len(cps))
		for i, c := range cps {
			out[i] = &api.Counterparty{UserID: c.UserID, Name: c.Name, Amount: calculator.FormatCents(c.Amount)}
		}
		return out
	}
	return &api.Summary{
		TotalBalance: calculator.FormatCents(s.TotalBalance),
		TotalOwed:    calculator.FormatCents(s.TotalOwed),
		TotalOwes:    calculator.FormatCents(s.TotalOwes),
		OwedBy:       convert(s.OwedBy),
		OwesTo:       convert(s.OwesTo),
	}
}

var (
	_ api.ExpenseServiceHandler    = (*ExpenseService)(nil)
	_ api.GroupServiceHandler      = (*GroupService)(nil)
	_ api.UserServiceHandler       = (*UserService)(nil)
	_ api.AuthServiceHandler       = (*AuthService)(nil)
	_ api.SettlementServiceHandler = (*SettlementService)(nil)
	_ api.HealthServiceHandler     = (*HealthService)(nil)
)
