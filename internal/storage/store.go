// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when adding a user to a group they already belong to.
	ErrAlreadyMember = errors.New("user already in group")
	// ErrEmailTaken is returned when creating a user with an email that is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// SplitFunc computes the splits for an expense from the group's member IDs.
// Stores call it inside the expense transaction with the membership snapshot
// read in that same transaction. Returning an error aborts the write.
type SplitFunc func(memberIDs []string) ([]models.ExpenseSplit, error)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. user.ID is populated by the store.
	// Returns ErrEmailTaken if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns every user ordered by creation time.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// GroupStore persists groups and their membership sets.
type GroupStore interface {
	// CreateGroup persists a new group and adds group.CreatedBy as its first
	// member in the same transaction. ID and CreatedAt are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its member IDs. Returns ErrNotFound if absent.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID belongs to, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember adds userID to the group.
	// Returns ErrNotFound if the group or user is missing, ErrAlreadyMember on duplicates.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// ListGroupMembers returns the member IDs of a group.
	ListGroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense reads the group's membership, calls split with it, and
	// inserts the expense and the returned splits, all in one transaction.
	// ID and CreatedAt are populated by the store; expense.Splits is set on success.
	CreateExpense(ctx context.Context, expense *models.Expense, split SplitFunc) error

	// ListExpensesByGroups returns the expenses of the given groups ordered by
	// creation time, without splits.
	ListExpensesByGroups(ctx context.Context, groupIDs []string) ([]*models.Expense, error)

	// ListSplitsByExpenses returns the splits of the given expenses joined with
	// each participant's name and email, ordered by expense creation time.
	ListSplitsByExpenses(ctx context.Context, expenseIDs []string) ([]*models.SplitWithUser, error)
}

// SettlementStore persists settlements.
type SettlementStore interface {
	// CreateSettlement persists a new settlement. ID, CreatedAt and an empty
	// Status are populated by the store.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	SettlementStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
