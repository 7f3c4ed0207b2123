package models

import "github.com/shopspring/decimal"

// Expense is a single payment made by one group member on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PaidBy is the user ID of the member who paid.
	PaidBy string

	// Amount is the total paid, with two fractional digits.
	Amount decimal.Decimal

	// Description is an optional note (e.g., "Hotel", "Groceries").
	Description string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits are the per-member shares, one per group member at creation time.
	Splits []ExpenseSplit
}

// ExpenseSplit is one participant's owed share of an expense.
type ExpenseSplit struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
}

// SplitWithUser is a split row joined with the participant's display attributes.
type SplitWithUser struct {
	ExpenseSplit
	UserName  string
	UserEmail string
}
