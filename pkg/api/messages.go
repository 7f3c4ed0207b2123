// Package api defines the Connect RPC surface: wire messages, the JSON codec,
// and handler/client constructors for each service.
//
// Amounts are decimal strings with exactly two fractional digits ("12.50").
package api

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	MemberIDs []string `json:"member_ids"`
	CreatedAt int64    `json:"created_at"`
}

type ExpenseSplit struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PaidBy      string          `json:"paid_by"`
	Amount      string          `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	Splits      []*ExpenseSplit `json:"splits"`
}

type Settlement struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// Counterparty is one member the caller has an open balance with.
// Amount is always positive; direction comes from the list it appears in.
type Counterparty struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Summary is the caller's net position across all of their groups.
type Summary struct {
	TotalBalance string          `json:"total_balance"`
	TotalOwed    string          `json:"total_owed"`
	TotalOwes    string          `json:"total_owes"`
	OwedBy       []*Counterparty `json:"owed_by"`
	OwesTo       []*Counterparty `json:"owes_to"`
}

// Expense service

type CreateExpenseRequest struct {
	GroupID     string `json:"group_id" validate:"required,uuid"`
	PaidBy      string `json:"paid_by" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required,max=32,positive_amount,max_amount,cents"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
	// Remainder is amount minus the sum of splits; "0.01" for 100.00 split three ways.
	Remainder string `json:"remainder"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	Summary *Summary `json:"summary"`
}

// Group service

type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
}

type GetGroupResponse struct {
	Group        *Group `json:"group"`
	IsMember     bool   `json:"is_member"`
	MembersCount int    `json:"members_count"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
	UserID  string `json:"user_id" validate:"required,uuid"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

// User service

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

// Auth service

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name,omitempty" validate:"max=100"`
	Password    string `json:"password" validate:"required,max=72"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Settlement service

type RecordSettlementRequest struct {
	GroupID  string `json:"group_id" validate:"required,uuid"`
	ToUserID string `json:"to_user_id" validate:"required,uuid"`
	Amount   string `json:"amount" validate:"required,max=32,positive_amount,max_amount,cents"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
