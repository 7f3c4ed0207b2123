// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - User: registered account, created on first registration
//   - Group: named set of members
//   - Expense: one payment made by a member on behalf of the group
//   - ExpenseSplit: one participant's owed share of an expense
//   - Settlement: a recorded payment between two members (storage only)
//
// # Design Principles
//
//  1. Relationships are ID strings, never pointers
//  2. Money is decimal.Decimal with two fractional digits, never float64
//  3. Timestamps are Unix seconds
//  4. Expense splits snapshot group membership at creation and are never recomputed
package models
