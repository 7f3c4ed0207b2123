package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense snapshots the group's membership, computes the splits and
// persists the expense with its splits in a single transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, split storage.SplitFunc) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	found, err := exists(ctx, tx, "SELECT 1 FROM groups WHERE id = ?", expense.GroupID)
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	if !found {
		return fmt.Errorf("group %w: %s", storage.ErrNotFound, expense.GroupID)
	}

	members, err := listGroupMembers(ctx, tx, expense.GroupID)
	if err != nil {
		return err
	}

	splits, err := split(members)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, group_id, paid_by, amount, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.PaidBy, expense.Amount.StringFixed(2), nullable(expense.Description), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range splits {
		splits[i].ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, splits[i].UserID, splits[i].Amount.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	expense.Splits = splits
	return nil
}

// ListExpensesByGroups returns the expenses of the given groups, oldest first.
func (s *SQLiteStore) ListExpensesByGroups(ctx context.Context, groupIDs []string) ([]*models.Expense, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, paid_by, amount, description, created_at
		 FROM expenses
		 WHERE group_id IN (`+placeholders(len(groupIDs))+`)
		 ORDER BY created_at, rowid`,
		stringArgs(groupIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var description sql.NullString
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.PaidBy, &expense.Amount, &description, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Description = description.String
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// ListSplitsByExpenses returns splits joined with participant name and email,
// ordered by expense creation and then by insertion.
func (s *SQLiteStore) ListSplitsByExpenses(ctx context.Context, expenseIDs []string) ([]*models.SplitWithUser, error) {
	if len(expenseIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.amount, u.display_name, u.email
		 FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 LEFT JOIN users u ON u.id = sp.user_id
		 WHERE sp.expense_id IN (`+placeholders(len(expenseIDs))+`)
		 ORDER BY e.created_at, e.rowid, sp.rowid`,
		stringArgs(expenseIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	defer rows.Close()

	var splits []*models.SplitWithUser
	for rows.Next() {
		split := &models.SplitWithUser{}
		var name, email sql.NullString
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &split.Amount, &name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		split.UserName = name.String
		split.UserEmail = email.String
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	return splits, nil
}
