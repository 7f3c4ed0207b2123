package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense snapshots membership, computes splits and inserts everything
// in one transaction.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense, split storage.SplitFunc) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	var splits []models.ExpenseSplit
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM groups WHERE id = $1`, expense.GroupID)
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

		splits, err = split(members)
		if err != nil {
			return err
		}

		var description *string
		if expense.Description != "" {
			description = &expense.Description
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO expenses (id, group_id, paid_by, amount, description, created_at)
			 VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
			expense.ID, expense.GroupID, expense.PaidBy, expense.Amount.StringFixed(2), description, expense.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range splits {
			splits[i].ExpenseID = expense.ID
			batch.Queue(
				`INSERT INTO expense_splits (expense_id, user_id, amount) VALUES ($1, $2, $3::numeric)`,
				expense.ID, splits[i].UserID, splits[i].Amount.StringFixed(2),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert expense splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	expense.Splits = splits
	return nil
}

// ListExpensesByGroups returns the expenses of the given groups, oldest first.
func (s *PostgresStore) ListExpensesByGroups(ctx context.Context, groupIDs []string) ([]*models.Expense, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, paid_by, amount::text, COALESCE(description, ''), created_at
		 FROM expenses
		 WHERE group_id = ANY($1)
		 ORDER BY created_at, seq`,
		groupIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		expense := &models.Expense{}
		var amount string
		if err := row.Scan(&expense.ID, &expense.GroupID, &expense.PaidBy, &amount, &expense.Description, &expense.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		expense.Amount, err = decimal.NewFromString(amount)
		return expense, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	return expenses, nil
}

// ListSplitsByExpenses returns splits joined with participant name and email.
func (s *PostgresStore) ListSplitsByExpenses(ctx context.Context, expenseIDs []string) ([]*models.SplitWithUser, error) {
	if len(expenseIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.amount::text, COALESCE(u.display_name, ''), COALESCE(u.email, '')
		 FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 LEFT JOIN users u ON u.id = sp.user_id
		 WHERE sp.expense_id = ANY($1)
		 ORDER BY e.created_at, e.seq, sp.seq`,
		expenseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	splits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.SplitWithUser, error) {
		split := &models.SplitWithUser{}
		var amount string
		if err := row.Scan(&split.ExpenseID, &split.UserID, &amount, &split.UserName, &split.UserEmail); err != nil {
			return nil, err
		}
		var err error
		split.Amount, err = decimal.NewFromString(amount)
		return split, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense splits: %w", err)
	}
	return splits, nil
}
