package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group with its creator as the first member.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO groups (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`,
			group.ID, group.Name, group.CreatedBy, group.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			group.ID, group.CreatedBy,
		); err != nil {
			return fmt.Errorf("failed to insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	group.MemberIDs = []string{group.CreatedBy}
	return nil
}

// GetGroup retrieves a group with its members.
func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = $1`, groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %w: %s", storage.ErrNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.MemberIDs, err = listGroupMembers(ctx, s.pool, groupID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns the user's groups, newest first.
func (s *PostgresStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.created_at DESC, g.seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Group, error) {
		group := &models.Group{}
		err := row.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
		return group, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan groups: %w", err)
	}

	for _, group := range groups {
		group.MemberIDs, err = listGroupMembers(ctx, s.pool, group.ID)
		if err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// AddGroupMember adds a user to a group.
func (s *PostgresStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM groups WHERE id = $1`, groupID)
		if err != nil {
			return fmt.Errorf("failed to check group existence: %w", err)
		}
		if !found {
			return fmt.Errorf("group %w: %s", storage.ErrNotFound, groupID)
		}

		found, err = exists(ctx, tx, `SELECT 1 FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if !found {
			return fmt.Errorf("user %w: %s", storage.ErrNotFound, userID)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, groupID, userID)
		if isUniqueViolation(err) {
			return storage.ErrAlreadyMember
		}
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
		return nil
	})
}

// ListGroupMembers returns member IDs in the order they joined.
func (s *PostgresStore) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	return listGroupMembers(ctx, s.pool, groupID)
}

func listGroupMembers(ctx context.Context, q querier, groupID string) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}
