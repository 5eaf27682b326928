package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

// CreateGroup inserts the group and its creator's membership in one
// transaction, so the creator always joins the group that was just inserted.
func (s *SQLStore) CreateGroup(ctx context.Context, group *models.Group, creatorID int64) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		s.rebind("INSERT INTO groups (name, password_hash, created_at) VALUES (?, ?, ?) RETURNING id"),
		group.Name, group.PasswordHash, group.CreatedAt,
	).Scan(&group.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create group %q: %w", group.Name, storage.ErrConflict)
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		s.rebind("INSERT INTO group_members (group_id, user_id) VALUES (?, ?)"),
		group.ID, creatorID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("creator %d: %w", creatorID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.Members, err = s.memberNames(ctx, group.ID)
	return err
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	return s.getGroup(ctx, "id = ?", id)
}

// GetGroupByName retrieves a group by its unique name, including its members.
func (s *SQLStore) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	return s.getGroup(ctx, "name = ?", name)
}

func (s *SQLStore) getGroup(ctx context.Context, where string, arg any) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, name, password_hash, created_at FROM groups WHERE "+where),
		arg,
	).Scan(&group.ID, &group.Name, &group.PasswordHash, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %v: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Members, err = s.memberNames(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns every group with members, in name order.
func (s *SQLStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.queryGroups(ctx, "SELECT id, name, password_hash, created_at FROM groups ORDER BY name")
	if err != nil {
		return nil, err
	}
	if err := s.attachMembers(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListGroupsByMember returns the groups userID belongs to, in name order.
func (s *SQLStore) ListGroupsByMember(ctx context.Context, userID int64) ([]*models.Group, error) {
	groups, err := s.queryGroups(ctx,
		s.rebind(`SELECT g.id, g.name, g.password_hash, g.created_at
		 FROM groups g JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ? ORDER BY g.name`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	if err := s.attachMembers(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember adds userID to the group. Adding an existing member is a no-op.
func (s *SQLStore) AddMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO group_members (group_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING"),
		groupID, userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("membership (%d, %d): %w", groupID, userID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes the membership row if present.
func (s *SQLStore) RemoveMember(ctx context.Context, groupID, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM group_members WHERE group_id = ? AND user_id = ?"),
		groupID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// IsMember reports whether userID belongs to the group.
func (s *SQLStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?"),
		groupID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) queryGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.PasswordHash, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// memberNames returns the usernames of a group's members, sorted.
func (s *SQLStore) memberNames(ctx context.Context, groupID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT u.username FROM group_members gm JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = ? ORDER BY u.username`),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return names, nil
}

// attachMembers loads the members of all groups with a single query.
func (s *SQLStore) attachMembers(ctx context.Context, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Group, len(groups))
	args := make([]any, len(groups))
	for i, g := range groups {
		byID[g.ID] = g
		args[i] = g.ID
	}

	query := `SELECT gm.group_id, u.username FROM group_members gm JOIN users u ON u.id = gm.user_id
	 WHERE gm.group_id IN (` + placeholders(len(groups)) + `) ORDER BY u.username`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID int64
		var name string
		if err := rows.Scan(&groupID, &name); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if g, ok := byID[groupID]; ok {
			g.Members = append(g.Members, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}
	return nil
}
