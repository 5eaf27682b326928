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

// CreateTodo persists a new todo and fills in its ID.
func (s *SQLStore) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if todo.CreatedAt == 0 {
		todo.CreatedAt = time.Now().Unix()
	}

	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO todos (user_id, text, complete, shared, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		todo.UserID, todo.Text, todo.Complete, todo.Shared, todo.CreatedAt,
	).Scan(&todo.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("owner %d: %w", todo.UserID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert todo: %w", err)
	}

	return nil
}

// GetTodo retrieves a todo by ID.
func (s *SQLStore) GetTodo(ctx context.Context, id int64) (*models.Todo, error) {
	todo := &models.Todo{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, user_id, text, complete, shared, created_at FROM todos WHERE id = ?"),
		id,
	).Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Complete, &todo.Shared, &todo.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListTodosByUser returns the user's todos in creation order.
func (s *SQLStore) ListTodosByUser(ctx context.Context, userID int64) ([]*models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT id, user_id, text, complete, shared, created_at FROM todos WHERE user_id = ? ORDER BY id"),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo := &models.Todo{}
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Complete, &todo.Shared, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// ListSharedTodos returns every shared todo with the owner's username.
func (s *SQLStore) ListSharedTodos(ctx context.Context) ([]*models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT t.id, t.user_id, t.text, t.complete, t.shared, t.created_at, u.username
		 FROM todos t JOIN users u ON u.id = t.user_id
		 WHERE t.shared = ? ORDER BY t.id`),
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo := &models.Todo{}
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Complete, &todo.Shared, &todo.CreatedAt, &todo.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared todos: %w", err)
	}
	return todos, nil
}

// SetTodoShared updates the shared flag of a todo.
func (s *SQLStore) SetTodoShared(ctx context.Context, id int64, shared bool) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE todos SET shared = ? WHERE id = ?"),
		shared, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return requireRow(res, "todo", id)
}

// DeleteTodo removes a todo by ID.
func (s *SQLStore) DeleteTodo(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return requireRow(res, "todo", id)
}

// requireRow turns a zero-row write into storage.ErrNotFound.
func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
