package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

// MaxTodoText bounds the length of a todo's text.
const MaxTodoText = 200

// TodoService implements personal and shared todo operations.
// Every call takes the acting user explicitly.
type TodoService struct {
	store storage.TodoStore
}

// NewTodoService creates a TodoService with the given storage backend.
func NewTodoService(store storage.TodoStore) *TodoService {
	return &TodoService{store: store}
}

// ListOwn returns the user's own todos.
func (s *TodoService) ListOwn(ctx context.Context, user *models.User) ([]*models.Todo, error) {
	todos, err := s.store.ListTodosByUser(ctx, user.ID)
	if err != nil {
		slog.Error("ListOwn failed", "user_id", user.ID, "error", err)
		return nil, err
	}
	return todos, nil
}

// Add creates an unshared, incomplete todo owned by user.
func (s *TodoService) Add(ctx context.Context, user *models.User, text string) (*models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: todo text is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxTodoText {
		return nil, fmt.Errorf("%w: todo text must be at most %d characters", ErrInvalidInput, MaxTodoText)
	}

	todo := &models.Todo{
		UserID: user.ID,
		Text:   text,
	}
	if err := s.store.CreateTodo(ctx, todo); err != nil {
		slog.Error("Add todo failed", "user_id", user.ID, "error", err)
		return nil, err
	}

	metrics.EntityCreated(metrics.KindTodo)
	slog.Info("Todo created", "todo_id", todo.ID, "user_id", user.ID)
	return todo, nil
}

// Remove deletes a todo owned by user. Admins may delete any todo.
func (s *TodoService) Remove(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}

	if err := s.store.DeleteTodo(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		slog.Error("Remove todo failed", "todo_id", id, "error", err)
		return err
	}

	slog.Info("Todo removed", "todo_id", id, "user_id", user.ID)
	return nil
}

// MarkShared makes a todo visible on the shared list. Sharing an already
// shared todo succeeds without change.
func (s *TodoService) MarkShared(ctx context.Context, user *models.User, id int64) error {
	todo, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	if todo.Shared {
		return nil
	}

	if err := s.store.SetTodoShared(ctx, id, true); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		slog.Error("MarkShared failed", "todo_id", id, "error", err)
		return err
	}

	slog.Info("Todo shared", "todo_id", id, "user_id", user.ID)
	return nil
}

// ListShared returns every shared todo across all users.
func (s *TodoService) ListShared(ctx context.Context) ([]*models.Todo, error) {
	todos, err := s.store.ListSharedTodos(ctx)
	if err != nil {
		slog.Error("ListShared failed", "error", err)
		return nil, err
	}
	return todos, nil
}

// owned loads a todo and checks that user may modify it.
func (s *TodoService) owned(ctx context.Context, user *models.User, id int64) (*models.Todo, error) {
	todo, err := s.store.GetTodo(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("todo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !todo.OwnedBy(user) && !user.IsAdmin() {
		slog.Warn("Todo access denied", "todo_id", id, "user_id", user.ID, "owner_id", todo.UserID)
		return nil, fmt.Errorf("todo %d: %w", id, ErrForbidden)
	}
	return todo, nil
}
