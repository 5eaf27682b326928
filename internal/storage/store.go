// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/groupdo/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("unique constraint violated")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user and fills in ID and CreatedAt.
	// Returns ErrConflict if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername returns ErrNotFound for an unknown username.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns ErrNotFound for an unknown id.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	ListUsers(ctx context.Context) ([]*models.User, error)

	// DeleteAllUsers removes every user. Todos and memberships go with them
	// through ON DELETE CASCADE. Returns the number of users removed.
	DeleteAllUsers(ctx context.Context) (int64, error)
}

// TodoStore persists todos.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *models.Todo) error
	GetTodo(ctx context.Context, id int64) (*models.Todo, error)
	ListTodosByUser(ctx context.Context, userID int64) ([]*models.Todo, error)

	// ListSharedTodos returns shared todos of all users with Owner populated.
	ListSharedTodos(ctx context.Context) ([]*models.Todo, error)

	// SetTodoShared returns ErrNotFound if the todo does not exist.
	SetTodoShared(ctx context.Context, id int64, shared bool) error

	// DeleteTodo returns ErrNotFound if the todo does not exist.
	DeleteTodo(ctx context.Context, id int64) error
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup inserts the group and adds creatorID as its first member in
	// a single transaction. Returns ErrConflict if the name is taken.
	CreateGroup(ctx context.Context, group *models.Group, creatorID int64) error

	// GetGroup and GetGroupByName load the group with Members populated.
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)

	// ListGroups returns every group with Members populated.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// ListGroupsByMember returns the groups userID belongs to.
	ListGroupsByMember(ctx context.Context, userID int64) ([]*models.Group, error)

	// AddMember is idempotent.
	AddMember(ctx context.Context, groupID, userID int64) error

	// RemoveMember reports whether a membership row was removed.
	RemoveMember(ctx context.Context, groupID, userID int64) (bool, error)

	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// ItemStore persists group inventory items.
type ItemStore interface {
	// CreateItem returns ErrNotFound if item.GroupID does not reference a group.
	CreateItem(ctx context.Context, item *models.Item) error
	ListItemsByGroup(ctx context.Context, groupID int64) ([]*models.Item, error)
}

// Store defines every storage operation the application needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	TodoStore
	GroupStore
	ItemStore

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
