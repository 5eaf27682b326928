package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

// UserSummary is the public part of a user, as shown in the dump.
type UserSummary struct {
	ID        int64
	Username  string
	Role      models.Role
	CreatedAt int64
}

// GroupSummary is the public part of a group, as shown in the dump.
type GroupSummary struct {
	ID        int64
	Name      string
	Members   []string
	CreatedAt int64
}

// Dump is a full listing of users and groups.
type Dump struct {
	Users  []UserSummary
	Groups []GroupSummary
}

// AdminService implements the admin-only reporting operations.
type AdminService struct {
	store storage.Store
}

// NewAdminService creates an AdminService with the given storage backend.
func NewAdminService(store storage.Store) *AdminService {
	return &AdminService{store: store}
}

// DumpAll lists every user and group. Only admins may call it.
func (s *AdminService) DumpAll(ctx context.Context, actor *models.User) (*Dump, error) {
	if !actor.IsAdmin() {
		slog.Warn("DumpAll denied", "user_id", actor.ID)
		return nil, ErrForbidden
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		slog.Error("DumpAll failed to list users", "error", err)
		return nil, err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("DumpAll failed to list groups", "error", err)
		return nil, err
	}

	dump := &Dump{
		Users:  make([]UserSummary, len(users)),
		Groups: make([]GroupSummary, len(groups)),
	}
	for i, u := range users {
		dump.Users[i] = UserSummary{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
	}
	for i, g := range groups {
		dump.Groups[i] = GroupSummary{ID: g.ID, Name: g.Name, Members: g.Members, CreatedAt: g.CreatedAt}
	}

	slog.Info("DumpAll successful", "users", len(users), "groups", len(groups))
	return dump, nil
}

// ResetUsers deletes every user together with their todos and group
// memberships. Groups and their items survive. Only admins may call it, and
// the calling admin is deleted too.
func (s *AdminService) ResetUsers(ctx context.Context, actor *models.User) (int64, error) {
	if !actor.IsAdmin() {
		slog.Warn("ResetUsers denied", "user_id", actor.ID)
		return 0, ErrForbidden
	}

	n, err := s.store.DeleteAllUsers(ctx)
	if err != nil {
		slog.Error("ResetUsers failed", "error", err)
		return 0, err
	}

	slog.Warn("User table reset", "deleted", n, "by", actor.Username)
	return n, nil
}
