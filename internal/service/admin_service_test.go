package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/models"
)

func TestDumpAll(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	env.register(t, "bob")
	admin := env.register(t, auth.DefaultAdminUsername)

	if _, err := env.groups.CreateGroup(ctx, alice, "book-club", "pw"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := env.admin.DumpAll(ctx, alice); !errors.Is(err, ErrForbidden) {
		t.Errorf("standard user: expected ErrForbidden, got %v", err)
	}

	dump, err := env.admin.DumpAll(ctx, admin)
	if err != nil {
		t.Fatalf("DumpAll failed: %v", err)
	}
	if len(dump.Users) != 3 {
		t.Errorf("expected 3 users, got %d", len(dump.Users))
	}
	if len(dump.Groups) != 1 || dump.Groups[0].Name != "book-club" {
		t.Fatalf("expected book-club in dump, got %+v", dump.Groups)
	}
	if len(dump.Groups[0].Members) != 1 || dump.Groups[0].Members[0] != "alice" {
		t.Errorf("expected alice as only member, got %v", dump.Groups[0].Members)
	}

	var sawAdmin bool
	for _, u := range dump.Users {
		if u.Username == auth.DefaultAdminUsername {
			sawAdmin = u.Role == models.RoleAdmin
		}
	}
	if !sawAdmin {
		t.Error("expected admin user with admin role in dump")
	}
}

func TestResetUsers(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	admin := env.register(t, auth.DefaultAdminUsername)

	if _, err := env.todos.Add(ctx, alice, "buy milk"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := env.groups.CreateGroup(ctx, alice, "book-club", "pw"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := env.groups.AddItem(ctx, alice, "book-club", "Dune", 1, ""); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if _, err := env.admin.ResetUsers(ctx, alice); !errors.Is(err, ErrForbidden) {
		t.Fatalf("standard user: expected ErrForbidden, got %v", err)
	}

	n, err := env.admin.ResetUsers(ctx, admin)
	if err != nil {
		t.Fatalf("ResetUsers failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 users deleted, got %d", n)
	}

	users, _ := env.store.ListUsers(ctx)
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
	shared, _ := env.todos.ListShared(ctx)
	if len(shared) != 0 {
		t.Errorf("expected todos to cascade, got %d shared", len(shared))
	}

	group, err := env.store.GetGroupByName(ctx, "book-club")
	if err != nil {
		t.Fatalf("expected group to survive reset: %v", err)
	}
	if len(group.Members) != 0 {
		t.Errorf("expected memberships to cascade, got %v", group.Members)
	}
	items, _ := env.store.ListItemsByGroup(ctx, group.ID)
	if len(items) != 1 {
		t.Errorf("expected items to survive reset, got %d", len(items))
	}

	// Usernames are free again after a reset.
	if _, err := env.auth.Register(ctx, "alice", "again"); err != nil {
		t.Errorf("re-register after reset failed: %v", err)
	}
}
