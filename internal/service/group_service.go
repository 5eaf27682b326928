package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

const (
	MinGroupNameLength = 2
	MaxGroupNameLength = 40
	MaxItemNameLength  = 100
)

// GroupService implements group membership and group inventory operations.
type GroupService struct {
	store storage.Store
	cost  int
}

// GroupView is a group together with its inventory.
type GroupView struct {
	Group *models.Group
	Items []*models.Item
}

// GroupOption configures a GroupService.
type GroupOption func(*GroupService)

// WithPasswordCost overrides the bcrypt cost used for group passwords.
func WithPasswordCost(cost int) GroupOption {
	return func(s *GroupService) {
		s.cost = cost
	}
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...GroupOption) *GroupService {
	s := &GroupService{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup creates a group with creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creator *models.User, name, password string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	slog.Info("CreateGroup request received", "name", name, "creator_id", creator.ID)

	if n := utf8.RuneCountInString(name); n < MinGroupNameLength || n > MaxGroupNameLength {
		return nil, fmt.Errorf("%w: group name must be %d to %d characters", ErrInvalidInput, MinGroupNameLength, MaxGroupNameLength)
	}
	if strings.ContainsAny(name, "/?#%") {
		return nil, fmt.Errorf("%w: group name may not contain / ? # or %%", ErrInvalidInput)
	}
	if p := "/mygroups/" + name; path.Clean(p) != p {
		return nil, fmt.Errorf("%w: group name may not be . or ..", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: group password is required", ErrInvalidInput)
	}

	if _, err := s.store.GetGroupByName(ctx, name); err == nil {
		return nil, ErrDuplicateGroupName
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, PasswordHash: hash}
	if err := s.store.CreateGroup(ctx, group, creator.ID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrDuplicateGroupName
		}
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, err
	}

	metrics.EntityCreated(metrics.KindGroup)
	slog.Info("Group created", "group_id", group.ID, "name", group.Name)
	return group, nil
}

// AddMember adds the user named username to the group and returns the
// updated group. The actor must be a member of the group or an admin. Adding
// an existing member changes nothing.
func (s *GroupService) AddMember(ctx context.Context, actor *models.User, groupID int64, username string) (*models.Group, error) {
	group, err := s.memberGroupByID(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddMember(ctx, group.ID, user.ID); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "user_id", user.ID, "error", err)
		return nil, err
	}

	slog.Info("Member added", "group_id", group.ID, "user", user.Username, "by", actor.Username)
	return s.store.GetGroup(ctx, group.ID)
}

// RemoveMember removes the user named username from the group and returns
// the updated group. Removing a user who is not a member is a no-op.
func (s *GroupService) RemoveMember(ctx context.Context, actor *models.User, groupID int64, username string) (*models.Group, error) {
	group, err := s.memberGroupByID(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	removed, err := s.store.RemoveMember(ctx, group.ID, user.ID)
	if err != nil {
		slog.Error("RemoveMember failed", "group_id", group.ID, "user_id", user.ID, "error", err)
		return nil, err
	}

	slog.Info("Member removal", "group_id", group.ID, "user", user.Username, "removed", removed, "by", actor.Username)
	return s.store.GetGroup(ctx, group.ID)
}

// ListMyGroups returns the groups user belongs to.
func (s *GroupService) ListMyGroups(ctx context.Context, user *models.User) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByMember(ctx, user.ID)
	if err != nil {
		slog.Error("ListMyGroups failed", "user_id", user.ID, "error", err)
		return nil, err
	}
	return groups, nil
}

// JoinGroup adds user to the named group if password matches the group's
// join password.
func (s *GroupService) JoinGroup(ctx context.Context, user *models.User, name, password string) (*models.Group, error) {
	group, err := s.groupByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(group.PasswordHash, password) {
		slog.Warn("Join denied", "group_id", group.ID, "user_id", user.ID)
		return nil, ErrBadGroupPassword
	}

	if err := s.store.AddMember(ctx, group.ID, user.ID); err != nil {
		slog.Error("JoinGroup failed", "group_id", group.ID, "user_id", user.ID, "error", err)
		return nil, err
	}

	slog.Info("Group joined", "group_id", group.ID, "user", user.Username)
	return s.groupByName(ctx, group.Name)
}

// ViewGroup returns the named group with its items. Only members and admins
// may view a group.
func (s *GroupService) ViewGroup(ctx context.Context, actor *models.User, name string) (*GroupView, error) {
	group, err := s.memberGroupByName(ctx, actor, name)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItemsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return &GroupView{Group: group, Items: items}, nil
}

// AddItem adds an inventory item to the named group. The group must exist;
// image falls back to models.DefaultItemImage.
func (s *GroupService) AddItem(ctx context.Context, actor *models.User, groupName, name string, quantity int, image string) (*models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxItemNameLength {
		return nil, fmt.Errorf("%w: item name must be 1 to %d characters", ErrInvalidInput, MaxItemNameLength)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity may not be negative", ErrInvalidInput)
	}

	group, err := s.memberGroupByName(ctx, actor, groupName)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		GroupID:  group.ID,
		Name:     name,
		Quantity: quantity,
		Image:    strings.TrimSpace(image),
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("group %q: %w", groupName, ErrNotFound)
		}
		slog.Error("AddItem failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	metrics.EntityCreated(metrics.KindItem)
	slog.Info("Item added", "item_id", item.ID, "group_id", group.ID, "by", actor.Username)
	return item, nil
}

// ListItems returns the items of the named group.
func (s *GroupService) ListItems(ctx context.Context, actor *models.User, groupName string) ([]*models.Item, error) {
	view, err := s.ViewGroup(ctx, actor, groupName)
	if err != nil {
		return nil, err
	}
	return view.Items, nil
}

func (s *GroupService) groupByName(ctx context.Context, name string) (*models.Group, error) {
	group, err := s.store.GetGroupByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	return group, err
}

func (s *GroupService) memberGroupByName(ctx context.Context, actor *models.User, name string) (*models.Group, error) {
	group, err := s.groupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return group, s.authorize(ctx, actor, group)
}

func (s *GroupService) memberGroupByID(ctx context.Context, actor *models.User, id int64) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return group, s.authorize(ctx, actor, group)
}

// authorize allows members of the group and admins.
func (s *GroupService) authorize(ctx context.Context, actor *models.User, group *models.Group) error {
	if actor.IsAdmin() {
		return nil
	}
	ok, err := s.store.IsMember(ctx, group.ID, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("Group access denied", "group_id", group.ID, "user_id", actor.ID)
		return fmt.Errorf("group %q: %w", group.Name, ErrForbidden)
	}
	return nil
}

func (s *GroupService) lookupUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%q: %w", username, ErrNoSuchUser)
	}
	return user, err
}
