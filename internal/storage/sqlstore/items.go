package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

// CreateItem persists a new inventory item. The group reference is enforced
// by a foreign key.
func (s *SQLStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	if item.Image == "" {
		item.Image = models.DefaultItemImage
	}

	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO items (group_id, name, quantity, image, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		item.GroupID, item.Name, item.Quantity, item.Image, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("group %d: %w", item.GroupID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// ListItemsByGroup returns a group's items in creation order.
func (s *SQLStore) ListItemsByGroup(ctx context.Context, groupID int64) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT id, group_id, name, quantity, image, created_at FROM items WHERE group_id = ? ORDER BY id"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.GroupID, &item.Name, &item.Quantity, &item.Image, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}
