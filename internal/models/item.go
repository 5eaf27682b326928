package models

// DefaultItemImage is stored when an item is created without an image path.
const DefaultItemImage = "default.png"

// Item is an inventory entry belonging to one group.
type Item struct {
	ID       int64
	GroupID  int64
	Name     string
	Quantity int
	Image    string

	CreatedAt int64
}
