package models

// Todo is a single to-do entry owned by one user.
type Todo struct {
	ID     int64
	UserID int64
	Text   string

	// Complete is always false at creation; nothing in the application flips it.
	Complete bool

	// Shared makes the todo visible to every user on the shared list.
	Shared bool

	CreatedAt int64

	// Owner is the owning user's username. Only populated by queries that
	// list todos across users.
	Owner string
}

// OwnedBy reports whether the todo belongs to the given user.
func (t *Todo) OwnedBy(u *User) bool {
	return t != nil && u != nil && t.UserID == u.ID
}
