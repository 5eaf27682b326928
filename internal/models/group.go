package models

// Group is a named set of users that share an item inventory.
// Membership has set semantics: a user is either in the group or not.
type Group struct {
	// ID is the store-assigned identifier.
	ID int64

	// Name is the unique display name (e.g. "book-club").
	Name string

	// PasswordHash is the bcrypt hash of the join password.
	PasswordHash string

	// Members holds the usernames of the group's members, sorted.
	// Only populated by queries that load membership.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether username is in the loaded member list.
func (g *Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}
