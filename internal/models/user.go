package models

// Role is the permission level of a User.
type Role string

const (
	// RoleStandard is the role of every ordinary account.
	RoleStandard Role = "standard"

	// RoleAdmin grants access to the reporting and reset routes.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// User represents a registered user account.
type User struct {
	// ID is the store-assigned identifier.
	ID int64

	// Username is the unique login name (2-20 characters).
	Username string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role decides which routes the user may reach.
	Role Role

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NewUser returns a user ready to be persisted.
func NewUser(username, passwordHash string, role Role) *User {
	if !role.Valid() {
		role = RoleStandard
	}
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
}
