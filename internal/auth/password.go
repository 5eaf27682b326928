package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/groupdo/internal/models"
	"github.com/mmynk/groupdo/internal/storage"
)

const (
	MinUsernameLength = 2
	MaxUsernameLength = 20

	// DefaultAdminUsername is the account that gets the admin role at registration.
	DefaultAdminUsername = "admin"
)

var (
	ErrDuplicateUsername = errors.New("that username is taken")
	ErrNoSuchUser        = errors.New("no such user registered")
	ErrBadCredentials    = errors.New("incorrect username or password")
	ErrInvalidUsername   = fmt.Errorf("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	ErrMissingPassword   = errors.New("password is required")
)

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage       UserStorage
	adminUsername string
	cost          int
}

// Option configures a PasswordAuthenticator.
type Option func(*PasswordAuthenticator)

// WithAdminUsername sets the username that is granted the admin role.
func WithAdminUsername(name string) Option {
	return func(a *PasswordAuthenticator) {
		if name != "" {
			a.adminUsername = name
		}
	}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(a *PasswordAuthenticator) {
		a.cost = cost
	}
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, opts ...Option) *PasswordAuthenticator {
	a := &PasswordAuthenticator{
		storage:       storage,
		adminUsername: DefaultAdminUsername,
		cost:          bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateCredential checks that a password was supplied.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrMissingPassword
	}
	return nil
}

// ValidateUsername checks the username length.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, credential string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	// Check if username already exists
	_, err := a.storage.GetUserByUsername(ctx, username)
	if err == nil {
		return nil, ErrDuplicateUsername
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := HashPassword(credential, a.cost)
	if err != nil {
		return nil, err
	}

	role := models.RoleStandard
	if username == a.adminUsername {
		role = models.RoleAdmin
	}
	user := models.NewUser(username, hash, role)

	if err := a.storage.CreateUser(ctx, user); err != nil {
		// A concurrent registration can pass the check above; the unique
		// constraint is the real guard.
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the username and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, credential) {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a candidate password in constant time.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
