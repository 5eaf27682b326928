package auth

import (
	"context"

	"github.com/mmynk/groupdo/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the handlers.
type Authenticator interface {
	// Register creates a new user account with the given username and credential.
	// Returns ErrDuplicateUsername if the username is taken.
	Register(ctx context.Context, username, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Returns ErrNoSuchUser for an unknown username and ErrBadCredentials for
	// a credential that does not match.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
