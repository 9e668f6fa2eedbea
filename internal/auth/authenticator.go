// Package auth issues bearer tokens and checks account credentials.
package auth

import (
	"context"

	"github.com/mmynk/splitty/internal/models"
)

// Authenticator verifies account credentials. Implementations decide what a
// credential is; the services only see users and errors.
type Authenticator interface {
	// Register creates an account. It fails with ErrEmailExists when the
	// email is taken and with the implementation's validation error when the
	// credential is not acceptable.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}
