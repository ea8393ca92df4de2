// Package identity wraps the external identity provider: account creation,
// password verification and the federated sign-in call. Provider failures
// are reported as tagged errors so callers can switch on them instead of
// matching message strings.
package identity

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("password not strong enough")
	ErrOperationNotAllowed = errors.New("operation not allowed")
	ErrEmailNotFound       = errors.New("email not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrTooManyAttempts     = errors.New("too many attempts")
)

// UpstreamError carries a structured provider error message through to the
// handler, which passes it on at 400. Anything non-structured becomes a 500.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identity provider: %s", e.Message)
}

type CreateAccountRequest struct {
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
}

// FederatedIdentity is the result of exchanging an OAuth credential for a
// provider-verified identity.
type FederatedIdentity struct {
	SubjectID   string
	Email       string
	DisplayName string
	PhotoURL    string
	IsNewUser   bool
}

type Provider interface {
	// CreateAccount registers a new email/password account and returns its uid.
	CreateAccount(ctx context.Context, req CreateAccountRequest) (string, error)

	// VerifyPassword checks an email/password pair and returns the account uid.
	VerifyPassword(ctx context.Context, email, password string) (string, error)

	// SignInWithIdP exchanges an external provider's access credential for a
	// federated identity.
	SignInWithIdP(ctx context.Context, providerID, accessToken string) (*FederatedIdentity, error)

	// SendPasswordReset asks the provider to email a password reset link.
	SendPasswordReset(ctx context.Context, email string) error
}
