package ports

import (
	"context"
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

type SignupInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// AuthResult is returned by every operation that issues a token.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Session   domain.Session
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// RefreshClaims re-reads the claim store for an already verified identity
	// and issues a new token, so a freshly granted admin right takes effect
	// without a password.
	RefreshClaims(ctx context.Context, id domain.Identity) (*AuthResult, error)
	// Session merges id with its profile. It never fails: a missing or
	// unreachable profile is reported through Session.ProfileStatus.
	Session(ctx context.Context, id domain.Identity) domain.Session
}
