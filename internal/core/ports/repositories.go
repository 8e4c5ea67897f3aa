package ports

import (
	"context"
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

// CredentialRepository stores sign-in records.
type CredentialRepository interface {
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, c *domain.Credential) error
	// FindByEmail returns domain.ErrUserNotFound for unknown emails.
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

// ClaimRepository is the trust-elevated store behind the admin claim. Only the
// out-of-band grant command writes to it.
type ClaimRepository interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	SetAdmin(ctx context.Context, userID string, admin bool, grantedBy string) error
}

// MaxListPage is the highest page the admin user table serves.
const MaxListPage = 1_000_000

// ListProfilesFilter carries the admin user table query.
type ListProfilesFilter struct {
	Search string // optional: partial match on name or email
	Page   int    // 1-based
	Limit  int
}

// ProfileRepository persists loyalty profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.UserProfile) error
	// Get returns domain.ErrProfileNotFound when no profile exists yet.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	// UpdateField writes one user-editable field. Callers must check
	// field.Writable first.
	UpdateField(ctx context.Context, userID string, field domain.ProfileField, value string) (*domain.UserProfile, error)

	// IncrementPoints atomically adds one point and one visit and returns the
	// updated profile.
	IncrementPoints(ctx context.Context, userID string, at time.Time) (*domain.UserProfile, error)
	ResetPoints(ctx context.Context, userID string, at time.Time) (*domain.UserProfile, error)
	AddClaimedRewards(ctx context.Context, userID string, n int) error
	TouchLastActivity(ctx context.Context, userID string, at time.Time) error

	ListAll(ctx context.Context) ([]domain.UserProfile, error)
	// List returns a page of profiles, newest first, and the total count.
	List(ctx context.Context, filter ListProfilesFilter) ([]domain.UserProfile, int64, error)
}

// ScanRepository is the append-only scan event store.
type ScanRepository interface {
	Record(ctx context.Context, e *domain.ScanEvent) error
	ListSince(ctx context.Context, since time.Time) ([]domain.ScanEvent, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
