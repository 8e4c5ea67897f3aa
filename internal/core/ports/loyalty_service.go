package ports

import (
	"context"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

type ScanInput struct {
	UserID string
	Email  string
	// Payload is the decoded QR content. Empty for manual scans.
	Payload string
}

type ScanResult struct {
	Points           int
	NewlyAchieved    []domain.Milestone
	ResetRecommended bool
	Progress         domain.Progress
}

// Scanner applies scans. It is implemented by the loyalty service and by the
// per-user dispatcher in front of it.
type Scanner interface {
	Scan(ctx context.Context, in ScanInput) (*ScanResult, error)
}

type MilestoneStatus struct {
	domain.Milestone
	Achieved bool `json:"achieved"`
}

type UpdateProfileInput struct {
	UserID string
	Field  domain.ProfileField
	Value  string
}

type LoyaltyService interface {
	Scanner
	// Reset zeroes the balance. confirmed must be true.
	Reset(ctx context.Context, userID string, confirmed bool) (*domain.UserProfile, error)
	Milestones(ctx context.Context, userID string) ([]MilestoneStatus, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*domain.UserProfile, error)
	Progress(points int) domain.Progress
}
