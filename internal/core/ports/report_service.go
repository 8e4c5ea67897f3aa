package ports

import (
	"context"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/report"
)

type ListUsersInput struct {
	Search string
	Page   int
	Limit  int
}

type ListUsersResult struct {
	Items      []domain.UserProfile
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ReportService interface {
	// Dashboard computes the aggregate report for a trailing window of
	// windowDays days (0 selects the configured default).
	Dashboard(ctx context.Context, windowDays int) (*report.Dashboard, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}
