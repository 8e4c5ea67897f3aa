package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
	"github.com/myrewards/loyalty-system/internal/core/report"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxWindowDays    = 366
)

type ReportService struct {
	table      *domain.MilestoneTable
	profiles   ports.ProfileRepository
	scans      ports.ScanRepository
	windowDays int
	location   *time.Location
	log        zerolog.Logger
	now        func() time.Time
}

func NewReportService(
	table *domain.MilestoneTable,
	profiles ports.ProfileRepository,
	scans ports.ScanRepository,
	windowDays int,
	location *time.Location,
	log zerolog.Logger,
) *ReportService {
	if windowDays <= 0 {
		windowDays = report.DefaultWindowDays
	}
	if location == nil {
		location = time.UTC
	}
	return &ReportService{
		table:      table,
		profiles:   profiles,
		scans:      scans,
		windowDays: windowDays,
		location:   location,
		log:        log,
		now:        time.Now,
	}
}

// Dashboard fetches every profile and the scans of the window concurrently and
// aggregates them.
func (s *ReportService) Dashboard(ctx context.Context, windowDays int) (*report.Dashboard, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	now := s.now()
	since := report.WindowStart(now, windowDays, s.location)

	var (
		users []domain.UserProfile
		scans []domain.ScanEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.profiles.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		scans, err = s.scans.ListSince(gctx, since)
		if err != nil {
			return fmt.Errorf("list scans: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	d := report.Build(s.table, users, scans, report.Options{
		Now:        now,
		WindowDays: windowDays,
		Location:   s.location,
	})
	s.log.Debug().Int("users", len(users)).Int("scans", len(scans)).Int("window_days", windowDays).Msg("dashboard built")
	return &d, nil
}

// ListUsers returns a page of profiles for the admin user table.
func (s *ReportService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	if page > ports.MaxListPage {
		page = ports.MaxListPage
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.profiles.List(ctx, ports.ListProfilesFilter{Search: in.Search, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
