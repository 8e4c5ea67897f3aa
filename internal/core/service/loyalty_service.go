package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// ScanDeduplicator abstracts the replay store (Redis) for QR payloads.
type ScanDeduplicator interface {
	// Claim records digest and reports whether this is its first use.
	Claim(ctx context.Context, digest string) (bool, error)
	// Release forgets digest so the same receipt can be scanned again.
	Release(ctx context.Context, digest string) error
}

type LoyaltyService struct {
	table    *domain.MilestoneTable
	profiles ports.ProfileRepository
	scans    ports.ScanRepository
	dedup    ScanDeduplicator
	log      zerolog.Logger
	now      func() time.Time
}

// NewLoyaltyService returns the accrual use cases. dedup may be nil, in which
// case receipt payloads are not checked for replays.
func NewLoyaltyService(
	table *domain.MilestoneTable,
	profiles ports.ProfileRepository,
	scans ports.ScanRepository,
	dedup ScanDeduplicator,
	log zerolog.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		table:    table,
		profiles: profiles,
		scans:    scans,
		dedup:    dedup,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Scan applies one scan for in.UserID. The point increment is atomic in the
// store; the milestone outcome is derived from the balance the store returns.
func (s *LoyaltyService) Scan(ctx context.Context, in ports.ScanInput) (*ports.ScanResult, error) {
	digest := domain.PayloadDigest(in.Payload)

	// 1. Replay check. A broken dedup store must not block scanning.
	claimed := false
	if digest != "" && s.dedup != nil {
		first, err := s.dedup.Claim(ctx, digest)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("scan dedup check failed, processing anyway")
		case !first:
			s.log.Debug().Str("user_id", in.UserID).Str("digest", digest).Msg("duplicate scan rejected")
			return nil, domain.ErrDuplicateScan
		default:
			claimed = true
		}
	}

	// 2. Atomic +1. An account without a profile gets one first.
	now := s.now()
	updated, err := s.profiles.IncrementPoints(ctx, in.UserID, now)
	if errors.Is(err, domain.ErrProfileNotFound) {
		if _, perr := provisionProfile(ctx, s.profiles, in.UserID, in.Email, now); perr != nil {
			s.log.Warn().Err(perr).Str("user_id", in.UserID).Msg("failed to provision missing profile")
		} else {
			s.log.Info().Str("user_id", in.UserID).Msg("missing profile provisioned on scan")
			updated, err = s.profiles.IncrementPoints(ctx, in.UserID, now)
		}
	}
	if err != nil {
		if claimed {
			if relErr := s.dedup.Release(ctx, digest); relErr != nil {
				s.log.Warn().Err(relErr).Str("digest", digest).Msg("failed to release scan dedup key")
			}
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	// 3. Milestones crossed by this point.
	outcome := s.table.ApplyScan(updated.Points - 1)

	if n := len(outcome.NewlyAchieved); n > 0 {
		if err := s.profiles.AddClaimedRewards(ctx, in.UserID, n); err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("failed to update claimed rewards count")
		}
	}

	// 4. Audit trail (non-fatal).
	event := &domain.ScanEvent{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Timestamp:     now,
		PayloadDigest: digest,
	}
	if err := s.scans.Record(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("failed to record scan event")
	}

	ev := s.log.Info().Str("user_id", in.UserID).Int("points", outcome.NewPoints)
	for _, m := range outcome.NewlyAchieved {
		ev = ev.Str("milestone", m.ID)
	}
	ev.Bool("reset_recommended", outcome.ResetRecommended).Msg("scan applied")

	return &ports.ScanResult{
		Points:           outcome.NewPoints,
		NewlyAchieved:    outcome.NewlyAchieved,
		ResetRecommended: outcome.ResetRecommended,
		Progress:         s.table.Progress(outcome.NewPoints),
	}, nil
}

// Reset zeroes the balance after an explicit confirmation.
func (s *LoyaltyService) Reset(ctx context.Context, userID string, confirmed bool) (*domain.UserProfile, error) {
	if _, err := domain.Reset(confirmed); err != nil {
		return nil, err
	}

	p, err := s.profiles.ResetPoints(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("rewards reset")
	return p, nil
}

// Milestones lists the table with the caller's achieved flags. A profile that
// does not exist yet counts as zero points.
func (s *LoyaltyService) Milestones(ctx context.Context, userID string) ([]ports.MilestoneStatus, error) {
	points := 0
	p, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		points = p.Points
	case errors.Is(err, domain.ErrProfileNotFound):
	default:
		return nil, fmt.Errorf("milestones: %w", err)
	}

	all := s.table.All()
	out := make([]ports.MilestoneStatus, len(all))
	for i, m := range all {
		out[i] = ports.MilestoneStatus{Milestone: m, Achieved: points >= m.Threshold}
	}
	return out, nil
}

// UpdateProfile writes one of the user-editable fields. Anything else,
// including any admin-like field, is rejected. The phone number may be
// cleared; the name may not.
func (s *LoyaltyService) UpdateProfile(ctx context.Context, in ports.UpdateProfileInput) (*domain.UserProfile, error) {
	if !in.Field.Writable() {
		return nil, fmt.Errorf("%w: %s", domain.ErrFieldNotWritable, in.Field)
	}
	value := strings.TrimSpace(in.Value)
	if in.Field == domain.FieldName && value == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidProfileValue)
	}

	p, err := s.profiles.UpdateField(ctx, in.UserID, in.Field, value)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *LoyaltyService) Progress(points int) domain.Progress {
	return s.table.Progress(points)
}
