package service

import (
	"context"
	"errors"
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// provisionProfile creates the empty profile of an account that has none,
// typically because the profile write failed at signup. If another request
// created it first, the stored profile is returned.
func provisionProfile(ctx context.Context, profiles ports.ProfileRepository, userID, email string, at time.Time) (*domain.UserProfile, error) {
	p := &domain.UserProfile{
		ID:             userID,
		Email:          email,
		CreatedAt:      at,
		LastActivityAt: at,
	}
	err := profiles.Create(ctx, p)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, domain.ErrUserExists):
		return profiles.Get(ctx, userID)
	default:
		return nil, err
	}
}
