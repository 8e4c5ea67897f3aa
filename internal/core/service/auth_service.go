package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
	"github.com/myrewards/loyalty-system/internal/pkg/token"
)

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// AuthService implements signup, login, claim refresh and session lookup.
type AuthService struct {
	credentials ports.CredentialRepository
	profiles    ports.ProfileRepository
	claims      ports.ClaimRepository
	cfg         AuthConfig
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	credentials ports.CredentialRepository,
	profiles ports.ProfileRepository,
	claims ports.ClaimRepository,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials: credentials,
		profiles:    profiles,
		claims:      claims,
		cfg:         cfg,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the credential and then the profile. New accounts are never
// admins. A failed profile write does not undo the signup: the session comes
// back with ProfileStatus "unavailable" and the profile is created by the next
// Session or scan.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now()
	cred := &domain.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	id := domain.Identified(cred.UserID, email, false)
	profile := &domain.UserProfile{
		ID:             cred.UserID,
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	session := domain.Session{Identity: id, Profile: profile, ProfileStatus: domain.ProfileLoaded}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.log.Warn().Err(err).Str("user_id", cred.UserID).Msg("profile create failed, continuing with degraded session")
		session = domain.Session{Identity: id, ProfileStatus: domain.ProfileUnavailable}
	}

	res, err := s.issue(session)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", cred.UserID).Msg("user signed up")
	return res, nil
}

// Login verifies the password and issues a token whose admin claim comes from
// the claim store. Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if cred.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	admin, err := s.claims.IsAdmin(ctx, cred.UserID)
	if err != nil {
		// fail closed: no admin claim without a positive answer
		s.log.Warn().Err(err).Str("user_id", cred.UserID).Msg("claim lookup failed, issuing non-admin token")
		admin = false
	}

	if err := s.profiles.TouchLastActivity(ctx, cred.UserID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("user_id", cred.UserID).Msg("failed to update last activity")
	}

	id := domain.Identified(cred.UserID, cred.Email, admin)
	return s.issue(s.Session(ctx, id))
}

// RefreshClaims re-reads the admin claim for an identity that already holds a
// valid token.
func (s *AuthService) RefreshClaims(ctx context.Context, id domain.Identity) (*ports.AuthResult, error) {
	if !id.IsIdentified() {
		return nil, domain.ErrInvalidCredentials
	}

	admin, err := s.claims.IsAdmin(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh claims: %w", err)
	}
	if admin != id.IsAdmin {
		s.log.Info().Str("user_id", id.UserID).Bool("admin", admin).Msg("admin claim changed")
	}

	return s.issue(s.Session(ctx, domain.Identified(id.UserID, id.Email, admin)))
}

// Session loads the profile for id, creating an empty one when the account has
// none. The admin flag is always taken from id, never from stored profile data.
func (s *AuthService) Session(ctx context.Context, id domain.Identity) domain.Session {
	session := domain.Session{Identity: id}
	if !id.IsIdentified() {
		session.ProfileStatus = domain.ProfileMissing
		return session
	}

	profile, err := s.profiles.Get(ctx, id.UserID)
	switch {
	case err == nil:
		session.Profile = profile
		session.ProfileStatus = domain.ProfileLoaded
	case errors.Is(err, domain.ErrProfileNotFound):
		created, perr := provisionProfile(ctx, s.profiles, id.UserID, id.Email, s.now())
		if perr != nil {
			s.log.Warn().Err(perr).Str("user_id", id.UserID).Msg("profile not found, continuing with degraded session")
			session.ProfileStatus = domain.ProfileMissing
			break
		}
		s.log.Info().Str("user_id", id.UserID).Msg("missing profile provisioned")
		session.Profile = created
		session.ProfileStatus = domain.ProfileLoaded
	default:
		s.log.Warn().Err(err).Str("user_id", id.UserID).Msg("profile store unavailable, continuing with degraded session")
		session.ProfileStatus = domain.ProfileUnavailable
	}
	return session
}

func (s *AuthService) issue(session domain.Session) (*ports.AuthResult, error) {
	signed, exp, err := token.Sign(s.cfg.JWTSecret, s.cfg.Issuer, session.Identity, s.cfg.TokenTTL, s.now())
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: signed, ExpiresAt: exp, Session: session}, nil
}
