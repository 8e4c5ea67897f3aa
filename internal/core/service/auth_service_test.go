package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
	"github.com/myrewards/loyalty-system/internal/pkg/token"
)

type authFixture struct {
	creds    *stubCredentialRepo
	profiles *stubProfileRepo
	claims   *stubClaimRepo
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		creds:    newStubCredentialRepo(),
		profiles: newStubProfileRepo(),
		claims:   newStubClaimRepo(),
	}
	f.svc = NewAuthService(f.creds, f.profiles, f.claims, AuthConfig{JWTSecret: "secret", Issuer: "loyalty", TokenTTL: time.Hour}, zerolog.Nop())
	return f
}

func (f *authFixture) signup(t *testing.T, email, password string) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), ports.SignupInput{Name: "Test", Email: email, Password: password})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	return res
}

func TestAuthService_Signup_Success(t *testing.T) {
	f := newAuthFixture()

	res := f.signup(t, " Alice@Example.com ", "pass123")

	cred := f.creds.byEmail["alice@example.com"]
	if cred == nil {
		t.Fatalf("expected credential stored under normalized email")
	}
	if cred.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if res.Session.ProfileStatus != domain.ProfileLoaded || res.Session.Profile == nil {
		t.Fatalf("expected loaded profile, got %+v", res.Session)
	}
	if res.Session.Profile.Points != 0 {
		t.Fatalf("new profile must start at 0 points")
	}
	if res.Session.Identity.IsAdmin {
		t.Fatalf("new accounts must never be admins")
	}
	if _, ok := f.profiles.byID[cred.UserID]; !ok {
		t.Fatalf("expected profile keyed by user id")
	}

	claims, err := token.Parse("secret", "loyalty", res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != cred.UserID || claims.Admin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.svc.Signup(context.Background(), ports.SignupInput{Email: "", Password: "x"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Signup(context.Background(), ports.SignupInput{Email: "a@b.c", Password: ""}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	f := newAuthFixture()

	f.signup(t, "bob@example.com", "pass")
	_, err := f.svc.Signup(context.Background(), ports.SignupInput{Email: "bob@example.com", Password: "pass2"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Signup_ProfileFailureDegrades(t *testing.T) {
	f := newAuthFixture()
	f.profiles.createErr = errors.New("mongo unavailable")

	res := f.signup(t, "carol@example.com", "pass")

	if res.Token == "" {
		t.Fatalf("expected a token despite profile failure")
	}
	if res.Session.ProfileStatus != domain.ProfileUnavailable || res.Session.Profile != nil {
		t.Fatalf("expected degraded session, got %+v", res.Session)
	}
}

func TestAuthService_Signup_ProfileFailureRecoversOnLogin(t *testing.T) {
	f := newAuthFixture()
	f.profiles.createErr = errors.New("mongo unavailable")
	signed := f.signup(t, "erin@example.com", "pass")
	userID := signed.Session.Identity.UserID

	f.profiles.createErr = nil
	res, err := f.svc.Login(context.Background(), "erin@example.com", "pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Session.ProfileStatus != domain.ProfileLoaded || res.Session.Profile == nil {
		t.Fatalf("expected profile to be provisioned on login, got %+v", res.Session)
	}
	if res.Session.Profile.Email != "erin@example.com" || res.Session.Profile.Points != 0 {
		t.Fatalf("unexpected provisioned profile: %+v", res.Session.Profile)
	}

	loyalty := newLoyaltySvc(f.profiles, &stubScanRepo{}, nil)
	scan, err := loyalty.Scan(context.Background(), ports.ScanInput{UserID: userID, Email: "erin@example.com"})
	if err != nil {
		t.Fatalf("scan after recovery failed: %v", err)
	}
	if scan.Points != 1 {
		t.Fatalf("expected 1 point, got %d", scan.Points)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	signed := f.signup(t, "dave@example.com", "s3cret")

	res, err := f.svc.Login(context.Background(), "DAVE@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Session.Identity.UserID != signed.Session.Identity.UserID {
		t.Fatalf("unexpected identity: %+v", res.Session.Identity)
	}
	if res.Session.Identity.IsAdmin {
		t.Fatalf("expected non-admin")
	}
	if len(f.profiles.touched) != 1 {
		t.Fatalf("expected last activity to be touched on login")
	}
}

func TestAuthService_Login_AdminComesFromClaimStore(t *testing.T) {
	f := newAuthFixture()
	signed := f.signup(t, "erin@example.com", "pw")
	f.claims.admins[signed.Session.Identity.UserID] = true

	res, err := f.svc.Login(context.Background(), "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !res.Session.Identity.IsAdmin {
		t.Fatalf("expected admin identity")
	}
	claims, err := token.Parse("secret", "loyalty", res.Token)
	if err != nil || !claims.Admin {
		t.Fatalf("expected admin claim in token, err=%v", err)
	}
}

func TestAuthService_Login_ClaimStoreErrorFailsClosed(t *testing.T) {
	f := newAuthFixture()
	signed := f.signup(t, "frank@example.com", "pw")
	f.claims.admins[signed.Session.Identity.UserID] = true
	f.claims.err = errors.New("timeout")

	res, err := f.svc.Login(context.Background(), "frank@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Session.Identity.IsAdmin {
		t.Fatalf("expected non-admin token when claim store is unreachable")
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newAuthFixture()
	f.signup(t, "gina@example.com", "goodpass")

	if _, err := f.svc.Login(context.Background(), "gina@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Disabled(t *testing.T) {
	f := newAuthFixture()
	f.signup(t, "hank@example.com", "pw")
	f.creds.byEmail["hank@example.com"].Disabled = true

	if _, err := f.svc.Login(context.Background(), "hank@example.com", "pw"); err != domain.ErrAccountDisabled {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	f := newAuthFixture()
	f.creds.findErr = errors.New("connection refused")

	_, err := f.svc.Login(context.Background(), "ivy@example.com", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected a wrapped store error, got %v", err)
	}
}

func TestAuthService_RefreshClaims_PicksUpGrant(t *testing.T) {
	f := newAuthFixture()
	signed := f.signup(t, "jack@example.com", "pw")
	id := signed.Session.Identity

	f.claims.admins[id.UserID] = true
	res, err := f.svc.RefreshClaims(context.Background(), id)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !res.Session.Identity.IsAdmin {
		t.Fatalf("expected refreshed identity to be admin")
	}

	f.claims.admins[id.UserID] = false
	res, err = f.svc.RefreshClaims(context.Background(), res.Session.Identity)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if res.Session.Identity.IsAdmin {
		t.Fatalf("expected revoked admin claim")
	}
}

func TestAuthService_RefreshClaims_Errors(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.svc.RefreshClaims(context.Background(), domain.Anonymous()); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for anonymous, got %v", err)
	}

	f.claims.err = errors.New("timeout")
	if _, err := f.svc.RefreshClaims(context.Background(), domain.Identified("u1", "", false)); err == nil {
		t.Fatalf("expected claim store error to surface")
	}
}

func TestAuthService_Session_Degradation(t *testing.T) {
	f := newAuthFixture()
	f.profiles.seed(domain.UserProfile{ID: "u1", Name: "Kim", Points: 4})
	admin := domain.Identified("u1", "kim@example.com", true)

	s := f.svc.Session(context.Background(), admin)
	if s.ProfileStatus != domain.ProfileLoaded || s.Profile.Name != "Kim" || !s.Identity.IsAdmin {
		t.Fatalf("unexpected session: %+v", s)
	}

	f.profiles.createErr = errors.New("offline")
	s = f.svc.Session(context.Background(), domain.Identified("missing", "", true))
	if s.ProfileStatus != domain.ProfileMissing || s.Profile != nil {
		t.Fatalf("expected missing profile, got %+v", s)
	}
	if !s.Identity.IsAdmin {
		t.Fatalf("admin claim must survive a missing profile")
	}

	f.profiles.createErr = nil
	s = f.svc.Session(context.Background(), domain.Identified("missing", "m@example.com", false))
	if s.ProfileStatus != domain.ProfileLoaded || s.Profile == nil || s.Profile.Email != "m@example.com" {
		t.Fatalf("expected missing profile to be provisioned, got %+v", s)
	}

	f.profiles.getErr = errors.New("offline")
	s = f.svc.Session(context.Background(), admin)
	if s.ProfileStatus != domain.ProfileUnavailable {
		t.Fatalf("expected unavailable profile, got %s", s.ProfileStatus)
	}
	if !s.Identity.IsAdmin {
		t.Fatalf("admin claim must survive an unreachable profile store")
	}
}
