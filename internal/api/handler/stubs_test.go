package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/middleware"
	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
	"github.com/myrewards/loyalty-system/internal/core/report"
)

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	signupFn  func(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error)
	loginFn   func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	refreshFn func(ctx context.Context, id domain.Identity) (*ports.AuthResult, error)
	sessionFn func(ctx context.Context, id domain.Identity) domain.Session
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) RefreshClaims(ctx context.Context, id domain.Identity) (*ports.AuthResult, error) {
	return s.refreshFn(ctx, id)
}

func (s *stubAuthService) Session(ctx context.Context, id domain.Identity) domain.Session {
	return s.sessionFn(ctx, id)
}

type stubLoyaltyService struct {
	table *domain.MilestoneTable

	scanFn       func(ctx context.Context, in ports.ScanInput) (*ports.ScanResult, error)
	resetFn      func(ctx context.Context, userID string, confirmed bool) (*domain.UserProfile, error)
	milestonesFn func(ctx context.Context, userID string) ([]ports.MilestoneStatus, error)
	updateFn     func(ctx context.Context, in ports.UpdateProfileInput) (*domain.UserProfile, error)
}

func newStubLoyaltyService() *stubLoyaltyService {
	return &stubLoyaltyService{table: domain.MustMilestoneTable(domain.DefaultMilestones())}
}

func (s *stubLoyaltyService) Scan(ctx context.Context, in ports.ScanInput) (*ports.ScanResult, error) {
	return s.scanFn(ctx, in)
}

func (s *stubLoyaltyService) Reset(ctx context.Context, userID string, confirmed bool) (*domain.UserProfile, error) {
	return s.resetFn(ctx, userID, confirmed)
}

func (s *stubLoyaltyService) Milestones(ctx context.Context, userID string) ([]ports.MilestoneStatus, error) {
	return s.milestonesFn(ctx, userID)
}

func (s *stubLoyaltyService) UpdateProfile(ctx context.Context, in ports.UpdateProfileInput) (*domain.UserProfile, error) {
	return s.updateFn(ctx, in)
}

func (s *stubLoyaltyService) Progress(points int) domain.Progress {
	return s.table.Progress(points)
}

type stubReportService struct {
	dashboardFn func(ctx context.Context, windowDays int) (*report.Dashboard, error)
	listFn      func(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error)
}

func (s *stubReportService) Dashboard(ctx context.Context, windowDays int) (*report.Dashboard, error) {
	return s.dashboardFn(ctx, windowDays)
}

func (s *stubReportService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, in)
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withUser(c echo.Context, userID string) echo.Context {
	middleware.SetIdentity(c, domain.Identified(userID, userID+"@example.com", false))
	return c
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError with %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}
