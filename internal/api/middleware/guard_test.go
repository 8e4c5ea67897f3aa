package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/policy"
)

func runGuard(t *testing.T, page policy.PageClass, id *domain.Identity) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if id != nil {
		SetIdentity(c, *id)
	}

	called := false
	handler := Guard(policy.NewResolver(policy.DefaultRoutes()), page)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestGuard_Render(t *testing.T) {
	user := domain.Identified("u1", "", false)
	admin := domain.Identified("a1", "", true)

	if rec, called := runGuard(t, policy.AuthenticatedUser, &user); !called || rec.Code != http.StatusOK {
		t.Fatalf("expected user page to render for user, got %d", rec.Code)
	}
	if rec, called := runGuard(t, policy.AdminOnly, &admin); !called || rec.Code != http.StatusOK {
		t.Fatalf("expected admin page to render for admin, got %d", rec.Code)
	}
}

func TestGuard_Redirects(t *testing.T) {
	anon := domain.Anonymous()
	user := domain.Identified("u1", "", false)
	admin := domain.Identified("a1", "", true)

	cases := []struct {
		name     string
		page     policy.PageClass
		id       domain.Identity
		code     int
		location string
		notice   string
	}{
		{"anonymous on admin", policy.AdminOnly, anon, http.StatusUnauthorized, "/login", policy.NoticeAuthRequired},
		{"anonymous on user page", policy.AuthenticatedUser, anon, http.StatusUnauthorized, "/login", ""},
		{"user on admin", policy.AdminOnly, user, http.StatusForbidden, "/", policy.NoticeAccessDenied},
		{"user on public", policy.Public, user, http.StatusSeeOther, "/", ""},
		{"admin on user page", policy.AuthenticatedUser, admin, http.StatusSeeOther, "/admin", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := tc.id
			rec, called := runGuard(t, tc.page, &id)
			if called {
				t.Fatalf("next must not be called")
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if rec.Header().Get(echo.HeaderLocation) != tc.location {
				t.Fatalf("expected Location %s, got %s", tc.location, rec.Header().Get(echo.HeaderLocation))
			}
			var body RedirectResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			if body.Redirect != tc.location || body.Notice != tc.notice {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestGuard_UnresolvedIsLoading(t *testing.T) {
	rec, called := runGuard(t, policy.AuthenticatedUser, nil)
	if called {
		t.Fatalf("next must not be called while identity is unresolved")
	}
	if rec.Code != http.StatusAccepted || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 202 with Retry-After, got %d", rec.Code)
	}

	rec, called = runGuard(t, policy.Public, nil)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("public pages render while unresolved, got %d", rec.Code)
	}
}
