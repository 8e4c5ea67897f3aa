package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/core/policy"
)

// RedirectResponse is the body of every non-render policy outcome.
type RedirectResponse struct {
	Redirect string        `json:"redirect,omitempty"`
	Reason   policy.Reason `json:"reason,omitempty"`
	Notice   string        `json:"notice,omitempty"`
}

// Guard consults the resolver for the route group's page class and either
// lets the request through or answers with the redirect.
func Guard(resolver *policy.Resolver, page policy.PageClass) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := resolver.Resolve(IdentityFrom(c), page)
			metrics.PolicyDecisionsTotal.WithLabelValues(string(page), string(d.Action)).Inc()

			if d.Action == policy.Render {
				return next(c)
			}
			return WriteDecision(c, d)
		}
	}
}

// WriteDecision renders a Loading or Redirect decision as an HTTP response.
//
//	loading              202 + Retry-After
//	sign in required     401 + Location
//	access denied        403 + Location
//	role home            303 + Location
func WriteDecision(c echo.Context, d policy.Decision) error {
	if d.Action == policy.Loading {
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusAccepted, RedirectResponse{Notice: "identity not resolved yet"})
	}

	status := http.StatusSeeOther
	switch d.Reason {
	case policy.ReasonSignInRequired:
		status = http.StatusUnauthorized
	case policy.ReasonAccessDenied:
		status = http.StatusForbidden
	}
	c.Response().Header().Set(echo.HeaderLocation, d.Target)
	return c.JSON(status, RedirectResponse{Redirect: d.Target, Reason: d.Reason, Notice: d.Notice})
}
