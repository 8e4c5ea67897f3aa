package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/pkg/token"
)

const identityKey = "identity"

// IdentityFrom returns the identity stored by Auth or Identify. A request that
// went through neither is Unresolved.
func IdentityFrom(c echo.Context) domain.Identity {
	if id, ok := c.Get(identityKey).(domain.Identity); ok {
		return id
	}
	return domain.Unresolved()
}

func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

func bearerToken(c echo.Context) (string, bool, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", true, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], true, nil
}

// Auth requires a valid token and stores its identity on the context.
func Auth(secret, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, present, err := bearerToken(c)
			if err != nil {
				return err
			}
			if !present {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			claims, err := token.Parse(secret, issuer, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			SetIdentity(c, claims.Identity())
			return next(c)
		}
	}
}

// Identify resolves the caller without rejecting anyone: no token, a
// malformed header or a bad token all make the caller Anonymous. Access
// decisions are left to Guard.
func Identify(secret, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := domain.Anonymous()
			if raw, present, err := bearerToken(c); present && err == nil {
				if claims, err := token.Parse(secret, issuer, raw); err == nil {
					id = claims.Identity()
				}
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}
