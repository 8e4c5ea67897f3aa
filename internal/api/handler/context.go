package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/middleware"
	"github.com/myrewards/loyalty-system/internal/core/domain"
)

// ctxIdentity returns the signed-in caller. Routes behind Guard or Auth always
// have one; reaching a handler without it means the route was wired without
// the middleware, which is answered with 401 instead of acting anonymously.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id := middleware.IdentityFrom(c)
	if !id.IsIdentified() {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
