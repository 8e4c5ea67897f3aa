package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/api/middleware"
	"github.com/myrewards/loyalty-system/internal/core/policy"
)

// NavigationHandler lets a front end ask where a path leads for the current
// caller before rendering it.
type NavigationHandler struct {
	resolver *policy.Resolver
}

func NewNavigationHandler(resolver *policy.Resolver) *NavigationHandler {
	return &NavigationHandler{resolver: resolver}
}

// Resolve classifies path and returns the access decision for the caller.
//
// @Summary      Resolve navigation
// @Tags         navigation
// @Produce      json
// @Param        path  query     string  true  "Front-end path, e.g. /admin"
// @Success      200   {object}  navigationResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/navigation [get]
func (h *NavigationHandler) Resolve(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	class := h.resolver.Classify(path)
	d := h.resolver.Resolve(middleware.IdentityFrom(c), class)
	metrics.PolicyDecisionsTotal.WithLabelValues(string(class), string(d.Action)).Inc()

	return c.JSON(http.StatusOK, navigationResponse{Path: path, PageClass: class, Decision: d})
}
