package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/core/ports"
)

type AdminHandler struct {
	reports ports.ReportService
}

func NewAdminHandler(reports ports.ReportService) *AdminHandler {
	return &AdminHandler{reports: reports}
}

// Dashboard returns the aggregate report over a trailing window.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        window  query     int  false  "Window in days (default 7)"
// @Success      200     {object}  report.Dashboard
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	var window int
	if err := echo.QueryParamsBinder(c).Int("window", &window).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "window must be a number of days")
	}
	if window < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "window must be a number of days")
	}

	d, err := h.reports.Dashboard(c.Request().Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Users returns a page of the user table, newest first.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Param        search  query     string  false  "Name or email contains"
// @Success      200     {object}  usersResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	var in ports.ListUsersInput
	err := echo.QueryParamsBinder(c).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		String("search", &in.Search).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and limit must be numbers")
	}

	res, err := h.reports.ListUsers(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUsersResponse(res))
}
