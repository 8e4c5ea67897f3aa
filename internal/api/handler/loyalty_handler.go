package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// LoyaltyHandler serves the customer pages. Scans go through scanner, which
// in production is the per-user dispatcher in front of the loyalty service.
type LoyaltyHandler struct {
	loyalty  ports.LoyaltyService
	scanner  ports.Scanner
	sessions ports.AuthService
}

func NewLoyaltyHandler(loyalty ports.LoyaltyService, scanner ports.Scanner, sessions ports.AuthService) *LoyaltyHandler {
	if scanner == nil {
		scanner = loyalty
	}
	return &LoyaltyHandler{loyalty: loyalty, scanner: scanner, sessions: sessions}
}

// Me returns the caller's session and progress towards the next reward.
//
// @Summary      Current session
// @Tags         loyalty
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  meResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/me [get]
func (h *LoyaltyHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	s := h.sessions.Session(c.Request().Context(), id)
	resp := meResponse{Session: s}
	if s.Profile != nil {
		p := h.loyalty.Progress(s.Profile.Points)
		resp.Progress = &p
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateMe changes one writable profile field (name or phone_number).
//
// @Summary      Update profile
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Field and new value"
// @Success      200   {object}  domain.UserProfile
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/me [patch]
func (h *LoyaltyHandler) UpdateMe(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	profile, err := h.loyalty.UpdateProfile(c.Request().Context(), ports.UpdateProfileInput{
		UserID: id.UserID,
		Field:  domain.ProfileField(req.Field),
		Value:  req.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Milestones lists the reward table with the caller's achieved flags.
//
// @Summary      Milestones
// @Tags         loyalty
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  milestonesResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/milestones [get]
func (h *LoyaltyHandler) Milestones(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	ms, err := h.loyalty.Milestones(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, milestonesResponse{Milestones: ms})
}

// Scan adds one point for a scanned receipt.
//
// @Summary      Apply a scan
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      scanRequest  false  "Decoded QR payload"
// @Success      200   {object}  scanResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/scans [post]
func (h *LoyaltyHandler) Scan(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.scanner.Scan(c.Request().Context(), ports.ScanInput{UserID: id.UserID, Email: id.Email, Payload: req.Payload})
	metrics.ScansTotal.WithLabelValues(scanResult(err)).Inc()
	if err != nil {
		return err
	}

	for _, m := range res.NewlyAchieved {
		metrics.MilestonesUnlockedTotal.WithLabelValues(m.ID).Inc()
	}
	return c.JSON(http.StatusOK, scanResponse{
		Points:           res.Points,
		NewlyAchieved:    res.NewlyAchieved,
		ResetRecommended: res.ResetRecommended,
		Progress:         res.Progress,
	})
}

// Reset zeroes the caller's balance and starts a new reward journey.
//
// @Summary      Reset rewards
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      resetRequest  true  "Must be {\"confirm\":true}"
// @Success      200   {object}  resetResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/rewards/reset [post]
func (h *LoyaltyHandler) Reset(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	profile, err := h.loyalty.Reset(c.Request().Context(), id.UserID, req.Confirm)
	if err != nil {
		return err
	}

	metrics.ResetsTotal.Inc()
	return c.JSON(http.StatusOK, resetResponse{
		Points:   profile.Points,
		Progress: h.loyalty.Progress(profile.Points),
	})
}

func scanResult(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, domain.ErrDuplicateScan):
		return "duplicate"
	case errors.Is(err, domain.ErrProfileNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
