package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/myrewards/loyalty-system/internal/api/metrics"
	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates the credential and the loyalty profile of a new customer.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	metrics.SignupsTotal.Inc()
	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login exchanges credentials for a token and the caller's session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// Refresh re-reads the caller's claims and issues a new token. Used after an
// admin grant or revoke so it takes effect without signing in again.
//
// @Summary      Refresh claims
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	res, err := h.authService.RefreshClaims(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAuthResponse(res))
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "disabled"
	default:
		return "error"
	}
}
