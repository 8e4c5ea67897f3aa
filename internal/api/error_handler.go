package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden, "this account has been disabled"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "an account with this email already exists"
	case errors.Is(err, domain.ErrDuplicateScan):
		return http.StatusConflict, "this receipt has already been scanned"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "profile not found"
	case errors.Is(err, domain.ErrFieldNotWritable):
		return http.StatusUnprocessableEntity, "only name and phone_number can be changed"
	case errors.Is(err, domain.ErrResetNotConfirmed):
		return http.StatusUnprocessableEntity, "reset must be confirmed"
	case errors.Is(err, domain.ErrInvalidProfileValue):
		return http.StatusUnprocessableEntity, "name cannot be empty"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "service is shutting down, try again"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
