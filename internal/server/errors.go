package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/amm"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusForError maps engine error kinds to HTTP status codes. The
// error message itself is passed through so callers can correct their
// parameters.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrPoolNotFound),
		errors.Is(err, storage.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrInsufficientLiquidity),
		errors.Is(err, amm.ErrPositionNotActive):
		return http.StatusConflict
	case errors.Is(err, amm.ErrMathOverflow),
		errors.Is(err, amm.ErrInvalidSwap):
		return http.StatusUnprocessableEntity
	case errors.Is(err, amm.ErrInvalidInstructionData),
		errors.Is(err, amm.ErrInvalidTokenMint),
		errors.Is(err, amm.ErrInvalidWeights),
		errors.Is(err, amm.ErrInvalidInputLength),
		errors.Is(err, amm.ErrInvalidPoolType),
		errors.Is(err, amm.ErrInvalidPositionBounds),
		errors.Is(err, amm.ErrInvalidAmplification):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
