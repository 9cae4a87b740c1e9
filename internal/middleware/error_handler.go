package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"coachdesk_app_echo/internal/services"
)

// errorStatus maps service-layer sentinels to HTTP status codes.
// Business-rule violations are 409/422 so clients can distinguish
// retry-after-refresh from fix-your-input.
func errorStatus(err error) int {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrLeadAlreadyConverted),
		errors.Is(err, services.ErrCheckoutAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, services.ErrInsufficientCredits),
		errors.Is(err, services.ErrOverCap),
		errors.Is(err, services.ErrNoCreditsRemaining),
		errors.Is(err, services.ErrDuplicateActiveEntitlement),
		errors.Is(err, services.ErrPackageNotUsable),
		errors.Is(err, services.ErrPackageExpired),
		errors.Is(err, services.ErrPackageInactive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CustomErrorHandler renders every error as a JSON envelope. Service
// errors keep their message verbatim; unexpected errors are masked.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "something went wrong"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	} else {
		code = errorStatus(err)
		if code != http.StatusInternalServerError {
			message = err.Error()
		}
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(code, map[string]string{"error": message}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
