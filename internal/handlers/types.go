package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// requestTimeout bounds every store-touching operation; expiry surfaces
// as a timeout error rather than an open-ended hang
const requestTimeout = 10 * time.Second

// requestContext derives a bounded context for the service call
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// trainerID returns the authenticated trainer UID set by the auth middleware
func trainerID(c echo.Context) string {
	return getStringFromContext(c, "trainerID")
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

// idParam parses the :id route parameter
func idParam(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// uintQuery parses an optional numeric query parameter, 0 when absent
func uintQuery(c echo.Context, name string) uint {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	if val, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return uint(val)
	}
	return 0
}

// timeQuery parses an optional RFC3339 query parameter
func timeQuery(c echo.Context, name string) time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}
