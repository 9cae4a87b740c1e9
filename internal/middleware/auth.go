package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// RequireAuth verifies the caller's Firebase identity and stores the
// trainer UID in the request context. A bearer ID token is checked
// first, then the session cookie. Handlers pass the resolved UID into
// the service layer explicitly; nothing downstream reads auth state.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth not configured")
			}

			ctx := c.Request().Context()

			if header := c.Request().Header.Get("Authorization"); header != "" {
				tokenString := strings.TrimPrefix(header, "Bearer ")
				if tokenString == header {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}
				decoded, err := authClient.VerifyIDToken(ctx, tokenString)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				setIdentity(c, decoded)
				return next(c)
			}

			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			decoded, err := authClient.VerifySessionCookie(ctx, cookie.Value)
			if err != nil {
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			setIdentity(c, decoded)
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, token *auth.Token) {
	c.Set("trainerID", token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set("trainerEmail", email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set("trainerName", name)
	}
}
