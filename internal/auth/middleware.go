package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type contextKey string

const UserKey contextKey = "user"

// Middleware requires a valid session cookie and stores its subject in the
// echo context.
func (s *Service) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
		}

		user, err := s.ParseToken(cookie.Value)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
		}

		c.Set(string(UserKey), user)
		return next(c)
	}
}

// GetUserFromContext helper to retrieve the session subject
func GetUserFromContext(c echo.Context) (string, error) {
	user, ok := c.Get(string(UserKey)).(string)
	if !ok || user == "" {
		return "", errors.New("user not found in context")
	}
	return user, nil
}

// CronMiddleware requires "Authorization: Bearer <secret>". An empty secret
// leaves the route open.
func CronMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}
			got := c.Request().Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+secret)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}
