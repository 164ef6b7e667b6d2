package middleware

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderUserEmail identifies the requesting user on report routes.
const HeaderUserEmail = "User-Email"

// ContextUserEmail is the echo context key holding the validated address.
const ContextUserEmail = "user_email"

// RequireUserEmail rejects report requests that don't carry a valid
// User-Email header and stashes the address in the context for handlers.
func RequireUserEmail() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail))
			if email == "" {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"success": false,
					"error":   "User-Email header is required",
				})
			}
			if _, err := mail.ParseAddress(email); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"success": false,
					"error":   "User-Email header is not a valid email address",
				})
			}

			c.Set(ContextUserEmail, email)
			return next(c)
		}
	}
}

// UserEmail reads the validated address stashed by RequireUserEmail.
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextUserEmail).(string)
	return email
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, User-Email, Authorization")
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
