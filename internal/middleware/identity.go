package middleware

// identity.go provides the identity key used by the rate limiter. It pulls
// the authenticated staff id stored by JWTAuth, falling back to "guest"
// for anonymous traffic so public endpoints are limited per client IP plus
// a shared guest bucket.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts an identifier for the current request's principal. It
// returns "guest" when no account is authenticated.
func userID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%.0f", id)
	case uint64:
		return fmt.Sprintf("%d", id)
	}
	return "guest"
}
