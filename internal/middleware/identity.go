package middleware

// identity.go defines helpers shared by middleware and handlers for reading
// the authenticated user that JWTAuth stored in the Echo context.

import "github.com/labstack/echo/v4"

const (
    userIDKey   = "user_id"
    usernameKey = "username"
)

// UserID returns the authenticated user's ID, or "" when the request did
// not pass through JWTAuth.
func UserID(c echo.Context) string {
    if v, ok := c.Get(userIDKey).(string); ok {
        return v
    }
    return ""
}

// Username returns the authenticated user's name from the token claims.
func Username(c echo.Context) string {
    if v, ok := c.Get(usernameKey).(string); ok {
        return v
    }
    return ""
}
