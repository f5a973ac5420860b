package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/realtime-auction/internal/utils" // token parsing
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and username claims into the request context.
// The provided secret must match the one used when issuing tokens.  This
// middleware should wrap protected routes so that handlers can access the
// authenticated user via UserID(c) and Username(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            uid, username, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Downstream handlers read these through UserID and Username.
            c.Set(userIDKey, uid)
            c.Set(usernameKey, username)
            return next(c)
        }
    }
}
