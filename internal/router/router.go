package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/realtime-auction/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/realtime-auction/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterRealtime mounts the WebSocket endpoint.  The socket is public;
// clients only receive events.
func RegisterRealtime(e *echo.Echo, ws echo.HandlerFunc) {
	e.GET("/ws", ws)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under
// /api/v1/auth, while the profile endpoint requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/v1/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body or a Bearer token, so it
	// stays outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
