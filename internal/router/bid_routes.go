package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realtime-auction/internal/handler"
	"github.com/iliyamo/realtime-auction/internal/middleware"
)

// RegisterBids registers bid endpoints under /api/v1/bid.  All routes
// require a JWT; the mutating ones also pass through limiter, which is
// typically the Redis token bucket.
func RegisterBids(e *echo.Echo, h *handler.BidHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/v1/bid", middleware.JWTAuth(jwtSecret))
	g.GET("", h.List)
	g.POST("", h.Place, limiter)
	g.PUT("/accept/:bidId", h.Accept, limiter)
	g.PUT("/reject/:bidId", h.Reject, limiter)
}

