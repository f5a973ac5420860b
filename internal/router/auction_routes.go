package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/realtime-auction/internal/handler"
	"github.com/iliyamo/realtime-auction/internal/middleware"
)

// RegisterAuctions registers auction endpoints under /api/v1/auction.
// Listing and detail are public; creating an auction requires a JWT.
func RegisterAuctions(e *echo.Echo, h *handler.AuctionHandler, jwtSecret string) {
	e.GET("/api/v1/auction/all", h.List)
	e.GET("/api/v1/auction/:id", h.Get)
	e.POST("/api/v1/auction", h.Create, middleware.JWTAuth(jwtSecret))
}
