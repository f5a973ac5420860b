package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/realtime-auction/internal/auction"
    "github.com/iliyamo/realtime-auction/internal/middleware"
)

// AuctionHandler serves auction listings.  Reads are public; creating an
// auction requires a valid access token.
type AuctionHandler struct {
    Engine *auction.Engine
}

func NewAuctionHandler(engine *auction.Engine) *AuctionHandler {
    if engine == nil {
        panic("nil engine passed to NewAuctionHandler")
    }
    return &AuctionHandler{Engine: engine}
}

type createAuctionReq struct {
    Name          string          `json:"name"`
    Description   string          `json:"description"`
    StartingPrice decimal.Decimal `json:"startingPrice"`
    Duration      int             `json:"duration"` // minutes
}

// Create handles POST /api/v1/auction.
func (h *AuctionHandler) Create(c echo.Context) error {
    var req createAuctionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    a, err := h.Engine.CreateAuction(c.Request().Context(), middleware.UserID(c), auction.NewAuction{
        Name:          req.Name,
        Description:   req.Description,
        StartingPrice: req.StartingPrice,
        Duration:      req.Duration,
    })
    if err != nil {
        return writeError(c, err, "auction")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Auction created successfully",
        "auction": a,
    })
}

// List handles GET /api/v1/auction/all.  Auctions past their end time are
// reported as ended.
func (h *AuctionHandler) List(c echo.Context) error {
    auctions, err := h.Engine.ListAuctions(c.Request().Context())
    if err != nil {
        return writeError(c, err, "auction")
    }
    return c.JSON(http.StatusOK, echo.Map{"auctions": auctions})
}

// Get handles GET /api/v1/auction/:id.
func (h *AuctionHandler) Get(c echo.Context) error {
    a, err := h.Engine.GetAuction(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err, "auction")
    }
    return c.JSON(http.StatusOK, echo.Map{"auction": a})
}
