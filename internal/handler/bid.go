package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/realtime-auction/internal/auction"
    "github.com/iliyamo/realtime-auction/internal/middleware"
)

// BidHandler serves bid placement, listing and the seller's accept and
// reject actions.  All routes require a valid access token.
type BidHandler struct {
    Engine *auction.Engine
    Events auction.Broadcaster // receives advisory bidError events
}

func NewBidHandler(engine *auction.Engine, events auction.Broadcaster) *BidHandler {
    if engine == nil {
        panic("nil engine passed to NewBidHandler")
    }
    if events == nil {
        events = auction.Broadcasters(nil)
    }
    return &BidHandler{Engine: engine, Events: events}
}

type placeBidReq struct {
    AuctionID string          `json:"auctionId"`
    Amount    decimal.Decimal `json:"amount"`
}

// Place handles POST /api/v1/bid.  A rejected bid is also reported to the
// auction's room as bidError so watchers see failed attempts.
func (h *BidHandler) Place(c echo.Context) error {
    var req placeBidReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.AuctionID = strings.TrimSpace(req.AuctionID)
    res, err := h.Engine.PlaceBid(c.Request().Context(), req.AuctionID, middleware.UserID(c), req.Amount)
    if err != nil {
        if req.AuctionID != "" {
            h.Events.EmitToAuction(req.AuctionID, auction.EventBidError, auction.BidErrorPayload{
                Error:     errorMessage(err),
                AuctionID: req.AuctionID,
            })
        }
        return writeError(c, err, "auction")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":       "Bid placed successfully",
        "bid":           res.Bid,
        "currentPrice":  res.CurrentPrice,
        "previousPrice": res.PreviousPrice,
        "bidCount":      res.BidCount,
    })
}

// List handles GET /api/v1/bid.  With ?auctionId= it lists that auction's
// bids; with ?scope=placed the caller's own bids; otherwise the bids
// received on the caller's auctions.
func (h *BidHandler) List(c echo.Context) error {
    q := auction.BidQuery{AuctionID: strings.TrimSpace(c.QueryParam("auctionId"))}
    if q.AuctionID == "" {
        if c.QueryParam("scope") == "placed" {
            q.BidderID = middleware.UserID(c)
        } else {
            q.SellerID = middleware.UserID(c)
        }
    }
    listing, err := h.Engine.ListBids(c.Request().Context(), q)
    if err != nil {
        return writeError(c, err, "auction")
    }
    return c.JSON(http.StatusOK, listing)
}

// Accept handles PUT /api/v1/bid/accept/:bidId.
func (h *BidHandler) Accept(c echo.Context) error {
    res, err := h.Engine.AcceptBid(c.Request().Context(), c.Param("bidId"), middleware.UserID(c))
    if err != nil {
        return writeError(c, err, "bid")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":      "Bid accepted! Auction has ended.",
        "bid":          res.Bid,
        "auctionEnded": true,
        "rejected":     res.Rejected,
    })
}

// Reject handles PUT /api/v1/bid/reject/:bidId.
func (h *BidHandler) Reject(c echo.Context) error {
    res, err := h.Engine.RejectBid(c.Request().Context(), c.Param("bidId"), middleware.UserID(c))
    if err != nil {
        return writeError(c, err, "bid")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":       "Bid rejected",
        "bid":           res.Bid,
        "newHighestBid": res.NewHighestBid,
    })
}

func errorMessage(err error) string {
    if auctionErr(err) {
        return err.Error()
    }
    return "internal server error"
}
