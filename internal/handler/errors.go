package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/realtime-auction/internal/auction"
)

// auctionErr reports whether err is one of the engine's user-facing errors.
func auctionErr(err error) bool {
    for _, target := range []error{
        auction.ErrNotFound, auction.ErrForbidden, auction.ErrInvalidInput, auction.ErrAuctionNotActive,
        auction.ErrBidTooLow, auction.ErrSelfBid, auction.ErrAlreadyResolved,
    } {
        if errors.Is(err, target) {
            return true
        }
    }
    return false
}

// writeError maps engine errors onto HTTP statuses.  resource names what
// was looked up so a 404 reads "bid not found" rather than "not found".
func writeError(c echo.Context, err error, resource string) error {
    switch {
    case errors.Is(err, auction.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": resource + " not found"})
    case errors.Is(err, auction.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.Is(err, auction.ErrInvalidInput),
        errors.Is(err, auction.ErrAuctionNotActive),
        errors.Is(err, auction.ErrBidTooLow),
        errors.Is(err, auction.ErrSelfBid),
        errors.Is(err, auction.ErrAlreadyResolved):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
    }
}
