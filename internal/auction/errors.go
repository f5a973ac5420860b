package auction

import "errors"

// Business errors returned by the engines.  Callers match them with
// errors.Is; the wrapped message is safe to show to users.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAuctionNotActive = errors.New("auction is not active or has ended")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrSelfBid          = errors.New("you cannot bid on your own auction")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyResolved  = errors.New("bid already resolved")
	ErrInternal         = errors.New("internal error")
)
