package auction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/realtime-auction/internal/model"
	"github.com/iliyamo/realtime-auction/internal/repository"
)

// Store is the durable ledger the engines read and write.  It is the
// single source of truth; repository.Ledger (MySQL) and
// repository.MemoryStore implement it.  Errors follow the repository
// sentinels (ErrNotFound, ErrConflict, ErrOutbid, ErrAuctionClosed).
type Store interface {
	CreateAuction(ctx context.Context, a *model.Auction) error
	GetAuction(ctx context.Context, id string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	MarkEnded(ctx context.Context, id string, now time.Time) error

	GetBid(ctx context.Context, id string) (model.Bid, error)
	InsertBid(ctx context.Context, bid model.Bid) error
	AcceptBid(ctx context.Context, bidID string, at time.Time) (int, error)
	RejectBid(ctx context.Context, bidID string, at time.Time) (*model.Bid, error)
	HighestBid(ctx context.Context, auctionID string) (*model.Bid, error)
	CountBids(ctx context.Context, auctionID string) (int, error)
	ListBids(ctx context.Context, f repository.BidFilter) ([]model.BidWithBidder, error)

	GetUser(ctx context.Context, id string) (model.User, error)
}

// HighestBidCache is the advisory fast path for an auction's current
// price.  Implementations never return errors: a failing cache behaves
// like an empty one.  bidcache.Cache implements it.
type HighestBidCache interface {
	// Get returns the cached (or recomputed) highest amount; ok is false
	// when the auction has no qualifying bid.
	Get(ctx context.Context, auctionID string) (amount decimal.Decimal, ok bool)
	Set(ctx context.Context, auctionID string, amount decimal.Decimal, bidID string)
	// Reset stores the starting price with no associated bid.
	Reset(ctx context.Context, auctionID string, startingPrice decimal.Decimal)
	Invalidate(ctx context.Context, auctionID string)
}
