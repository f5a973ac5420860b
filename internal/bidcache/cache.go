// Package bidcache keeps each auction's current highest bid in a fast
// key/value store.  The cache is advisory: the ledger stays the source of
// truth, every entry expires, and a miss is answered by recomputing from
// the ledger.  Backend failures are logged and behave like misses.
package bidcache

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// DefaultTTL is the lifetime of a cached highest bid.
const DefaultTTL = 300 * time.Second

// AmountKey is the key of the cached highest amount of an auction.
func AmountKey(auctionID string) string { return "auction:" + auctionID + ":highest_bid" }

// BidIDKey is the key of the cached highest bid id of an auction.
func BidIDKey(auctionID string) string { return "auction:" + auctionID + ":highest_bid_id" }

// Backend is the key/value store under the cache.  Get reports a missing
// key with ok == false and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Loader recomputes the highest bid on a miss.  It returns nil when the
// auction has no pending or accepted bid.
type Loader interface {
	HighestBid(ctx context.Context, auctionID string) (*model.Bid, error)
}

// Cache is a read-through highest-bid cache.
type Cache struct {
	backend Backend
	loader  Loader
	ttl     time.Duration
}

// New returns a Cache over backend.  loader may be nil, in which case a
// miss stays a miss.  A non-positive ttl means DefaultTTL.
func New(backend Backend, loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{backend: backend, loader: loader, ttl: ttl}
}

// Get returns the highest amount for the auction.  On a miss the ledger
// is consulted and the result written back; ok is false when there is no
// qualifying bid or the ledger read failed.
func (c *Cache) Get(ctx context.Context, auctionID string) (decimal.Decimal, bool) {
	v, ok, err := c.backend.Get(ctx, AmountKey(auctionID))
	switch {
	case err != nil:
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: get failed")
	case ok:
		if amount, perr := decimal.NewFromString(v); perr == nil {
			return amount, true
		}
		log.WithFields(log.Fields{"auction_id": auctionID, "value": v}).Warn("bidcache: unreadable entry")
	}
	if c.loader == nil {
		return decimal.Decimal{}, false
	}
	bid, err := c.loader.HighestBid(ctx, auctionID)
	if err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Error("bidcache: recompute failed")
		return decimal.Decimal{}, false
	}
	if bid == nil {
		return decimal.Decimal{}, false
	}
	c.Set(ctx, auctionID, bid.Amount, bid.ID)
	return bid.Amount, true
}

// BidID returns the cached highest bid id without consulting the ledger.
// It is empty after Reset.
func (c *Cache) BidID(ctx context.Context, auctionID string) (string, bool) {
	v, ok, err := c.backend.Get(ctx, BidIDKey(auctionID))
	if err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: get bid id failed")
		return "", false
	}
	return v, ok
}

// Set records amount and bidID as the auction's highest bid.
func (c *Cache) Set(ctx context.Context, auctionID string, amount decimal.Decimal, bidID string) {
	if err := c.backend.SetEx(ctx, AmountKey(auctionID), amount.StringFixed(2), c.ttl); err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: set failed")
		return
	}
	if err := c.backend.SetEx(ctx, BidIDKey(auctionID), bidID, c.ttl); err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: set bid id failed")
		// a half-written entry must not outlive the failure
		c.Invalidate(ctx, auctionID)
	}
}

// Reset stores the starting price with no associated bid.
func (c *Cache) Reset(ctx context.Context, auctionID string, startingPrice decimal.Decimal) {
	if err := c.backend.Del(ctx, BidIDKey(auctionID)); err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: clear bid id failed")
	}
	if err := c.backend.SetEx(ctx, AmountKey(auctionID), startingPrice.StringFixed(2), c.ttl); err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: reset failed")
	}
}

// Invalidate drops both keys so the next Get recomputes from the ledger.
func (c *Cache) Invalidate(ctx context.Context, auctionID string) {
	if err := c.backend.Del(ctx, AmountKey(auctionID), BidIDKey(auctionID)); err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("bidcache: invalidate failed")
	}
}
