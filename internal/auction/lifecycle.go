package auction

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// Evaluate is the lazy expiry rule as a pure function.  active is true
// only for status active with now before endTime; expire is true when the
// stored status is still active but the end time has passed, meaning the
// caller should persist the transition to ended.
func Evaluate(status model.AuctionStatus, endTime, now time.Time) (active, expire bool) {
	if status != model.AuctionActive {
		return false, false
	}
	if now.Before(endTime) {
		return true, false
	}
	return false, true
}

// Lifecycle owns the auction state machine.  There is no background
// timer: expiry is detected when an auction is next read or bid on, so an
// auction nobody touches stays nominally active in storage.
type Lifecycle struct {
	store Store
	now   func() time.Time
}

// NewLifecycle returns a Lifecycle.  A nil clock defaults to UTC wall time.
func NewLifecycle(store Store, now func() time.Time) *Lifecycle {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Lifecycle{store: store, now: now}
}

// Now returns the lifecycle clock.
func (l *Lifecycle) Now() time.Time { return l.now() }

// IsActive reports whether the auction accepts bids right now.  Missing
// auctions and read failures report false.  An active auction past its
// end time is moved to ended before returning false.
func (l *Lifecycle) IsActive(ctx context.Context, auctionID string) bool {
	a, err := l.store.GetAuction(ctx, auctionID)
	if err != nil {
		if !isNotFound(err) {
			log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Error("lifecycle: load auction failed")
		}
		return false
	}
	return l.Refresh(ctx, &a)
}

// Refresh applies the expiry rule to an already loaded auction, updating
// a.Status in place when it transitions.  It returns whether the auction
// is active.  Ended and closed auctions are never written.
func (l *Lifecycle) Refresh(ctx context.Context, a *model.Auction) bool {
	now := l.now()
	active, expire := Evaluate(a.Status, a.EndTime, now)
	if expire {
		if err := l.store.MarkEnded(ctx, a.ID, now); err != nil {
			log.WithFields(log.Fields{"auction_id": a.ID, "error": err}).Error("lifecycle: mark ended failed")
		} else {
			log.WithFields(log.Fields{"auction_id": a.ID, "end_time": a.EndTime}).Info("auction ended")
		}
		a.Status = model.AuctionEnded
	}
	return active
}

// TimeRemaining is the time left before the auction stops accepting
// bids, in milliseconds, never negative.
func (l *Lifecycle) TimeRemaining(a model.Auction) int64 {
	if a.Status != model.AuctionActive {
		return 0
	}
	left := a.EndTime.Sub(l.now()).Milliseconds()
	if left < 0 {
		return 0
	}
	return left
}
