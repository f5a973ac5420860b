package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/realtime-auction/internal/model"
	"github.com/iliyamo/realtime-auction/internal/repository"
)

// Engine admits bids and runs the accept/reject transitions.  Within one
// call the ledger write always happens before the cache update, and the
// cache update before any broadcast; nothing is emitted for a failed write.
type Engine struct {
	store     Store
	lifecycle *Lifecycle
	cache     HighestBidCache
	events    Broadcaster
	newID     func() string
}

// NewEngine wires the engine.  A nil broadcaster drops all events.
func NewEngine(store Store, lifecycle *Lifecycle, cache HighestBidCache, events Broadcaster) *Engine {
	if events == nil {
		events = Broadcasters(nil)
	}
	return &Engine{
		store:     store,
		lifecycle: lifecycle,
		cache:     cache,
		events:    events,
		newID:     uuid.NewString,
	}
}

// PlaceBidResult is returned by PlaceBid.
type PlaceBidResult struct {
	Bid           model.BidWithBidder
	CurrentPrice  decimal.Decimal
	PreviousPrice decimal.Decimal
	BidCount      int
}

// AcceptResult is returned by AcceptBid.
type AcceptResult struct {
	Bid      model.BidWithBidder
	Rejected int // competing pending bids rejected by the acceptance
}

// RejectResult is returned by RejectBid.
type RejectResult struct {
	Bid           model.BidWithBidder
	NewHighestBid HighestBid
}

// PlaceBid validates and records a new pending bid.  The amount must
// strictly exceed the current price, which is the cached highest bid or
// the starting price; an amount the cache refuses is confirmed against
// the ledger before it is rejected.  The ledger repeats that check under the auction
// row lock, so of two racing bids only one can win a given price level.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (PlaceBidResult, error) {
	if auctionID == "" || bidderID == "" {
		return PlaceBidResult{}, fmt.Errorf("%w: auction ID and amount are required", ErrInvalidInput)
	}
	amount = NormalizeAmount(amount)
	if !amount.IsPositive() {
		return PlaceBidResult{}, fmt.Errorf("%w: bid amount must be positive", ErrInvalidInput)
	}
	if !e.lifecycle.IsActive(ctx, auctionID) {
		return PlaceBidResult{}, ErrAuctionNotActive
	}
	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return PlaceBidResult{}, e.storeFailure("place bid: load auction", err)
	}
	if bidderID == a.SellerID {
		return PlaceBidResult{}, ErrSelfBid
	}
	previous := e.currentPrice(ctx, a)
	if !Exceeds(amount, previous) {
		// a reject can land between another bid's insert and its cache
		// write, leaving the cache above the ledger; the ledger decides
		floor, err := e.ledgerPrice(ctx, a)
		if err != nil {
			return PlaceBidResult{}, err
		}
		if !Exceeds(amount, floor) {
			return PlaceBidResult{}, fmt.Errorf("%w: bid must be higher than current price of %s", ErrBidTooLow, FormatPrice(floor))
		}
		previous = floor
	}

	now := e.lifecycle.Now()
	bid := model.Bid{
		ID:        e.newID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    model.BidPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.InsertBid(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrOutbid) {
			// the cached price was stale; let the next read recompute it
			e.cache.Invalidate(ctx, auctionID)
			return PlaceBidResult{}, fmt.Errorf("%w: a higher bid was placed first", ErrBidTooLow)
		}
		return PlaceBidResult{}, e.storeFailure("place bid: insert", err)
	}
	e.cache.Set(ctx, auctionID, amount, bid.ID)

	view := model.BidWithBidder{Bid: bid, Bidder: e.userRef(ctx, bidderID)}
	count := e.bidCount(ctx, auctionID)
	e.events.EmitToAuction(auctionID, EventNewBid, NewBidPayload{
		Bid:           view,
		CurrentPrice:  amount,
		PreviousPrice: previous,
		AuctionID:     auctionID,
		Timestamp:     now,
		BidCount:      count,
	})
	e.events.EmitGlobal(EventBidUpdate, BidUpdatePayload{
		ID:            bid.ID,
		AuctionID:     auctionID,
		AuctionName:   a.Name,
		CurrentPrice:  amount,
		PreviousPrice: previous,
		Bidder:        view.Bidder,
		Timestamp:     now,
		BidCount:      count,
	})
	log.WithFields(log.Fields{
		"auction_id": auctionID,
		"bid_id":     bid.ID,
		"bidder_id":  bidderID,
		"amount":     amount.String(),
		"previous":   previous.String(),
	}).Info("bid placed")

	return PlaceBidResult{Bid: view, CurrentPrice: amount, PreviousPrice: previous, BidCount: count}, nil
}

// AcceptBid lets the seller accept a pending bid.  Every other pending bid
// on the auction is rejected and the auction closes immediately.
func (e *Engine) AcceptBid(ctx context.Context, bidID, actingUserID string) (AcceptResult, error) {
	bid, a, err := e.resolvable(ctx, bidID, actingUserID)
	if err != nil {
		return AcceptResult{}, err
	}
	now := e.lifecycle.Now()
	rejected, err := e.store.AcceptBid(ctx, bid.ID, now)
	if err != nil {
		return AcceptResult{}, e.storeFailure("accept bid", err)
	}
	bid.Status = model.BidAccepted
	bid.AcceptedAt = &now
	bid.UpdatedAt = now
	e.cache.Set(ctx, a.ID, bid.Amount, bid.ID)

	view := model.BidWithBidder{Bid: bid, Bidder: e.userRef(ctx, bid.BidderID)}
	e.events.EmitToAuction(a.ID, EventBidAccepted, BidAcceptedPayload{
		Bid:          view,
		Message:      "Bid accepted! Auction has ended.",
		Timestamp:    now,
		AuctionEnded: true,
	})
	e.events.EmitGlobal(EventAuctionEnded, AuctionEndedPayload{
		AuctionID:    a.ID,
		WinningBid:   bid.Amount,
		Winner:       view.Bidder,
		AuctionTitle: a.Name,
		Timestamp:    now,
	})
	log.WithFields(log.Fields{
		"auction_id": a.ID,
		"bid_id":     bid.ID,
		"winner_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
		"rejected":   rejected,
	}).Info("bid accepted, auction closed")

	return AcceptResult{Bid: view, Rejected: rejected}, nil
}

// RejectBid lets the seller reject a pending bid.  The auction stays open
// and the highest remaining pending bid becomes the leader; with none
// left the price falls back to the starting price.
func (e *Engine) RejectBid(ctx context.Context, bidID, actingUserID string) (RejectResult, error) {
	bid, a, err := e.resolvable(ctx, bidID, actingUserID)
	if err != nil {
		return RejectResult{}, err
	}
	now := e.lifecycle.Now()
	next, err := e.store.RejectBid(ctx, bid.ID, now)
	if err != nil {
		return RejectResult{}, e.storeFailure("reject bid", err)
	}
	bid.Status = model.BidRejected
	bid.RejectedAt = &now
	bid.UpdatedAt = now

	highest := HighestBid{Amount: a.StartingPrice}
	if next != nil {
		id := next.ID
		highest = HighestBid{BidID: &id, Amount: next.Amount}
		e.cache.Set(ctx, a.ID, next.Amount, next.ID)
	} else {
		e.cache.Reset(ctx, a.ID, a.StartingPrice)
	}

	view := model.BidWithBidder{Bid: bid, Bidder: e.userRef(ctx, bid.BidderID)}
	e.events.EmitToAuction(a.ID, EventBidRejected, BidRejectedPayload{
		Bid:           view,
		Message:       "Bid rejected",
		Timestamp:     now,
		NewHighestBid: highest,
	})
	e.events.EmitToAuction(a.ID, EventPriceUpdate, PriceUpdatePayload{
		AuctionID:    a.ID,
		CurrentPrice: highest.Amount,
		HighestBidID: highest.BidID,
		Timestamp:    now,
	})
	log.WithFields(log.Fields{
		"auction_id": a.ID,
		"bid_id":     bid.ID,
		"new_price":  highest.Amount.String(),
	}).Info("bid rejected")

	return RejectResult{Bid: view, NewHighestBid: highest}, nil
}

// resolvable runs the checks shared by accept and reject, in order: the
// bid exists, the actor is the seller, the bid is pending and the auction
// is still active.
func (e *Engine) resolvable(ctx context.Context, bidID, actingUserID string) (model.Bid, model.Auction, error) {
	if bidID == "" {
		return model.Bid{}, model.Auction{}, fmt.Errorf("%w: bid ID is required", ErrInvalidInput)
	}
	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return model.Bid{}, model.Auction{}, e.storeFailure("load bid", err)
	}
	a, err := e.store.GetAuction(ctx, bid.AuctionID)
	if err != nil {
		return model.Bid{}, model.Auction{}, e.storeFailure("load auction", err)
	}
	if a.SellerID != actingUserID {
		return model.Bid{}, model.Auction{}, fmt.Errorf("%w: only the seller can resolve bids on this auction", ErrForbidden)
	}
	if bid.Status != model.BidPending {
		return model.Bid{}, model.Auction{}, fmt.Errorf("%w: bid is already %s", ErrAlreadyResolved, bid.Status)
	}
	if !e.lifecycle.Refresh(ctx, &a) {
		return model.Bid{}, model.Auction{}, ErrAuctionNotActive
	}
	return bid, a, nil
}

// currentPrice is the cached highest bid or, without one, the starting price.
func (e *Engine) currentPrice(ctx context.Context, a model.Auction) decimal.Decimal {
	if amount, ok := e.cache.Get(ctx, a.ID); ok {
		return amount
	}
	return a.StartingPrice
}

// ledgerPrice reads the current price from the ledger and writes it back
// to the cache.
func (e *Engine) ledgerPrice(ctx context.Context, a model.Auction) (decimal.Decimal, error) {
	top, err := e.store.HighestBid(ctx, a.ID)
	if err != nil {
		return decimal.Decimal{}, e.storeFailure("place bid: highest bid", err)
	}
	if top == nil {
		e.cache.Reset(ctx, a.ID, a.StartingPrice)
		return a.StartingPrice, nil
	}
	e.cache.Set(ctx, a.ID, top.Amount, top.ID)
	return top.Amount, nil
}

func (e *Engine) userRef(ctx context.Context, id string) model.UserRef {
	u, err := e.store.GetUser(ctx, id)
	if err != nil {
		log.WithFields(log.Fields{"user_id": id, "error": err}).Warn("load user failed")
		return model.UserRef{ID: id}
	}
	return u.Ref()
}

func (e *Engine) bidCount(ctx context.Context, auctionID string) int {
	n, err := e.store.CountBids(ctx, auctionID)
	if err != nil {
		log.WithFields(log.Fields{"auction_id": auctionID, "error": err}).Warn("count bids failed")
		return 0
	}
	return n
}

// storeFailure maps ledger errors onto the engine's error taxonomy.
// Unexpected faults are logged and reported as ErrInternal.
func (e *Engine) storeFailure(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrAuctionClosed):
		return ErrAuctionNotActive
	case errors.Is(err, repository.ErrConflict):
		return ErrAlreadyResolved
	case errors.Is(err, repository.ErrOutbid):
		return ErrBidTooLow
	}
	log.WithFields(log.Fields{"op": op, "error": err}).Error("ledger failure")
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
