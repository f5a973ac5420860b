package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// MemoryStore is a concurrency-safe in-memory ledger with the same
// contract as Ledger, used by the engine and handler tests.  A single
// mutex stands in for the row locks of the MySQL ledger.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	bids     map[string]model.Bid
	order    []string // bid ids in insertion order
	users    map[string]model.User
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string]model.Bid),
		users:    make(map[string]model.User),
	}
}

// AddUser registers a user.
func (s *MemoryStore) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) CreateAuction(_ context.Context, a *model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	s.auctions[a.ID] = *a
	return nil
}

func (s *MemoryStore) GetAuction(_ context.Context, id string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return model.Auction{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ListAuctions(_ context.Context) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkEnded(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if ok && a.Status == model.AuctionActive && !now.Before(a.EndTime) {
		a.Status = model.AuctionEnded
		a.UpdatedAt = now
		s.auctions[id] = a
	}
	return nil
}

func (s *MemoryStore) GetBid(_ context.Context, id string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bids[id]
	if !ok {
		return model.Bid{}, ErrNotFound
	}
	return b, nil
}

// activeAuctionLocked mirrors lockActiveAuctionTx; s.mu must be held.
func (s *MemoryStore) activeAuctionLocked(id string, at time.Time) (model.Auction, error) {
	a, ok := s.auctions[id]
	if !ok {
		return model.Auction{}, ErrNotFound
	}
	if a.Status != model.AuctionActive || !at.Before(a.EndTime) {
		return model.Auction{}, ErrAuctionClosed
	}
	return a, nil
}

func (s *MemoryStore) InsertBid(_ context.Context, bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.activeAuctionLocked(bid.AuctionID, bid.CreatedAt)
	if err != nil {
		return err
	}
	floor := a.StartingPrice
	for _, b := range s.bids {
		if b.AuctionID == bid.AuctionID && b.Status != model.BidRejected && b.Amount.GreaterThan(floor) {
			floor = b.Amount
		}
	}
	if !bid.Amount.GreaterThan(floor) {
		return ErrOutbid
	}
	bid.Status = model.BidPending
	bid.UpdatedAt = bid.CreatedAt
	s.bids[bid.ID] = bid
	s.order = append(s.order, bid.ID)
	id := bid.ID
	a.HighestBidID = &id
	s.auctions[a.ID] = a
	return nil
}

func (s *MemoryStore) AcceptBid(_ context.Context, bidID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.bids[bidID]
	if !ok {
		return 0, ErrNotFound
	}
	a, err := s.activeAuctionLocked(target.AuctionID, at)
	if err != nil {
		return 0, err
	}
	if target.Status != model.BidPending {
		return 0, ErrConflict
	}
	rejected := 0
	for id, b := range s.bids {
		if b.AuctionID != a.ID || b.Status != model.BidPending || id == bidID {
			continue
		}
		b.Status = model.BidRejected
		b.RejectedAt = timePtr(at)
		b.UpdatedAt = at
		s.bids[id] = b
		rejected++
	}
	target.Status = model.BidAccepted
	target.AcceptedAt = timePtr(at)
	target.UpdatedAt = at
	s.bids[bidID] = target
	a.Status = model.AuctionClosed
	a.EndTime = at
	a.HighestBidID = &target.ID
	a.UpdatedAt = at
	s.auctions[a.ID] = a
	return rejected, nil
}

func (s *MemoryStore) RejectBid(_ context.Context, bidID string, at time.Time) (*model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.bids[bidID]
	if !ok {
		return nil, ErrNotFound
	}
	a, err := s.activeAuctionLocked(target.AuctionID, at)
	if err != nil {
		return nil, err
	}
	if target.Status != model.BidPending {
		return nil, ErrConflict
	}
	target.Status = model.BidRejected
	target.RejectedAt = timePtr(at)
	target.UpdatedAt = at
	s.bids[bidID] = target

	next := s.leadingLocked(a.ID, model.BidPending)
	if next != nil {
		a.HighestBidID = &next.ID
	} else {
		a.HighestBidID = nil
	}
	a.UpdatedAt = at
	s.auctions[a.ID] = a
	return next, nil
}

func (s *MemoryStore) HighestBid(_ context.Context, auctionID string) (*model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leadingLocked(auctionID, model.BidPending, model.BidAccepted), nil
}

// leadingLocked returns the highest bid among the given statuses, the
// earliest one winning ties, matching the SQL ORDER BY.
func (s *MemoryStore) leadingLocked(auctionID string, statuses ...model.BidStatus) *model.Bid {
	var best *model.Bid
	for _, id := range s.order {
		b := s.bids[id]
		if b.AuctionID != auctionID || !hasStatus(b.Status, statuses) {
			continue
		}
		if best == nil || b.Amount.GreaterThan(best.Amount) {
			c := b
			best = &c
		}
	}
	return best
}

func (s *MemoryStore) CountBids(_ context.Context, auctionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListBids(_ context.Context, f BidFilter) ([]model.BidWithBidder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.BidWithBidder{}
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bids[s.order[i]]
		if f.AuctionID != "" && b.AuctionID != f.AuctionID {
			continue
		}
		if f.SellerID != "" && s.auctions[b.AuctionID].SellerID != f.SellerID {
			continue
		}
		if f.BidderID != "" && b.BidderID != f.BidderID {
			continue
		}
		out = append(out, model.BidWithBidder{
			Bid:    b,
			Bidder: model.UserRef{ID: b.BidderID, Username: s.users[b.BidderID].Username},
		})
	}
	return out, nil
}

func hasStatus(s model.BidStatus, in []model.BidStatus) bool {
	for _, v := range in {
		if s == v {
			return true
		}
	}
	return false
}

func timePtr(t time.Time) *time.Time { return &t }
