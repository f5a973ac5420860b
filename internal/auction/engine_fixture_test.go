package auction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/realtime-auction/internal/bidcache"
	"github.com/iliyamo/realtime-auction/internal/model"
	"github.com/iliyamo/realtime-auction/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type emitted struct {
	room    string // empty for global events
	event   string
	payload any
}

// recorder is a Broadcaster that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) EmitToAuction(auctionID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{room: auctionID, event: event, payload: payload})
}

func (r *recorder) EmitGlobal(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{event: event, payload: payload})
}

func (r *recorder) take() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

type fixture struct {
	ctx    context.Context
	clock  *fakeClock
	store  *repository.MemoryStore
	cache  *bidcache.Cache
	events *recorder
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	store := repository.NewMemoryStore()
	for _, name := range []string{"seller", "alice", "bob", "carol"} {
		store.AddUser(model.User{ID: name, Username: name})
	}
	cache := bidcache.New(bidcache.NewMemoryBackend(clock.Now), store, bidcache.DefaultTTL)
	events := &recorder{}
	return &fixture{
		ctx:    context.Background(),
		clock:  clock,
		store:  store,
		cache:  cache,
		events: events,
		engine: NewEngine(store, NewLifecycle(store, clock.Now), cache, events),
	}
}

func (f *fixture) newAuction(t *testing.T, startingPrice string, minutes int) AuctionView {
	t.Helper()
	a, err := f.engine.CreateAuction(f.ctx, "seller", NewAuction{
		Name:          "Brass lamp",
		Description:   "Desk lamp, working",
		StartingPrice: decimal.RequireFromString(startingPrice),
		Duration:      minutes,
	})
	require.NoError(t, err)
	f.events.take()
	return a
}

func (f *fixture) bid(auctionID, bidder, amount string) (PlaceBidResult, error) {
	return f.engine.PlaceBid(f.ctx, auctionID, bidder, decimal.RequireFromString(amount))
}

func (f *fixture) mustBid(t *testing.T, auctionID, bidder, amount string) model.BidWithBidder {
	t.Helper()
	res, err := f.bid(auctionID, bidder, amount)
	require.NoError(t, err)
	// keep bids strictly ordered in time
	f.clock.Advance(time.Millisecond)
	return res.Bid
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}
