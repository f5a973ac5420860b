package auction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/realtime-auction/internal/model"
	"github.com/iliyamo/realtime-auction/internal/repository"
)

// AuctionView is an auction as served to clients: the stored row after
// the expiry rule, plus the derived current price and time remaining.
type AuctionView struct {
	model.Auction
	Seller        model.UserRef   `json:"seller"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	TimeRemaining int64           `json:"timeRemaining"` // ms
}

// NewAuction holds the fields a seller supplies when listing an item.
type NewAuction struct {
	Name          string
	Description   string
	StartingPrice decimal.Decimal
	Duration      int // minutes
}

// BidQuery scopes ListBids; see repository.BidFilter.
type BidQuery = repository.BidFilter

// BidListing is the response of ListBids.
type BidListing struct {
	Bids              []model.BidWithBidder                     `json:"bids"`
	CurrentHighestBid *decimal.Decimal                          `json:"currentHighestBid"`
	TotalBids         int                                       `json:"totalBids"`
	BidsByStatus      map[model.BidStatus][]model.BidWithBidder `json:"bidsByStatus"`
	StatusCounts      map[model.BidStatus]int                   `json:"statusCounts"`
}

// CreateAuction lists a new item.  The auction starts active and ends
// Duration minutes after creation.
func (e *Engine) CreateAuction(ctx context.Context, sellerID string, in NewAuction) (AuctionView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if sellerID == "" || in.Name == "" || in.Description == "" {
		return AuctionView{}, fmt.Errorf("%w: name, description, startingPrice and duration are required", ErrInvalidInput)
	}
	price := NormalizeAmount(in.StartingPrice)
	if !price.IsPositive() {
		return AuctionView{}, fmt.Errorf("%w: starting price must be positive", ErrInvalidInput)
	}
	if in.Duration <= 0 {
		return AuctionView{}, fmt.Errorf("%w: duration must be a positive number of minutes", ErrInvalidInput)
	}
	now := e.lifecycle.Now()
	a := model.Auction{
		ID:            e.newID(),
		Name:          in.Name,
		Description:   in.Description,
		StartingPrice: price,
		Duration:      in.Duration,
		EndTime:       now.Add(time.Duration(in.Duration) * time.Minute),
		Status:        model.AuctionActive,
		SellerID:      sellerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateAuction(ctx, &a); err != nil {
		return AuctionView{}, e.storeFailure("create auction", err)
	}
	log.WithFields(log.Fields{
		"auction_id":     a.ID,
		"seller_id":      sellerID,
		"starting_price": price.String(),
		"end_time":       a.EndTime,
	}).Info("auction created")
	return e.view(ctx, a), nil
}

// GetAuction loads one auction, applying the expiry rule first.
func (e *Engine) GetAuction(ctx context.Context, id string) (AuctionView, error) {
	a, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return AuctionView{}, e.storeFailure("get auction", err)
	}
	e.lifecycle.Refresh(ctx, &a)
	return e.view(ctx, a), nil
}

// ListAuctions returns every auction, newest first.
func (e *Engine) ListAuctions(ctx context.Context) ([]AuctionView, error) {
	auctions, err := e.store.ListAuctions(ctx)
	if err != nil {
		return nil, e.storeFailure("list auctions", err)
	}
	out := make([]AuctionView, 0, len(auctions))
	for i := range auctions {
		e.lifecycle.Refresh(ctx, &auctions[i])
		out = append(out, e.view(ctx, auctions[i]))
	}
	return out, nil
}

// ListBids returns the matching bids grouped by status.  When the query
// names an auction, CurrentHighestBid is that auction's current price;
// otherwise it is the highest non-rejected amount in the result.
func (e *Engine) ListBids(ctx context.Context, q BidQuery) (BidListing, error) {
	var price *decimal.Decimal
	if q.AuctionID != "" {
		a, err := e.store.GetAuction(ctx, q.AuctionID)
		if err != nil {
			return BidListing{}, e.storeFailure("list bids: load auction", err)
		}
		p := e.currentPrice(ctx, a)
		price = &p
	}
	bids, err := e.store.ListBids(ctx, q)
	if err != nil {
		return BidListing{}, e.storeFailure("list bids", err)
	}

	listing := BidListing{
		Bids:      bids,
		TotalBids: len(bids),
		BidsByStatus: map[model.BidStatus][]model.BidWithBidder{
			model.BidPending:  {},
			model.BidAccepted: {},
			model.BidRejected: {},
		},
		StatusCounts: map[model.BidStatus]int{
			model.BidPending:  0,
			model.BidAccepted: 0,
			model.BidRejected: 0,
		},
	}
	for _, b := range bids {
		listing.BidsByStatus[b.Status] = append(listing.BidsByStatus[b.Status], b)
		listing.StatusCounts[b.Status]++
		if q.AuctionID == "" && b.Status != model.BidRejected && (price == nil || b.Amount.GreaterThan(*price)) {
			amt := b.Amount
			price = &amt
		}
	}
	listing.CurrentHighestBid = price
	return listing, nil
}

func (e *Engine) view(ctx context.Context, a model.Auction) AuctionView {
	return AuctionView{
		Auction:       a,
		Seller:        e.userRef(ctx, a.SellerID),
		CurrentPrice:  e.currentPrice(ctx, a),
		TimeRemaining: e.lifecycle.TimeRemaining(a),
	}
}
