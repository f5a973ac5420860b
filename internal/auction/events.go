package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// Event names shared by the engine, the websocket hub and the queue consumer.
const (
	EventNewBid       = "newBid"
	EventBidUpdate    = "bidUpdate"
	EventBidAccepted  = "bidAccepted"
	EventAuctionEnded = "auctionEnded"
	EventBidRejected  = "bidRejected"
	EventPriceUpdate  = "priceUpdate"
	EventBidError     = "bidError"
)

// Every payload carries the full resulting state so a client that missed
// earlier events can take the latest one at face value.

type NewBidPayload struct {
	Bid           model.BidWithBidder `json:"bid"`
	CurrentPrice  decimal.Decimal     `json:"currentPrice"`
	PreviousPrice decimal.Decimal     `json:"previousPrice"`
	AuctionID     string              `json:"auctionId"`
	Timestamp     time.Time           `json:"timestamp"`
	BidCount      int                 `json:"bidCount"`
}

type BidUpdatePayload struct {
	ID            string          `json:"id"`
	AuctionID     string          `json:"auctionId"`
	AuctionName   string          `json:"auctionName"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	PreviousPrice decimal.Decimal `json:"previousPrice"`
	Bidder        model.UserRef   `json:"bidder"`
	Timestamp     time.Time       `json:"timestamp"`
	BidCount      int             `json:"bidCount"`
}

type BidAcceptedPayload struct {
	Bid          model.BidWithBidder `json:"bid"`
	Message      string              `json:"message"`
	Timestamp    time.Time           `json:"timestamp"`
	AuctionEnded bool                `json:"auctionEnded"`
}

type AuctionEndedPayload struct {
	AuctionID    string          `json:"auctionId"`
	WinningBid   decimal.Decimal `json:"winningBid"`
	Winner       model.UserRef   `json:"winner"`
	AuctionTitle string          `json:"auctionTitle"`
	Timestamp    time.Time       `json:"timestamp"`
}

type BidRejectedPayload struct {
	Bid           model.BidWithBidder `json:"bid"`
	Message       string              `json:"message"`
	Timestamp     time.Time           `json:"timestamp"`
	NewHighestBid HighestBid          `json:"newHighestBid"`
}

type PriceUpdatePayload struct {
	AuctionID    string          `json:"auctionId"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	HighestBidID *string         `json:"highestBidId"`
	Timestamp    time.Time       `json:"timestamp"`
}

type BidErrorPayload struct {
	Error     string `json:"error"`
	AuctionID string `json:"auctionId"`
}

// HighestBid is the recomputed leader after a rejection.  BidID is nil
// when no pending bid remains and Amount falls back to the starting price.
type HighestBid struct {
	BidID  *string         `json:"bidId"`
	Amount decimal.Decimal `json:"amount"`
}
