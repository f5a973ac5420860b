package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// BidStatus is the state stored in bids.status.
type BidStatus string

const (
    BidPending  BidStatus = "pending"
    BidAccepted BidStatus = "accepted"
    BidRejected BidStatus = "rejected"
)

// Bid is a monetary offer against an auction.  AuctionID and BidderID
// never change after insert; only the accept/reject transition mutates
// a bid and bids are never deleted.
type Bid struct {
    ID         string          `json:"id"`
    AuctionID  string          `json:"auctionId"`
    BidderID   string          `json:"userId"`
    Amount     decimal.Decimal `json:"amount"`
    Status     BidStatus       `json:"status"`
    AcceptedAt *time.Time      `json:"acceptedAt"`
    RejectedAt *time.Time      `json:"rejectedAt"`
    CreatedAt  time.Time       `json:"createdAt"`
    UpdatedAt  time.Time       `json:"updatedAt"`
}

// BidWithBidder is a bid joined with its bidder's public identity.
type BidWithBidder struct {
    Bid
    Bidder UserRef `json:"bidder"`
}
