package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state stored in auctions.status.
type AuctionStatus string

const (
    AuctionActive AuctionStatus = "active" // open for bids
    AuctionEnded  AuctionStatus = "ended"  // duration elapsed naturally
    AuctionClosed AuctionStatus = "closed" // terminated early by an accepted bid
)

// Auction represents a listing as stored in the `auctions` table.
//
// Fields:
//  ID            – uuid primary key.
//  Name          – short title shown to bidders.
//  Description   – free text.
//  StartingPrice – floor for the first bid.
//  Duration      – minutes, immutable once set.
//  EndTime       – CreatedAt + Duration; set to the close time when a bid is accepted.
//  Status        – active, ended or closed.
//  HighestBidID  – currently winning bid (nullable).
//  SellerID      – owner of the listing.
type Auction struct {
    ID            string          `json:"id"`
    Name          string          `json:"name"`
    Description   string          `json:"description"`
    StartingPrice decimal.Decimal `json:"startingPrice"`
    Duration      int             `json:"duration"`
    EndTime       time.Time       `json:"endTime"`
    Status        AuctionStatus   `json:"status"`
    HighestBidID  *string         `json:"highestBidId"`
    SellerID      string          `json:"userId"`
    CreatedAt     time.Time       `json:"createdAt"`
    UpdatedAt     time.Time       `json:"updatedAt"`
}

// UserRef is the public projection of a user embedded in responses and events.
type UserRef struct {
    ID       string `json:"id"`
    Username string `json:"username"`
}
