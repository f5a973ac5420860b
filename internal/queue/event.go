// Package queue defines the messages carried on the auction event feed
// and the background consumer that records them.
package queue

import (
    "encoding/json"
    "time"
)

const (
    // ExchangeName is the fanout exchange every global auction event is
    // published to.
    ExchangeName = "auction.events"
    // LogQueueName is the durable queue bound to ExchangeName that feeds
    // the settlement log.
    LogQueueName = "auction.events.log"
)

// AuctionEvent wraps a global realtime event for the broker.  Payload is
// the same JSON the WebSocket clients receive.
type AuctionEvent struct {
    Event       string          `json:"event"`
    AuctionID   string          `json:"auctionId"`
    Payload     json.RawMessage `json:"payload"`
    PublishedAt time.Time       `json:"publishedAt"`
}
