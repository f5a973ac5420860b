package repository

import "database/sql"

// Ledger bundles the MySQL repositories that make up the durable auction
// ledger.  It satisfies the store contract consumed by the auction engine.
type Ledger struct {
	*AuctionRepo
	*BidRepo
	*UserRepo
}

// NewLedger wires the auction, bid and user repositories over one pool.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		AuctionRepo: NewAuctionRepo(db),
		BidRepo:     NewBidRepo(db),
		UserRepo:    NewUserRepo(db),
	}
}
