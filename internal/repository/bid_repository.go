package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// BidRepo provides data access to the bids table.  The mutating methods
// run in their own transaction and lock the parent auction row first,
// so bid admission and the accept/reject transitions of one auction are
// serialized by the database.
type BidRepo struct {
	db *sql.DB
}

// NewBidRepo returns a new BidRepo bound to the provided database.
func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{db: db} }

// BidFilter scopes ListBids.  Empty fields are ignored; when several
// are set they are combined with AND.
type BidFilter struct {
	AuctionID string // bids on one auction
	SellerID  string // bids on auctions owned by this user
	BidderID  string // bids placed by this user
}

const bidColumns = `b.id, b.auction_id, b.user_id, b.amount, b.status, b.accepted_at, b.rejected_at,
	b.created_at, b.updated_at`

func scanBid(s rowScanner, extra ...any) (model.Bid, error) {
	var (
		b          model.Bid
		status     string
		acceptedAt sql.NullTime
		rejectedAt sql.NullTime
	)
	dest := []any{&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &status, &acceptedAt, &rejectedAt,
		&b.CreatedAt, &b.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return model.Bid{}, err
	}
	b.Status = model.BidStatus(status)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		b.AcceptedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		b.RejectedAt = &t
	}
	return b, nil
}

// GetBid returns the bid or ErrNotFound.
func (r *BidRepo) GetBid(ctx context.Context, id string) (model.Bid, error) {
	b, err := scanBid(r.db.QueryRowContext(ctx, `SELECT `+bidColumns+` FROM bids b WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, ErrNotFound
	}
	return b, err
}

// InsertBid stores a pending bid and points auctions.highest_bid_id at
// it.  Under the auction row lock it re-checks that the auction is
// still active at bid.CreatedAt and that the amount strictly exceeds
// both the starting price and every pending or accepted bid; otherwise
// it returns ErrAuctionClosed or ErrOutbid and nothing is written.
func (r *BidRepo) InsertBid(ctx context.Context, bid model.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	a, err := lockActiveAuctionTx(ctx, tx, bid.AuctionID, bid.CreatedAt)
	if err != nil {
		return err
	}
	var top decimal.NullDecimal
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(amount) FROM bids WHERE auction_id = ? AND status IN ('pending','accepted')`,
		bid.AuctionID).Scan(&top); err != nil {
		return err
	}
	floor := a.StartingPrice
	if top.Valid && top.Decimal.GreaterThan(floor) {
		floor = top.Decimal
	}
	if !bid.Amount.GreaterThan(floor) {
		return ErrOutbid
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, user_id, amount, status, created_at) VALUES (?, ?, ?, ?, 'pending', ?)`,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt.UTC()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE auctions SET highest_bid_id = ? WHERE id = ?`, bid.ID, bid.AuctionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AcceptBid accepts a pending bid, rejects every other pending bid of the
// same auction and closes the auction with end_time = at, all in one
// transaction.  It returns the number of competing bids rejected.
// ErrConflict means the bid was no longer pending; ErrAuctionClosed means
// the auction stopped accepting mutations.
func (r *BidRepo) AcceptBid(ctx context.Context, bidID string, at time.Time) (int, error) {
	at = at.UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	auctionID, err := auctionIDForBidTx(ctx, tx, bidID)
	if err != nil {
		return 0, err
	}
	if _, err := lockActiveAuctionTx(ctx, tx, auctionID, at); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = 'accepted', accepted_at = ? WHERE id = ? AND status = 'pending'`, at, bidID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrConflict
	}
	res, err = tx.ExecContext(ctx,
		`UPDATE bids SET status = 'rejected', rejected_at = ? WHERE auction_id = ? AND status = 'pending' AND id <> ?`,
		at, auctionID, bidID)
	if err != nil {
		return 0, err
	}
	rejected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE auctions SET status = 'closed', end_time = ?, highest_bid_id = ? WHERE id = ?`,
		at, bidID, auctionID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return int(rejected), nil
}

// RejectBid rejects a pending bid and recomputes the auction's highest
// bid from the remaining pending bids (amount descending, earliest first
// on ties).  It returns the new highest bid, or nil when none remain in
// which case highest_bid_id is cleared.
func (r *BidRepo) RejectBid(ctx context.Context, bidID string, at time.Time) (*model.Bid, error) {
	at = at.UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	auctionID, err := auctionIDForBidTx(ctx, tx, bidID)
	if err != nil {
		return nil, err
	}
	if _, err := lockActiveAuctionTx(ctx, tx, auctionID, at); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = 'rejected', rejected_at = ? WHERE id = ? AND status = 'pending'`, at, bidID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrConflict
	}
	var next *model.Bid
	b, err := scanBid(tx.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids b WHERE b.auction_id = ? AND b.status = 'pending'
		 ORDER BY b.amount DESC, b.created_at ASC LIMIT 1`, auctionID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		next = &b
	}
	var nextID any
	if next != nil {
		nextID = next.ID
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE auctions SET highest_bid_id = ? WHERE id = ?`, nextID, auctionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return next, nil
}

// HighestBid returns the leading pending or accepted bid of the auction,
// or nil when there is none.  Rejected bids never count.
func (r *BidRepo) HighestBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	b, err := scanBid(r.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids b WHERE b.auction_id = ? AND b.status IN ('pending','accepted')
		 ORDER BY b.amount DESC, b.created_at ASC LIMIT 1`, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CountBids returns the number of bids ever placed on the auction.
func (r *BidRepo) CountBids(ctx context.Context, auctionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE auction_id = ?`, auctionID).Scan(&n)
	return n, err
}

// ListBids returns bids joined with their bidder's username, newest first.
func (r *BidRepo) ListBids(ctx context.Context, f BidFilter) ([]model.BidWithBidder, error) {
	q := `SELECT ` + bidColumns + `, u.username FROM bids b
	      JOIN users u ON u.id = b.user_id
	      JOIN auctions a ON a.id = b.auction_id`
	var (
		where []string
		args  []any
	)
	if f.AuctionID != "" {
		where = append(where, "b.auction_id = ?")
		args = append(args, f.AuctionID)
	}
	if f.SellerID != "" {
		where = append(where, "a.user_id = ?")
		args = append(args, f.SellerID)
	}
	if f.BidderID != "" {
		where = append(where, "b.user_id = ?")
		args = append(args, f.BidderID)
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BidWithBidder{}
	for rows.Next() {
		var username string
		b, err := scanBid(rows, &username)
		if err != nil {
			return nil, err
		}
		out = append(out, model.BidWithBidder{Bid: b, Bidder: model.UserRef{ID: b.BidderID, Username: username}})
	}
	return out, rows.Err()
}

func auctionIDForBidTx(ctx context.Context, tx *sql.Tx, bidID string) (string, error) {
	var auctionID string
	err := tx.QueryRowContext(ctx, `SELECT auction_id FROM bids WHERE id = ?`, bidID).Scan(&auctionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return auctionID, err
}
