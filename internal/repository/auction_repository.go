package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/realtime-auction/internal/model"
)

// AuctionRepo provides data access to the auctions table.  All
// timestamps are written and compared in UTC.
type AuctionRepo struct {
	db *sql.DB
}

// NewAuctionRepo returns a new AuctionRepo bound to the provided database.
func NewAuctionRepo(db *sql.DB) *AuctionRepo { return &AuctionRepo{db: db} }

const auctionColumns = `id, name, description, starting_price, duration, end_time, status,
	highest_bid_id, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(s rowScanner) (model.Auction, error) {
	var (
		a         model.Auction
		status    string
		highestID sql.NullString
	)
	err := s.Scan(&a.ID, &a.Name, &a.Description, &a.StartingPrice, &a.Duration, &a.EndTime,
		&status, &highestID, &a.SellerID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Auction{}, err
	}
	a.Status = model.AuctionStatus(status)
	if highestID.Valid {
		id := highestID.String
		a.HighestBidID = &id
	}
	return a, nil
}

// CreateAuction inserts the auction.  The caller fills in ID, EndTime and
// CreatedAt; the row is read back to pick up database defaults.
func (r *AuctionRepo) CreateAuction(ctx context.Context, a *model.Auction) error {
	const q = `INSERT INTO auctions (id, name, description, starting_price, duration, end_time, status, user_id, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.Name, a.Description, a.StartingPrice, a.Duration,
		a.EndTime.UTC(), string(a.Status), a.SellerID, a.CreatedAt.UTC()); err != nil {
		return err
	}
	stored, err := r.GetAuction(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = stored
	return nil
}

// GetAuction returns the auction or ErrNotFound.
func (r *AuctionRepo) GetAuction(ctx context.Context, id string) (model.Auction, error) {
	a, err := scanAuction(r.db.QueryRowContext(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, ErrNotFound
	}
	return a, err
}

// ListAuctions returns every auction, newest first.
func (r *AuctionRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+auctionColumns+` FROM auctions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	auctions := []model.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

// MarkEnded moves an active auction whose end time has passed to ended.
// The update is conditional so an auction that is already ended or
// closed is left untouched; calling it repeatedly is harmless.
func (r *AuctionRepo) MarkEnded(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET status = 'ended' WHERE id = ? AND status = 'active' AND end_time <= ?`,
		id, now.UTC())
	return err
}

// lockActiveAuctionTx loads the auction row with FOR UPDATE inside tx and
// verifies that it still accepts bid mutations at the given instant.
// Concurrent bid mutations on the same auction serialize on this lock.
func lockActiveAuctionTx(ctx context.Context, tx *sql.Tx, id string, at time.Time) (model.Auction, error) {
	a, err := scanAuction(tx.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, ErrNotFound
	}
	if err != nil {
		return model.Auction{}, err
	}
	if a.Status != model.AuctionActive || !at.Before(a.EndTime) {
		return model.Auction{}, ErrAuctionClosed
	}
	return a, nil
}
