package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository answers winner queries from the bids table.
type BidRepository struct {
	db *pgxpool.Pool
}

func NewBidRepository(db *pgxpool.Pool) *BidRepository {
	return &BidRepository{db: db}
}

// HighestBidder returns the bidder holding the top bid on a lot, or nil when
// the lot received no bids. Ties on amount go to the earlier bid.
func (r *BidRepository) HighestBidder(ctx context.Context, lotID int64) (*int64, error) {
	query := `
		SELECT bidder_id
		FROM bids
		WHERE lot_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	var bidderID int64
	err := r.db.QueryRow(ctx, query, lotID).Scan(&bidderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query highest bidder: %w", err)
	}
	return &bidderID, nil
}
