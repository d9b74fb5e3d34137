// Package responder implements the answering side of the request/reply
// contract: the handlers the bid and user services run against their request
// topics. Every request gets a correlated response, success or not, so the
// asking side's bridge can resolve instead of timing out.
package responder

import (
	"context"

	"github.com/imbuy/marketplace/internal/application"
)

// WinnerSource resolves the top bidder of a lot; nil means no bids.
type WinnerSource interface {
	HighestBidder(ctx context.Context, lotID int64) (*int64, error)
}

// UserSource resolves a user by id.
type UserSource interface {
	FindByID(ctx context.Context, id int64) (application.User, error)
}
