package application

import (
	"context"

	"github.com/imbuy/marketplace/internal/domain"
)

// User is the projection of a user the lot service cares about.
type User struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// UserDirectory is the port for authoritative user answers, owned by the
// user service and reached over the bus.
type UserDirectory interface {
	UserByID(ctx context.Context, userID int64) (User, error)
}

// AuctionResults is the port for winner attribution, owned by the bid
// service and reached over the bus. A nil winner with a nil error means the
// auction finished without a single bid.
type AuctionResults interface {
	AuctionWinner(ctx context.Context, lotID int64) (*int64, error)
}

// LotFilter narrows lot listings. Zero/nil fields are ignored.
type LotFilter struct {
	Title      string
	Status     *domain.LotStatus
	CategoryID *int64
	OwnerID    *int64
}

// LotRepository is the port for lot persistence.
type LotRepository interface {
	Save(ctx context.Context, lot domain.Lot) (domain.Lot, error)
	FindByID(ctx context.Context, id int64) (domain.Lot, error)
	FindByStatus(ctx context.Context, status domain.LotStatus, page, size int) ([]domain.Lot, error)
	FindByFilters(ctx context.Context, filter LotFilter, page, size int) ([]domain.Lot, error)
	Update(ctx context.Context, lot domain.Lot) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher announces lot lifecycle changes on the bus.
type EventPublisher interface {
	PublishLotCreated(ctx context.Context, lot domain.Lot) error
	PublishLotStatusChanged(ctx context.Context, lot domain.Lot, oldStatus domain.LotStatus) error
}
