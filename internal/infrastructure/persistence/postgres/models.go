package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// lotRow mirrors the lots table.
type lotRow struct {
	ID           int64
	Title        string
	Description  *string
	StartPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
	BidStep      decimal.Decimal
	OwnerID      int64
	CategoryID   *int64
	WinnerID     *int64
	Status       string
	StartDate    *time.Time
	EndDate      *time.Time
	CreatedAt    time.Time
}
