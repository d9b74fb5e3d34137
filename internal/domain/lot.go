package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LotStatus string

const (
	StatusDraft           LotStatus = "DRAFT"
	StatusPendingApproval LotStatus = "PENDING_APPROVAL"
	StatusActive          LotStatus = "ACTIVE"
	StatusCompleted       LotStatus = "COMPLETED"
	StatusCancelled       LotStatus = "CANCELLED"
)

var (
	ErrLotNotFound       = errors.New("lot not found")
	ErrInvalidTransition = errors.New("invalid lot status transition")
	ErrInvalidBidStep    = errors.New("bid step must be greater than zero")
	ErrEndDateInPast     = errors.New("end date cannot be in the past")
)

// Lot is an auction item. Status moves DRAFT -> PENDING_APPROVAL -> ACTIVE ->
// COMPLETED, with PENDING_APPROVAL -> CANCELLED as the only other exit.
type Lot struct {
	ID           int64
	Title        string
	Description  string
	StartPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
	BidStep      decimal.Decimal
	OwnerID      int64
	CategoryID   *int64
	WinnerID     *int64
	Status       LotStatus
	StartDate    *time.Time
	EndDate      *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the auction's end date has passed. Lots without an
// end date never expire.
func (l Lot) Expired(now time.Time) bool {
	return l.EndDate != nil && l.EndDate.Before(now)
}

// Approve transitions a pending lot to ACTIVE.
func (l Lot) Approve() (Lot, error) {
	if l.Status != StatusPendingApproval {
		return Lot{}, fmt.Errorf("%w: cannot approve %s lot", ErrInvalidTransition, l.Status)
	}
	l.Status = StatusActive
	return l, nil
}

// Cancel transitions a pending lot to CANCELLED. Active lots cannot be
// cancelled; they run to completion.
func (l Lot) Cancel() (Lot, error) {
	if l.Status != StatusPendingApproval {
		return Lot{}, fmt.Errorf("%w: cannot cancel %s lot", ErrInvalidTransition, l.Status)
	}
	l.Status = StatusCancelled
	return l, nil
}

// Close transitions an active lot to COMPLETED. winnerID is nil when the
// auction ended without bids or when winner attribution was unavailable.
func (l Lot) Close(winnerID *int64) (Lot, error) {
	if l.Status != StatusActive {
		return Lot{}, fmt.Errorf("%w: only active lots can be closed", ErrInvalidTransition)
	}
	l.Status = StatusCompleted
	l.WinnerID = winnerID
	return l, nil
}

func ValidateBidStep(step decimal.Decimal) error {
	if step.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidBidStep
	}
	return nil
}

func ValidateEndDate(endDate *time.Time, now time.Time) error {
	if endDate != nil && endDate.Before(now) {
		return ErrEndDateInPast
	}
	return nil
}
