package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/domain"
)

type CreateLotInput struct {
	Title       string
	Description string
	StartPrice  decimal.Decimal
	BidStep     decimal.Decimal
	CategoryID  *int64
	StartDate   *time.Time
	EndDate     *time.Time
}

type UpdateLotInput struct {
	Title       *string
	Description *string
	BidStep     *decimal.Decimal
	EndDate     *time.Time
	CategoryID  *int64
}

// LotService orchestrates the lot lifecycle. Every operation that depends on
// who the caller is resolves them through the user directory, which rides
// the request/reply bridge to the user service.
type LotService struct {
	lots   application.LotRepository
	users  application.UserDirectory
	events application.EventPublisher
	logger *slog.Logger
}

func NewLotService(
	lots application.LotRepository,
	users application.UserDirectory,
	events application.EventPublisher,
	logger *slog.Logger,
) *LotService {
	return &LotService{
		lots:   lots,
		users:  users,
		events: events,
		logger: logger,
	}
}

func (s *LotService) GetLot(ctx context.Context, id int64) (domain.Lot, error) {
	lot, err := s.lots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrLotNotFound) {
			return domain.Lot{}, application.NewLotNotFoundError(err)
		}
		return domain.Lot{}, fmt.Errorf("find lot %d: %w", id, err)
	}
	return lot, nil
}

func (s *LotService) ListLots(ctx context.Context, filter application.LotFilter, page, size int) ([]domain.Lot, error) {
	return s.lots.FindByFilters(ctx, filter, page, size)
}

// CreateLot submits a new lot for approval. The owner must exist according
// to the user service.
func (s *LotService) CreateLot(ctx context.Context, input CreateLotInput, userID int64) (domain.Lot, error) {
	if _, err := s.users.UserByID(ctx, userID); err != nil {
		return domain.Lot{}, application.NewServiceUnavailableError("user service", err)
	}

	if err := domain.ValidateBidStep(input.BidStep); err != nil {
		return domain.Lot{}, application.NewInvalidInputError(err)
	}
	if err := domain.ValidateEndDate(input.EndDate, time.Now()); err != nil {
		return domain.Lot{}, application.NewInvalidInputError(err)
	}

	lot := domain.Lot{
		Title:        input.Title,
		Description:  input.Description,
		StartPrice:   input.StartPrice,
		CurrentPrice: input.StartPrice,
		BidStep:      input.BidStep,
		OwnerID:      userID,
		CategoryID:   input.CategoryID,
		Status:       domain.StatusPendingApproval,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		CreatedAt:    time.Now(),
	}

	saved, err := s.lots.Save(ctx, lot)
	if err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}

	if err := s.events.PublishLotCreated(ctx, saved); err != nil {
		s.logger.Error("failed to publish lot created", "lot_id", saved.ID, "error", err)
	}

	return saved, nil
}

// ApproveLot activates a pending lot. Only supervisors and moderators may
// approve, and never their own lots.
func (s *LotService) ApproveLot(ctx context.Context, id, userID int64) (domain.Lot, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return domain.Lot{}, application.NewServiceUnavailableError("user service", err)
	}
	if !hasRole(user, "SUPERVISOR", "MODERATOR") {
		return domain.Lot{}, application.NewPermissionDeniedError("user has no permission to approve lot")
	}

	lot, err := s.GetLot(ctx, id)
	if err != nil {
		return domain.Lot{}, err
	}
	if lot.OwnerID == userID {
		return domain.Lot{}, application.NewPermissionDeniedError("owner cannot approve their own lot")
	}

	approved, err := lot.Approve()
	if err != nil {
		return domain.Lot{}, application.NewInvalidStateError(err)
	}
	if err := s.lots.Update(ctx, approved); err != nil {
		return domain.Lot{}, fmt.Errorf("persist approved lot: %w", err)
	}

	if err := s.events.PublishLotStatusChanged(ctx, approved, lot.Status); err != nil {
		s.logger.Error("failed to publish lot status change", "lot_id", id, "error", err)
	}

	return approved, nil
}

// CancelLot withdraws a pending lot. Owners may cancel their own lots;
// moderators may cancel anyone's.
func (s *LotService) CancelLot(ctx context.Context, id, userID int64, reason string) (domain.Lot, error) {
	lot, err := s.GetLot(ctx, id)
	if err != nil {
		return domain.Lot{}, err
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return domain.Lot{}, application.NewServiceUnavailableError("user service", err)
	}

	isOwner := lot.OwnerID == userID
	if !isOwner && !hasRole(user, "MODERATOR") {
		return domain.Lot{}, application.NewPermissionDeniedError("no permission to cancel lot")
	}

	cancelled, err := lot.Cancel()
	if err != nil {
		return domain.Lot{}, application.NewInvalidStateError(err)
	}
	if err := s.lots.Update(ctx, cancelled); err != nil {
		return domain.Lot{}, fmt.Errorf("persist cancelled lot: %w", err)
	}

	s.logger.Info("lot cancelled", "lot_id", id, "user_id", userID, "reason", reason)

	if err := s.events.PublishLotStatusChanged(ctx, cancelled, lot.Status); err != nil {
		s.logger.Error("failed to publish lot status change", "lot_id", id, "error", err)
	}

	return cancelled, nil
}

// UpdateLot applies the owner's edits to a lot. Nil fields keep their
// current values.
func (s *LotService) UpdateLot(ctx context.Context, id int64, input UpdateLotInput, userID int64) (domain.Lot, error) {
	lot, err := s.GetLot(ctx, id)
	if err != nil {
		return domain.Lot{}, err
	}
	if lot.OwnerID != userID {
		return domain.Lot{}, application.NewPermissionDeniedError("only owner can update lot")
	}

	if input.Title != nil {
		lot.Title = *input.Title
	}
	if input.Description != nil {
		lot.Description = *input.Description
	}
	if input.BidStep != nil {
		lot.BidStep = *input.BidStep
	}
	if input.EndDate != nil {
		lot.EndDate = input.EndDate
	}
	if input.CategoryID != nil {
		lot.CategoryID = input.CategoryID
	}

	if err := domain.ValidateBidStep(lot.BidStep); err != nil {
		return domain.Lot{}, application.NewInvalidInputError(err)
	}

	if err := s.lots.Update(ctx, lot); err != nil {
		return domain.Lot{}, fmt.Errorf("persist updated lot: %w", err)
	}
	return lot, nil
}

// DeleteLot removes a lot that is not running.
func (s *LotService) DeleteLot(ctx context.Context, id, userID int64) error {
	lot, err := s.GetLot(ctx, id)
	if err != nil {
		return err
	}
	if lot.OwnerID != userID {
		return application.NewPermissionDeniedError("only owner can delete lot")
	}
	if lot.Status == domain.StatusActive {
		return application.NewInvalidStateError(errors.New("cannot delete active lot"))
	}
	return s.lots.Delete(ctx, id)
}

func hasRole(user application.User, roles ...string) bool {
	for _, role := range roles {
		if strings.EqualFold(user.Role, role) {
			return true
		}
	}
	return false
}
