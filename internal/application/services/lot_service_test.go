package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/domain"
)

func usersWith(users ...application.User) *fakeUserDirectory {
	dir := &fakeUserDirectory{users: make(map[int64]application.User)}
	for _, u := range users {
		dir.users[u.ID] = u
	}
	return dir
}

func validCreateInput() CreateLotInput {
	end := time.Now().Add(24 * time.Hour)
	return CreateLotInput{
		Title:      "Vintage camera",
		StartPrice: decimal.NewFromInt(100),
		BidStep:    decimal.NewFromInt(5),
		EndDate:    &end,
	}
}

func TestLotService_CreateLot(t *testing.T) {
	repo := newFakeLotRepo()
	users := usersWith(application.User{ID: 10, Username: "seller", Role: "USER"})
	events := &fakeEventPublisher{}
	svc := NewLotService(repo, users, events, testLogger())

	lot, err := svc.CreateLot(context.Background(), validCreateInput(), 10)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingApproval, lot.Status)
	assert.Equal(t, int64(10), lot.OwnerID)
	assert.True(t, lot.CurrentPrice.Equal(lot.StartPrice))
	assert.Len(t, events.created, 1)
}

func TestLotService_CreateLot_UserServiceDown(t *testing.T) {
	users := &fakeUserDirectory{err: errors.New("request timed out")}
	svc := NewLotService(newFakeLotRepo(), users, &fakeEventPublisher{}, testLogger())

	_, err := svc.CreateLot(context.Background(), validCreateInput(), 10)
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeServiceUnavailable, svcErr.Code)
}

func TestLotService_CreateLot_RejectsInvalidInput(t *testing.T) {
	users := usersWith(application.User{ID: 10, Role: "USER"})
	svc := NewLotService(newFakeLotRepo(), users, &fakeEventPublisher{}, testLogger())

	badStep := validCreateInput()
	badStep.BidStep = decimal.Zero
	_, err := svc.CreateLot(context.Background(), badStep, 10)
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)

	pastEnd := validCreateInput()
	past := time.Now().Add(-time.Hour)
	pastEnd.EndDate = &past
	_, err = svc.CreateLot(context.Background(), pastEnd, 10)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
}

func TestLotService_ApproveLot(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{ID: 1, OwnerID: 10, Status: domain.StatusPendingApproval})
	users := usersWith(
		application.User{ID: 10, Role: "USER"},
		application.User{ID: 20, Role: "MODERATOR"},
	)
	events := &fakeEventPublisher{}
	svc := NewLotService(repo, users, events, testLogger())

	approved, err := svc.ApproveLot(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, approved.Status)
	assert.Equal(t, 1, events.statusChangeCount())
}

func TestLotService_ApproveLot_PermissionRules(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{ID: 1, OwnerID: 20, Status: domain.StatusPendingApproval})
	users := usersWith(
		application.User{ID: 10, Role: "USER"},
		application.User{ID: 20, Role: "MODERATOR"},
	)
	svc := NewLotService(repo, users, &fakeEventPublisher{}, testLogger())

	var svcErr *application.ServiceError

	// Plain users cannot approve.
	_, err := svc.ApproveLot(context.Background(), 1, 10)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodePermissionDenied, svcErr.Code)

	// Moderators cannot approve their own lots.
	_, err = svc.ApproveLot(context.Background(), 1, 20)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodePermissionDenied, svcErr.Code)
}

func TestLotService_ApproveLot_InvalidState(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{ID: 1, OwnerID: 10, Status: domain.StatusActive})
	users := usersWith(application.User{ID: 20, Role: "SUPERVISOR"})
	svc := NewLotService(repo, users, &fakeEventPublisher{}, testLogger())

	_, err := svc.ApproveLot(context.Background(), 1, 20)
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeInvalidState, svcErr.Code)
}

func TestLotService_CancelLot(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{ID: 1, OwnerID: 10, Status: domain.StatusPendingApproval})
	users := usersWith(
		application.User{ID: 10, Role: "USER"},
		application.User{ID: 30, Role: "USER"},
	)
	svc := NewLotService(repo, users, &fakeEventPublisher{}, testLogger())

	// A stranger without the moderator role cannot cancel.
	_, err := svc.CancelLot(context.Background(), 1, 30, "spam")
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodePermissionDenied, svcErr.Code)

	// The owner can.
	cancelled, err := svc.CancelLot(context.Background(), 1, 10, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestLotService_CancelLot_ModeratorCanCancelAnyones(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{ID: 1, OwnerID: 10, Status: domain.StatusPendingApproval})
	users := usersWith(application.User{ID: 20, Role: "moderator"})
	svc := NewLotService(repo, users, &fakeEventPublisher{}, testLogger())

	cancelled, err := svc.CancelLot(context.Background(), 1, 20, "rule violation")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestLotService_UpdateLot(t *testing.T) {
	repo := newFakeLotRepo(domain.Lot{
		ID:      1,
		OwnerID: 10,
		Title:   "Old title",
		BidStep: decimal.NewFromInt(5),
		Status:  domain.StatusPendingApproval,
	})
	svc := NewLotService(repo, usersWith(), &fakeEventPublisher{}, testLogger())

	newTitle := "New title"
	updated, err := svc.UpdateLot(context.Background(), 1, UpdateLotInput{Title: &newTitle}, 10)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.True(t, updated.BidStep.Equal(decimal.NewFromInt(5)), "nil fields must keep their values")

	// Only the owner edits.
	_, err = svc.UpdateLot(context.Background(), 1, UpdateLotInput{Title: &newTitle}, 99)
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodePermissionDenied, svcErr.Code)

	// Edits are re-validated.
	badStep := decimal.NewFromInt(-1)
	_, err = svc.UpdateLot(context.Background(), 1, UpdateLotInput{BidStep: &badStep}, 10)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
}

func TestLotService_DeleteLot(t *testing.T) {
	repo := newFakeLotRepo(
		domain.Lot{ID: 1, OwnerID: 10, Status: domain.StatusDraft},
		domain.Lot{ID: 2, OwnerID: 10, Status: domain.StatusActive},
	)
	svc := NewLotService(repo, usersWith(), &fakeEventPublisher{}, testLogger())

	require.NoError(t, svc.DeleteLot(context.Background(), 1, 10))
	assert.Equal(t, []int64{1}, repo.deleted)

	var svcErr *application.ServiceError
	err := svc.DeleteLot(context.Background(), 2, 10)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeInvalidState, svcErr.Code, "running auctions cannot be deleted")

	err = svc.DeleteLot(context.Background(), 2, 99)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodePermissionDenied, svcErr.Code)
}

func TestLotService_GetLot_NotFound(t *testing.T) {
	svc := NewLotService(newFakeLotRepo(), usersWith(), &fakeEventPublisher{}, testLogger())

	_, err := svc.GetLot(context.Background(), 404)
	var svcErr *application.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, application.ErrCodeLotNotFound, svcErr.Code)
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}
