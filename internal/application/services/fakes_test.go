package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type fakeLotRepo struct {
	mu        sync.Mutex
	lots      map[int64]domain.Lot
	nextID    int64
	updateErr map[int64]error
	findErr   error
	updated   []domain.Lot
	deleted   []int64
}

func newFakeLotRepo(lots ...domain.Lot) *fakeLotRepo {
	repo := &fakeLotRepo{
		lots:      make(map[int64]domain.Lot),
		nextID:    1,
		updateErr: make(map[int64]error),
	}
	for _, lot := range lots {
		repo.lots[lot.ID] = lot
		if lot.ID >= repo.nextID {
			repo.nextID = lot.ID + 1
		}
	}
	return repo
}

func (r *fakeLotRepo) Save(ctx context.Context, lot domain.Lot) (domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot.ID = r.nextID
	r.nextID++
	r.lots[lot.ID] = lot
	return lot, nil
}

func (r *fakeLotRepo) FindByID(ctx context.Context, id int64) (domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return domain.Lot{}, domain.ErrLotNotFound
	}
	return lot, nil
}

func (r *fakeLotRepo) FindByStatus(ctx context.Context, status domain.LotStatus, page, size int) ([]domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}

	var matched []domain.Lot
	for id := int64(1); id < r.nextID; id++ {
		if lot, ok := r.lots[id]; ok && lot.Status == status {
			matched = append(matched, lot)
		}
	}

	start := page * size
	if start >= len(matched) {
		return nil, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *fakeLotRepo) FindByFilters(ctx context.Context, filter application.LotFilter, page, size int) ([]domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Lot
	for id := int64(1); id < r.nextID; id++ {
		lot, ok := r.lots[id]
		if !ok {
			continue
		}
		if filter.Status != nil && lot.Status != *filter.Status {
			continue
		}
		if filter.OwnerID != nil && lot.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, lot)
	}
	return matched, nil
}

func (r *fakeLotRepo) Update(ctx context.Context, lot domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErr[lot.ID]; err != nil {
		return err
	}
	if _, ok := r.lots[lot.ID]; !ok {
		return domain.ErrLotNotFound
	}
	r.lots[lot.ID] = lot
	r.updated = append(r.updated, lot)
	return nil
}

func (r *fakeLotRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[id]; !ok {
		return domain.ErrLotNotFound
	}
	delete(r.lots, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeLotRepo) get(id int64) domain.Lot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lots[id]
}

// fakeAuctionResults scripts per-lot winner answers. Lots without a script
// entry report errNotScripted so a test fails loudly on unexpected lookups.
type fakeAuctionResults struct {
	mu      sync.Mutex
	winners map[int64]*int64
	errs    map[int64]error
	calls   []int64
}

var errNotScripted = errors.New("no scripted answer for lot")

func newFakeAuctionResults() *fakeAuctionResults {
	return &fakeAuctionResults{
		winners: make(map[int64]*int64),
		errs:    make(map[int64]error),
	}
}

func (f *fakeAuctionResults) AuctionWinner(ctx context.Context, lotID int64) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lotID)
	if err, ok := f.errs[lotID]; ok {
		return nil, err
	}
	if winner, ok := f.winners[lotID]; ok {
		return winner, nil
	}
	return nil, errNotScripted
}

func (f *fakeAuctionResults) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeUserDirectory struct {
	users map[int64]application.User
	err   error
}

func (f *fakeUserDirectory) UserByID(ctx context.Context, userID int64) (application.User, error) {
	if f.err != nil {
		return application.User{}, f.err
	}
	user, ok := f.users[userID]
	if !ok {
		return application.User{}, errors.New("user not found")
	}
	return user, nil
}

type fakeEventPublisher struct {
	mu            sync.Mutex
	created       []domain.Lot
	statusChanges []domain.Lot
	err           error
}

func (f *fakeEventPublisher) PublishLotCreated(ctx context.Context, lot domain.Lot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, lot)
	return nil
}

func (f *fakeEventPublisher) PublishLotStatusChanged(ctx context.Context, lot domain.Lot, oldStatus domain.LotStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statusChanges = append(f.statusChanges, lot)
	return nil
}

func (f *fakeEventPublisher) statusChangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusChanges)
}
