package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/domain"
	"github.com/imbuy/marketplace/internal/metrics"
)

// CloseExpiredLotsService finalizes auctions whose end date has passed. It is
// the primary consumer of the bid-winner bridge: every expired ACTIVE lot is
// transitioned to COMPLETED, with the winner attributed when the bid service
// answered in time and without one when it did not. A lot is never left
// ACTIVE because a downstream dependency is degraded.
type CloseExpiredLotsService struct {
	lots     application.LotRepository
	results  application.AuctionResults
	events   application.EventPublisher
	pageSize int
	logger   *slog.Logger
}

func NewCloseExpiredLotsService(
	lots application.LotRepository,
	results application.AuctionResults,
	events application.EventPublisher,
	pageSize int,
	logger *slog.Logger,
) *CloseExpiredLotsService {
	return &CloseExpiredLotsService{
		lots:     lots,
		results:  results,
		events:   events,
		pageSize: pageSize,
		logger:   logger,
	}
}

// CloseExpiredLots pages through ACTIVE lots and closes the expired ones.
// All pages are fetched before any lot is closed, otherwise completed lots
// would shift the remaining pages under the cursor. One lot's failure never
// aborts the rest of the sweep; only a failed page fetch does.
func (s *CloseExpiredLotsService) CloseExpiredLots(ctx context.Context) error {
	var candidates []domain.Lot
	for page := 0; ; page++ {
		lots, err := s.lots.FindByStatus(ctx, domain.StatusActive, page, s.pageSize)
		if err != nil {
			return fmt.Errorf("list active lots: %w", err)
		}
		if len(lots) == 0 {
			break
		}
		candidates = append(candidates, lots...)
	}

	var closed, failed int
	for _, lot := range candidates {
		if !lot.Expired(time.Now()) {
			continue
		}
		if err := s.closeLot(ctx, lot); err != nil {
			s.logger.Error("failed to close expired lot", "lot_id", lot.ID, "error", err)
			failed++
			continue
		}
		closed++
	}

	s.logger.Info("expired lot sweep finished", "closed", closed, "failed", failed)
	return nil
}

func (s *CloseExpiredLotsService) closeLot(ctx context.Context, lot domain.Lot) error {
	winnerID, err := s.results.AuctionWinner(ctx, lot.ID)
	if err != nil {
		// Timeout, remote failure and circuit-open all take the same path:
		// close without a winner rather than leave the lot ACTIVE.
		s.logger.Warn("winner lookup failed, closing without winner",
			"lot_id", lot.ID,
			"error", err,
		)
		winnerID = nil
	}

	completed, err := lot.Close(winnerID)
	if err != nil {
		return err
	}

	if err := s.lots.Update(ctx, completed); err != nil {
		return fmt.Errorf("persist completed lot: %w", err)
	}
	metrics.IncLotClosed(winnerID != nil)

	if err := s.events.PublishLotStatusChanged(ctx, completed, domain.StatusActive); err != nil {
		s.logger.Error("failed to publish lot status change", "lot_id", lot.ID, "error", err)
	}

	s.logger.Info("closed expired lot", "lot_id", lot.ID, "winner_attributed", winnerID != nil)
	return nil
}
