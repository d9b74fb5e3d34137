package responder

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/events"
)

const bidSourceService = "bid-service"

// BidWinnerResponder consumes bid-requests and publishes the correlated
// answer on bid-responses.
type BidWinnerResponder struct {
	winners   WinnerSource
	publisher bus.Publisher
	logger    *slog.Logger
}

func NewBidWinnerResponder(winners WinnerSource, publisher bus.Publisher, logger *slog.Logger) *BidWinnerResponder {
	return &BidWinnerResponder{
		winners:   winners,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle processes one bid-winner request. It always returns nil: a request
// that cannot even be parsed is logged and dropped, and a lookup failure is
// reported back to the asker as success=false rather than kept here.
func (r *BidWinnerResponder) Handle(ctx context.Context, value []byte) error {
	var req events.BidWinnerRequest
	if err := json.Unmarshal(value, &req); err != nil {
		r.logger.Error("dropping undecodable bid winner request", "error", err)
		return nil
	}

	r.logger.Info("received bid winner request",
		"request_id", req.RequestID,
		"lot_id", req.LotID,
	)

	resp := events.BidWinnerResponse{
		Envelope:  events.NewEnvelope(events.TypeBidWinnerResponse, bidSourceService),
		RequestID: req.RequestID,
		LotID:     req.LotID,
	}

	winnerID, err := r.winners.HighestBidder(ctx, req.LotID)
	if err != nil {
		r.logger.Error("winner lookup failed", "lot_id", req.LotID, "error", err)
		resp.Success = false
		resp.ErrorMessage = err.Error()
	} else {
		resp.Success = true
		resp.WinnerID = winnerID
	}

	out, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("failed to encode bid winner response", "request_id", req.RequestID, "error", err)
		return nil
	}
	if err := r.publisher.Publish(ctx, events.TopicBidResponses, []byte(req.RequestID), out); err != nil {
		r.logger.Error("failed to publish bid winner response", "request_id", req.RequestID, "error", err)
	}
	return nil
}
