package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/imbuy/marketplace/internal/breaker"
	"github.com/imbuy/marketplace/internal/bridge"
	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/config"
	"github.com/imbuy/marketplace/internal/events"
	"github.com/imbuy/marketplace/internal/metrics"
)

// BidServiceClient implements application.AuctionResults over the
// bid-requests/bid-responses topic pair, guarded by its own breaker. The
// winner id is nil for auctions that finished without bids.
type BidServiceClient struct {
	breaker *breaker.CapabilityBreaker
	bridge  *bridge.Bridge[int64, *int64]
}

func NewBidServiceClient(publisher bus.Publisher, cfg config.BreakerConfig, logger *slog.Logger) *BidServiceClient {
	return &BidServiceClient{
		breaker: breaker.New("bid-service", cfg, logger),
		bridge: bridge.New(
			events.TopicBidRequests,
			publisher,
			cfg.CallTimeout,
			encodeBidWinnerRequest,
			decodeBidWinnerResponse,
			logger,
		),
	}
}

func (c *BidServiceClient) AuctionWinner(ctx context.Context, lotID int64) (*int64, error) {
	start := time.Now()
	winnerID, err := breaker.Execute(ctx, c.breaker, func(ctx context.Context) (*int64, error) {
		return c.bridge.Call(ctx, lotID)
	})
	metrics.ObserveBridgeRequest("bid-winner-lookup", outcomeLabel(err), time.Since(start).Seconds())
	return winnerID, err
}

// ReplyHandler is registered on the bid-responses topic.
func (c *BidServiceClient) ReplyHandler() bus.Handler {
	return c.bridge.HandleReply
}

func (c *BidServiceClient) PendingRequests() int {
	return c.bridge.PendingRequests()
}

func encodeBidWinnerRequest(correlationID string, lotID int64) ([]byte, error) {
	return json.Marshal(events.BidWinnerRequest{
		Envelope:  events.NewEnvelope(events.TypeBidWinnerRequest, SourceService),
		LotID:     lotID,
		RequestID: correlationID,
	})
}

func decodeBidWinnerResponse(value []byte) (string, bridge.Outcome[*int64], error) {
	var resp events.BidWinnerResponse
	if err := json.Unmarshal(value, &resp); err != nil {
		return "", bridge.Outcome[*int64]{}, err
	}

	if !resp.Success {
		message := resp.ErrorMessage
		if message == "" {
			message = "failed to get winner"
		}
		return resp.RequestID, bridge.Outcome[*int64]{Err: &bridge.RemoteError{Message: message}}, nil
	}

	return resp.RequestID, bridge.Outcome[*int64]{Value: resp.WinnerID}, nil
}
