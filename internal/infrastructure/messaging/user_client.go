// Package messaging holds the lot service's bus-facing adapters: the
// capability clients that ride the request/reply bridge and the publisher of
// lot lifecycle events.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/breaker"
	"github.com/imbuy/marketplace/internal/bridge"
	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/config"
	"github.com/imbuy/marketplace/internal/events"
	"github.com/imbuy/marketplace/internal/metrics"
)

// SourceService tags every message this service publishes.
const SourceService = "lot-service"

// UserServiceClient implements application.UserDirectory over the
// user-requests/user-responses topic pair, guarded by its own breaker.
type UserServiceClient struct {
	breaker *breaker.CapabilityBreaker
	bridge  *bridge.Bridge[int64, application.User]
}

func NewUserServiceClient(publisher bus.Publisher, cfg config.BreakerConfig, logger *slog.Logger) *UserServiceClient {
	return &UserServiceClient{
		breaker: breaker.New("user-service", cfg, logger),
		bridge: bridge.New(
			events.TopicUserRequests,
			publisher,
			cfg.CallTimeout,
			encodeUserRequest,
			decodeUserResponse,
			logger,
		),
	}
}

func (c *UserServiceClient) UserByID(ctx context.Context, userID int64) (application.User, error) {
	start := time.Now()
	user, err := breaker.Execute(ctx, c.breaker, func(ctx context.Context) (application.User, error) {
		return c.bridge.Call(ctx, userID)
	})
	metrics.ObserveBridgeRequest("user-lookup", outcomeLabel(err), time.Since(start).Seconds())
	return user, err
}

// ReplyHandler is registered on the user-responses topic.
func (c *UserServiceClient) ReplyHandler() bus.Handler {
	return c.bridge.HandleReply
}

func (c *UserServiceClient) PendingRequests() int {
	return c.bridge.PendingRequests()
}

func encodeUserRequest(correlationID string, userID int64) ([]byte, error) {
	return json.Marshal(events.UserRequest{
		Envelope:    events.NewEnvelope(events.TypeUserRequest, SourceService),
		UserID:      userID,
		RequestID:   correlationID,
		RequestType: events.RequestTypeGetUserByID,
	})
}

func decodeUserResponse(value []byte) (string, bridge.Outcome[application.User], error) {
	var resp events.UserResponse
	if err := json.Unmarshal(value, &resp); err != nil {
		return "", bridge.Outcome[application.User]{}, err
	}

	if !resp.Success {
		message := resp.ErrorMessage
		if message == "" {
			message = "user lookup failed"
		}
		return resp.RequestID, bridge.Outcome[application.User]{Err: &bridge.RemoteError{Message: message}}, nil
	}

	return resp.RequestID, bridge.Outcome[application.User]{Value: application.User{
		ID:       resp.UserID,
		Username: resp.Username,
		Email:    resp.Email,
		Role:     resp.Role,
	}}, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, bridge.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, breaker.ErrServiceUnavailable):
		return metrics.OutcomeCircuitOpen
	default:
		var remoteErr *bridge.RemoteError
		if errors.As(err, &remoteErr) {
			return metrics.OutcomeRemoteError
		}
		return metrics.OutcomeError
	}
}
