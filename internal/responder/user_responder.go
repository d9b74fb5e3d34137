package responder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/events"
	"github.com/imbuy/marketplace/internal/infrastructure/persistence/postgres"
)

const userSourceService = "user-service"

// UserResponder consumes user-requests and publishes the correlated answer
// on user-responses.
type UserResponder struct {
	users     UserSource
	publisher bus.Publisher
	logger    *slog.Logger
}

func NewUserResponder(users UserSource, publisher bus.Publisher, logger *slog.Logger) *UserResponder {
	return &UserResponder{
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle processes one user request. Unknown request kinds and missing users
// come back as success=false; only undecodable payloads are dropped outright.
func (r *UserResponder) Handle(ctx context.Context, value []byte) error {
	var req events.UserRequest
	if err := json.Unmarshal(value, &req); err != nil {
		r.logger.Error("dropping undecodable user request", "error", err)
		return nil
	}

	r.logger.Info("received user request",
		"request_id", req.RequestID,
		"user_id", req.UserID,
		"request_type", req.RequestType,
	)

	resp := events.UserResponse{
		Envelope:  events.NewEnvelope(events.TypeUserResponse, userSourceService),
		RequestID: req.RequestID,
	}

	switch req.RequestType {
	case events.RequestTypeGetUserByID:
		user, err := r.users.FindByID(ctx, req.UserID)
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			resp.Success = false
			resp.ErrorMessage = "User not found"
		case err != nil:
			r.logger.Error("user lookup failed", "user_id", req.UserID, "error", err)
			resp.Success = false
			resp.ErrorMessage = err.Error()
		default:
			resp.Success = true
			resp.UserID = user.ID
			resp.Username = user.Username
			resp.Email = user.Email
			resp.Role = user.Role
		}
	default:
		resp.Success = false
		resp.ErrorMessage = "unsupported request type: " + req.RequestType
	}

	out, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("failed to encode user response", "request_id", req.RequestID, "error", err)
		return nil
	}
	if err := r.publisher.Publish(ctx, events.TopicUserResponses, []byte(req.RequestID), out); err != nil {
		r.logger.Error("failed to publish user response", "request_id", req.RequestID, "error", err)
	}
	return nil
}
