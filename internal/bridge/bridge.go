// Package bridge makes the asynchronous request/reply topic pair of a remote
// capability look like a synchronous call with a deadline.
//
// A call publishes a request carrying a fresh correlation id, parks the
// caller on a single-assignment slot, and returns when the reply listener
// resolves the slot or the deadline passes. Whatever the outcome, the
// registry holds no entry for the correlation id after Call returns.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imbuy/marketplace/internal/bus"
)

// ErrTimeout is returned when no reply arrived within the call deadline.
// The request has already been published; the remote side may still answer,
// and that late reply will be dropped by the reply listener.
var ErrTimeout = errors.New("timed out waiting for reply")

// RemoteError is a failure the responding service reported (success=false).
// It is a recoverable outcome, not a transport fault.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// EncodeFunc builds the wire request for a correlation id and payload.
type EncodeFunc[Req any] func(correlationID string, req Req) ([]byte, error)

// DecodeFunc parses a wire reply into its correlation id and outcome.
// The returned error means the bytes were not a reply at all.
type DecodeFunc[Resp any] func(value []byte) (correlationID string, out Outcome[Resp], err error)

// Bridge is one remote capability: an outbound request topic, an inbound
// reply stream, and the registry correlating the two. Instantiate one per
// capability and register HandleReply on the capability's response topic.
type Bridge[Req, Resp any] struct {
	topic     string
	publisher bus.Publisher
	registry  *Registry[Resp]
	timeout   time.Duration
	encode    EncodeFunc[Req]
	decode    DecodeFunc[Resp]
	logger    *slog.Logger
}

func New[Req, Resp any](
	topic string,
	publisher bus.Publisher,
	timeout time.Duration,
	encode EncodeFunc[Req],
	decode DecodeFunc[Resp],
	logger *slog.Logger,
) *Bridge[Req, Resp] {
	return &Bridge[Req, Resp]{
		topic:     topic,
		publisher: publisher,
		registry:  NewRegistry[Resp](),
		timeout:   timeout,
		encode:    encode,
		decode:    decode,
		logger:    logger.With("topic", topic),
	}
}

// Call publishes a correlated request and waits for its reply.
//
// Outcomes:
//   - reply with success: the decoded value, nil error
//   - reply with a reported failure: zero value, *RemoteError
//   - no reply within the deadline: zero value, ErrTimeout
//   - publish failure: zero value, the wrapped transport error
//
// Every exit path removes the registry entry, so a reply arriving after Call
// returned finds no waiter.
func (b *Bridge[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	var zero Resp

	correlationID, slot := b.registry.Register()

	value, err := b.encode(correlationID, req)
	if err != nil {
		b.registry.Remove(correlationID)
		return zero, fmt.Errorf("encode request: %w", err)
	}

	b.logger.Info("sending request", "correlation_id", correlationID)
	if err := b.publisher.Publish(ctx, b.topic, []byte(correlationID), value); err != nil {
		b.registry.Remove(correlationID)
		return zero, fmt.Errorf("publish to %s: %w", b.topic, err)
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case out := <-slot:
		// Resolve already removed the entry.
		return out.Value, out.Err
	case <-timer.C:
		b.registry.Remove(correlationID)
		b.logger.Warn("request timed out", "correlation_id", correlationID, "timeout", b.timeout)
		return zero, ErrTimeout
	case <-ctx.Done():
		b.registry.Remove(correlationID)
		return zero, ctx.Err()
	}
}

// HandleReply is the bus handler for the capability's response topic. It
// always returns nil so the consumer commits and keeps moving: a reply with
// no pending entry is evidence of a timeout or duplicate delivery, not an
// error.
func (b *Bridge[Req, Resp]) HandleReply(ctx context.Context, value []byte) error {
	correlationID, out, err := b.decode(value)
	if err != nil {
		b.logger.Error("dropping undecodable reply", "error", err)
		return nil
	}

	if !b.registry.Resolve(correlationID, out) {
		b.logger.Warn("no pending request for correlation id", "correlation_id", correlationID)
	}
	return nil
}

// PendingRequests reports the number of in-flight calls.
func (b *Bridge[Req, Resp]) PendingRequests() int {
	return b.registry.Len()
}
