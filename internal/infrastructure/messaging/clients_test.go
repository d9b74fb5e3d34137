package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbuy/marketplace/internal/breaker"
	"github.com/imbuy/marketplace/internal/bridge"
	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/config"
	"github.com/imbuy/marketplace/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func testBreakerConfig(callTimeout time.Duration) config.BreakerConfig {
	return config.BreakerConfig{
		FailureRateThreshold:      50,
		WaitDurationInOpenState:   time.Minute,
		SlidingWindowSize:         20,
		MinimumNumberOfCalls:      4,
		PermittedCallsInHalfOpen:  1,
		SlowCallRateThreshold:     50,
		SlowCallDurationThreshold: time.Second,
		CallTimeout:               callTimeout,
	}
}

// memoryBus routes published requests to a per-topic responder func, which
// answers asynchronously the way a remote service behind a broker would.
type memoryBus struct {
	mu         sync.Mutex
	published  map[string]int
	responders map[string]func(value []byte)
}

func newMemoryBus() *memoryBus {
	return &memoryBus{
		published:  make(map[string]int),
		responders: make(map[string]func(value []byte)),
	}
}

func (m *memoryBus) Publish(ctx context.Context, topic string, key, value []byte) error {
	m.mu.Lock()
	m.published[topic]++
	respond := m.responders[topic]
	m.mu.Unlock()

	if respond != nil {
		go respond(value)
	}
	return nil
}

func (m *memoryBus) respondOn(topic string, respond func(value []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responders[topic] = respond
}

func (m *memoryBus) publishedCount(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[topic]
}

func TestUserServiceClient_RoundTrip(t *testing.T) {
	busFake := newMemoryBus()
	client := NewUserServiceClient(busFake, testBreakerConfig(time.Second), testLogger())
	deliver := client.ReplyHandler()

	busFake.respondOn(events.TopicUserRequests, func(value []byte) {
		var req events.UserRequest
		if err := json.Unmarshal(value, &req); err != nil {
			t.Error(err)
			return
		}
		raw, _ := json.Marshal(events.UserResponse{
			Envelope:  events.NewEnvelope(events.TypeUserResponse, "user-service"),
			RequestID: req.RequestID,
			UserID:    req.UserID,
			Username:  "alice",
			Email:     "alice@example.com",
			Role:      "MODERATOR",
			Success:   true,
		})
		_ = deliver(context.Background(), raw)
	})

	user, err := client.UserByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "MODERATOR", user.Role)
	assert.Equal(t, 0, client.PendingRequests())
}

func TestUserServiceClient_RemoteFailure(t *testing.T) {
	busFake := newMemoryBus()
	client := NewUserServiceClient(busFake, testBreakerConfig(time.Second), testLogger())
	deliver := client.ReplyHandler()

	busFake.respondOn(events.TopicUserRequests, func(value []byte) {
		var req events.UserRequest
		_ = json.Unmarshal(value, &req)
		raw, _ := json.Marshal(events.UserResponse{
			Envelope:     events.NewEnvelope(events.TypeUserResponse, "user-service"),
			RequestID:    req.RequestID,
			Success:      false,
			ErrorMessage: "User not found",
		})
		_ = deliver(context.Background(), raw)
	})

	_, err := client.UserByID(context.Background(), 404)
	var remoteErr *bridge.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "User not found", remoteErr.Message)
}

func TestBidServiceClient_RoundTrip(t *testing.T) {
	busFake := newMemoryBus()
	client := NewBidServiceClient(busFake, testBreakerConfig(time.Second), testLogger())
	deliver := client.ReplyHandler()

	winner := int64(42)
	busFake.respondOn(events.TopicBidRequests, func(value []byte) {
		var req events.BidWinnerRequest
		_ = json.Unmarshal(value, &req)
		raw, _ := json.Marshal(events.BidWinnerResponse{
			Envelope:  events.NewEnvelope(events.TypeBidWinnerResponse, "bid-service"),
			RequestID: req.RequestID,
			LotID:     req.LotID,
			WinnerID:  &winner,
			Success:   true,
		})
		_ = deliver(context.Background(), raw)
	})

	got, err := client.AuctionWinner(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, winner, *got)
}

func TestBidServiceClient_NoBidsYieldsNilWinner(t *testing.T) {
	busFake := newMemoryBus()
	client := NewBidServiceClient(busFake, testBreakerConfig(time.Second), testLogger())
	deliver := client.ReplyHandler()

	busFake.respondOn(events.TopicBidRequests, func(value []byte) {
		var req events.BidWinnerRequest
		_ = json.Unmarshal(value, &req)
		raw, _ := json.Marshal(events.BidWinnerResponse{
			Envelope:  events.NewEnvelope(events.TypeBidWinnerResponse, "bid-service"),
			RequestID: req.RequestID,
			LotID:     req.LotID,
			WinnerID:  nil,
			Success:   true,
		})
		_ = deliver(context.Background(), raw)
	})

	got, err := client.AuctionWinner(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBidServiceClient_TimeoutWhenResponderSilent(t *testing.T) {
	busFake := newMemoryBus()
	client := NewBidServiceClient(busFake, testBreakerConfig(30*time.Millisecond), testLogger())

	_, err := client.AuctionWinner(context.Background(), 1)
	require.ErrorIs(t, err, bridge.ErrTimeout)
	assert.Equal(t, 0, client.PendingRequests(), "timed-out call leaked a pending entry")
}

func TestBidServiceClient_OpenBreakerDoesNotPublish(t *testing.T) {
	busFake := newMemoryBus()
	cfg := testBreakerConfig(10 * time.Millisecond)
	client := NewBidServiceClient(busFake, cfg, testLogger())

	// Silent responder trips the breaker on timeouts.
	for i := 0; i < int(cfg.MinimumNumberOfCalls); i++ {
		_, err := client.AuctionWinner(context.Background(), int64(i))
		require.ErrorIs(t, err, bridge.ErrTimeout)
	}
	publishedBeforeOpen := busFake.publishedCount(events.TopicBidRequests)
	require.Equal(t, int(cfg.MinimumNumberOfCalls), publishedBeforeOpen)

	_, err := client.AuctionWinner(context.Background(), 99)
	require.ErrorIs(t, err, breaker.ErrServiceUnavailable)
	assert.Equal(t, publishedBeforeOpen, busFake.publishedCount(events.TopicBidRequests),
		"open breaker still published a request")
}

func TestUserServiceClient_UnknownCorrelationReplyIgnored(t *testing.T) {
	busFake := newMemoryBus()
	client := NewUserServiceClient(busFake, testBreakerConfig(time.Second), testLogger())
	deliver := client.ReplyHandler()

	raw, _ := json.Marshal(events.UserResponse{
		Envelope:  events.NewEnvelope(events.TypeUserResponse, "user-service"),
		RequestID: "never-issued",
		Success:   true,
	})

	// Stray replies are dropped and acked, never an error.
	assert.NoError(t, deliver(context.Background(), raw))
	assert.NoError(t, deliver(context.Background(), []byte("not json")))
	assert.Equal(t, 0, client.PendingRequests())
}

var _ bus.Publisher = (*memoryBus)(nil)
