package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topic names shared across the imbuy services. Every service publishes and
// consumes with these exact names; changing one is a wire-protocol change.
const (
	TopicUserEvents    = "user-events"
	TopicUserRequests  = "user-requests"
	TopicUserResponses = "user-responses"

	TopicLotEvents = "lot-events"

	TopicBidEvents    = "bid-events"
	TopicBidRequests  = "bid-requests"
	TopicBidResponses = "bid-responses"

	TopicNotifications = "notifications"
	TopicFileEvents    = "file-events"
)

// Event type discriminators carried in the envelope.
const (
	TypeUserRequest       = "USER_REQUEST"
	TypeUserResponse      = "USER_RESPONSE"
	TypeBidWinnerRequest  = "BID_WINNER_REQUEST"
	TypeBidWinnerResponse = "BID_WINNER_RESPONSE"
	TypeLotCreated        = "LOT_CREATED"
	TypeLotStatusChanged  = "LOT_STATUS_CHANGED"
)

// RequestTypeGetUserByID is the only user-request kind the lot service issues.
const RequestTypeGetUserByID = "GET_USER_BY_ID"

// Envelope carries the fields common to every event on the bus.
type Envelope struct {
	EventID       uuid.UUID `json:"eventId"`
	EventType     string    `json:"eventType"`
	Timestamp     time.Time `json:"timestamp"`
	SourceService string    `json:"sourceService"`
}

func NewEnvelope(eventType, sourceService string) Envelope {
	return Envelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		Timestamp:     time.Now(),
		SourceService: sourceService,
	}
}

// UserRequest asks the user service for an authoritative answer about a user.
type UserRequest struct {
	Envelope
	UserID      int64  `json:"userId"`
	RequestID   string `json:"requestId"`
	RequestType string `json:"requestType"`
}

// UserResponse is the user service's correlated reply on TopicUserResponses.
type UserResponse struct {
	Envelope
	RequestID    string `json:"requestId"`
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// BidWinnerRequest asks the bid service who won a finished auction.
type BidWinnerRequest struct {
	Envelope
	LotID     int64  `json:"lotId"`
	RequestID string `json:"requestId"`
}

// BidWinnerResponse is the bid service's correlated reply on TopicBidResponses.
// WinnerID is nil when the auction closed without a single bid.
type BidWinnerResponse struct {
	Envelope
	RequestID    string `json:"requestId"`
	LotID        int64  `json:"lotId"`
	WinnerID     *int64 `json:"winnerId"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// LotCreated announces a freshly submitted lot on TopicLotEvents.
type LotCreated struct {
	Envelope
	LotID      int64           `json:"lotId"`
	Title      string          `json:"title"`
	OwnerID    int64           `json:"ownerId"`
	StartPrice decimal.Decimal `json:"startPrice"`
	EndDate    *time.Time      `json:"endDate"`
}

// LotStatusChanged announces a lot lifecycle transition on TopicLotEvents.
type LotStatusChanged struct {
	Envelope
	LotID     int64  `json:"lotId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	WinnerID  *int64 `json:"winnerId"`
}
