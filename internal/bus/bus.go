package bus

import "context"

// Publisher is the port for publishing raw messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Handler processes one consumed message. The consumer commits the message
// after the handler returns, regardless of the returned error, so handlers
// must treat redelivery as possible and poison messages as droppable.
type Handler func(ctx context.Context, value []byte) error
