package bus

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes messages through a single shared writer. The
// topic is set per message so one publisher serves every outbound topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads one topic with consumer-group semantics and commits
// each message after the handler has run. Commit happens whether or not the
// handler reported an error: an unmatched or malformed message must never
// block the group's progress.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler Handler
	logger  *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, handler Handler, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		handler: handler,
		logger:  logger.With("topic", topic, "group_id", groupID),
	}
}

// Run consumes until ctx is cancelled. It blocks; start it on its own goroutine.
func (c *KafkaConsumer) Run(ctx context.Context) {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return
			}
			c.logger.Error("fetch failed", "error", err)
			return
		}

		if err := c.handler(ctx, msg.Value); err != nil {
			c.logger.Error("handler failed", "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
