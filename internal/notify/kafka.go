package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes messages as JSON for a downstream mailer.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

type kafkaEnvelope struct {
	Message
	QueuedAt time.Time `json:"queued_at"`
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return newKafkaNotifier(writer), nil
}

func newKafkaNotifier(writer messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(kafkaEnvelope{Message: msg, QueuedAt: n.now()})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.To), Value: value}); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
