package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const (
	schemaVersion          = "1.0"
	EventPasswordResetSent = "crm.user.password_reset_requested"
)

type eventEnvelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Source    string    `json:"source"`
	Payload   any       `json:"payload"`
}

// KafkaNotifier publishes reset requests for a mailer service to consume.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	source   string
	now      func() time.Time
}

// NewKafkaProducer connects a synchronous producer to brokers.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 0

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaNotifier creates a notifier writing to topic.
func NewKafkaNotifier(producer sarama.SyncProducer, topic, source string) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		topic:    topic,
		source:   source,
		now:      time.Now,
	}
}

func (n *KafkaNotifier) NotifyPasswordReset(ctx context.Context, msg PasswordReset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: EventPasswordResetSent,
		Timestamp: n.now().UTC(),
		Version:   schemaVersion,
		Source:    n.source,
		Payload:   msg,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	_, _, err = n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(msg.UserID, 10)),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventPasswordResetSent, err)
	}
	return nil
}
