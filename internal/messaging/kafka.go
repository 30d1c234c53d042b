package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

// MessageBus publishes watch-activity events. The offline embedding batch and
// analytics jobs consume them; the interactive path only produces.
type MessageBus struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	topic := cfg.Kafka.Topics.WatchActivity
	if topic == "" {
		return nil, fmt.Errorf("kafka watch activity topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key by profile so one profile's events stay ordered
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &MessageBus{
		writer: writer,
		logger: logger,
	}, nil
}

func (mb *MessageBus) PublishWatchEvent(event models.WatchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal watch event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ProfileID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "action", Value: []byte(event.Action)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mb.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish watch event: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"profile_id": event.ProfileID,
		"title_id":   event.TitleID,
		"action":     event.Action,
	}).Debug("Watch event published")

	return nil
}

func (mb *MessageBus) Close() error {
	if mb.writer != nil {
		return mb.writer.Close()
	}
	return nil
}
