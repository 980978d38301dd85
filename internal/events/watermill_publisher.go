package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	metadataEventType    = "event_type"
	metadataPartitionKey = "partition_key"
)

type PublisherConfig struct {
	Brokers     []string
	TopicPrefix string
}

// WatermillPublisher publishes events to one topic per aggregate, named
// "<prefix>.<aggregate>", e.g. classroom.attendance.
type WatermillPublisher struct {
	publisher   message.Publisher
	topicPrefix string
	logger      *slog.Logger
}

var _ EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher connects to Kafka when brokers are configured and
// falls back to an in-process channel otherwise.
func NewWatermillPublisher(cfg PublisherConfig, logger *slog.Logger) (*WatermillPublisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Warn("No Kafka brokers configured, events stay in process")
		pub, _ := NewInProcessPublisher(cfg.TopicPrefix, logger)
		return pub, nil
	}

	marshaler := kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(metadataPartitionKey), nil
	})

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: marshaler,
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	logger.Info("Kafka event publisher ready", "brokers", cfg.Brokers)
	return newWatermillPublisher(publisher, cfg.TopicPrefix, logger), nil
}

// NewInProcessPublisher returns a publisher backed by a gochannel pub/sub.
// The returned GoChannel can be subscribed to directly.
func NewInProcessPublisher(topicPrefix string, logger *slog.Logger) (*WatermillPublisher, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))
	return newWatermillPublisher(pubSub, topicPrefix, logger), pubSub
}

func newWatermillPublisher(publisher message.Publisher, topicPrefix string, logger *slog.Logger) *WatermillPublisher {
	if topicPrefix == "" {
		topicPrefix = "classroom"
	}
	return &WatermillPublisher{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// Topic returns the topic an event type is published to
func (p *WatermillPublisher) Topic(eventType EventType) string {
	aggregate, _, _ := strings.Cut(string(eventType), ".")
	return p.topicPrefix + "." + aggregate
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(metadataEventType, string(event.Type))
	msg.Metadata.Set(metadataPartitionKey, event.Subject)
	msg.SetContext(ctx)

	topic := p.Topic(event.Type)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", event.Type, topic, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "type", event.Type, "topic", topic)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
