package telemetry

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
)

// PubSubBus wraps the in-memory Bus and additionally publishes every
// lifecycle event to a Google Cloud Pub/Sub topic, so a fleet of server
// processes can feed one cross-instance analytics pipeline.
//
// Fan-out strategy:
//   - Pub/Sub: durable, at-least-once delivery to the analytics pipeline
//   - In-memory: immediate push to the admin dashboard's live feed
type PubSubBus struct {
	*Bus

	client *pubsub.Client
	topic  *pubsub.Topic
	logger *log.Logger
}

// NewPubSubBus creates a Pub/Sub-backed bus, creating the topic if it does
// not already exist.
func NewPubSubBus(projectID, topicID string) (*PubSubBus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub.NewClient: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("topic.Exists: %w", err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("CreateTopic: %w", err)
		}
		slog.Info("telemetry: created pub/sub topic", "topic_id", topicID)
	}

	// Order by lobby code so one lobby's events arrive downstream in order.
	topic.EnableMessageOrdering = true

	bus := &PubSubBus{
		Bus:    NewBus(),
		client: client,
		topic:  topic,
		logger: log.New(log.Writer(), "[telemetry-pubsub] ", log.LstdFlags),
	}
	bus.logger.Printf("connected to pub/sub topic: projects/%s/topics/%s", projectID, topicID)
	return bus, nil
}

// Emit publishes the event to Pub/Sub and fans it out to in-memory
// subscribers (the dashboard feed).
func (pb *PubSubBus) Emit(eventType, lobbyCode string, data map[string]interface{}) {
	event := NewEvent(eventType, lobbyCode, data)
	pb.publishToPubSub(event)
	pb.Bus.Publish(event)
}

func (pb *PubSubBus) publishToPubSub(event *Event) {
	payload, err := event.JSON()
	if err != nil {
		pb.logger.Printf("marshal event %s failed: %v", event.ID, err)
		return
	}

	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"ce-specversion": event.SpecVersion,
			"ce-type":        event.Type,
			"ce-source":      event.Source,
			"ce-id":          event.ID,
			"ce-time":        event.Time.Format(time.RFC3339Nano),
			"ce-lobbycode":   event.LobbyCode,
		},
		OrderingKey: event.LobbyCode,
	}

	result := pb.topic.Publish(context.Background(), msg)
	go func() {
		serverID, err := result.Get(context.Background())
		if err != nil {
			pb.logger.Printf("publish failed: %s -> %v", event.ID, err)
			return
		}
		pb.logger.Printf("published %s -> msgID=%s (type=%s)", event.ID, serverID, event.Type)
	}()
}

// Close gracefully shuts down the Pub/Sub client.
func (pb *PubSubBus) Close() error {
	pb.topic.Stop()
	if err := pb.client.Close(); err != nil {
		return fmt.Errorf("pubsub client close: %w", err)
	}
	return nil
}

// TopicPath returns the fully-qualified Pub/Sub topic path.
func (pb *PubSubBus) TopicPath() string {
	return pb.topic.String()
}

// HealthCheck verifies the Pub/Sub topic is reachable.
func (pb *PubSubBus) HealthCheck(ctx context.Context) error {
	exists, err := pb.topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("topic health check: %w", err)
	}
	if !exists {
		return fmt.Errorf("topic does not exist")
	}
	return nil
}

var _ Emitter = (*PubSubBus)(nil)
