package notify

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/orchestrator"
)

// PubSubNotifier publishes run events to a Google Cloud Pub/Sub topic.
type PubSubNotifier struct {
	client *pubsub.Client
	topic  *pubsubpb.Topic
	logger *zap.Logger
}

func fullTopicName(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

// NewPubSubNotifier creates a Pub/Sub client and verifies the topic is
// active. It authenticates using Google Cloud's Application Default
// Credentials.
func NewPubSubNotifier(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	request := &pubsubpb.GetTopicRequest{
		Topic: fullTopicName(projectID, topicID),
	}
	topic, err := client.TopicAdminClient.GetTopic(ctx, request)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic retrieval failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get pubsub topic '%s': %w", topicID, err)
	}
	if topic.State != pubsubpb.Topic_ACTIVE {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic state check", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic '%s' is not active in project '%s'", topicID, projectID)
	}

	return &PubSubNotifier{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Publish sends the run event to the topic. The send is asynchronous; the
// Pub/Sub client handles batching and retries in the background.
func (p *PubSubNotifier) Publish(ctx context.Context, summary orchestrator.Summary) error {
	payload, err := eventPayload(summary)
	if err != nil {
		return err
	}

	publisher := p.client.Publisher(p.topic.Name)
	result := publisher.Publish(ctx, &pubsub.Message{Data: payload})
	_ = result // Fire-and-forget; the client retries in the background.

	return nil
}

// Close stops the publisher and closes the underlying client connection.
func (p *PubSubNotifier) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub client: %w", err)
	}
	return nil
}
