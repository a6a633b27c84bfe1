// Package notify publishes engagement events to Kafka so downstream consumers
// (mail, digests, search indexing) can react without coupling to the API
// process. Delivery is fire-and-forget: notification loss is acceptable,
// blocking a request on the broker is not.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	id "knowledgehub/pkg/domain"
)

// EventType names one notification kind.
type EventType string

const (
	EventDocumentApproved EventType = "document.approved"
	EventDocumentRejected EventType = "document.rejected"
	EventCommentCreated   EventType = "comment.created"
	EventDocumentLiked    EventType = "document.liked"
	EventDocumentFlagged  EventType = "document.flagged"
)

// Event is the wire payload. DocumentID keys the partition so per-document
// ordering survives repartitioning.
type Event struct {
	Type       EventType     `json:"type"`
	DocumentID id.DocumentID `json:"document_id"`
	ActorID    id.UserID     `json:"actor_id"`
	OwnerID    id.UserID     `json:"owner_id"`
	Detail     string        `json:"detail,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher sends events to a Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 3, 1, nil, topic); err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Publish serializes the event and hands it to the producer without waiting
// for the broker. Failures are logged; callers never see them.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal notification", "type", string(event.Type), "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DocumentID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.WarnContext(ctx, "notification delivery failed",
				"type", string(event.Type),
				"document_id", event.DocumentID.String(),
				"error", err,
			)
		}
	})
}

// Close flushes pending records and shuts down the producer.
func (p *Publisher) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "notification flush failed", "error", err)
	}
	p.client.Close()
}
