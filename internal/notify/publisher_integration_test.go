//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"knowledgehub/internal/notify"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/testutil/containers"
)

func TestPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)
	const topic = "knowledgehub.notifications.test"

	publisher, err := notify.New(ctx, redpanda.Brokers, topic, slog.Default())
	require.NoError(t, err)
	defer publisher.Close(ctx)

	docID := id.NewDocumentID()
	event := notify.Event{
		Type:       notify.EventDocumentApproved,
		DocumentID: docID,
		ActorID:    id.NewUserID(),
		OwnerID:    id.NewUserID(),
		OccurredAt: time.Now().UTC(),
	}
	publisher.Publish(ctx, event)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, docID.String(), string(records[0].Key))

	var got notify.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, notify.EventDocumentApproved, got.Type)
	require.Equal(t, docID, got.DocumentID)
}
