package gcppubsub_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueltrack/mq/gcppubsub"
	"fueltrack/mq/mq"
)

// This suite needs the Pub/Sub emulator:
//
//	gcloud beta emulators pubsub start --project=test-project
//
// Without PUBSUB_EMULATOR_HOST every broker test is skipped.
const testProjectID = "test-project"

func getTestQueue(t *testing.T) *gcppubsub.PubSubLedgerMessageQueue {
	t.Helper()
	if os.Getenv("PUBSUB_EMULATOR_HOST") == "" {
		t.Skip("PUBSUB_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := gcppubsub.NewClient(ctx, testProjectID)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	q, err := gcppubsub.NewPubSubLedgerMessageQueue(ctx, client, "fueltrack-ledger-test")
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestGetGCPProjectID(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "")
	_, err := gcppubsub.GetGCPProjectID("")
	assert.Error(t, err)

	id, err := gcppubsub.GetGCPProjectID("explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)

	t.Setenv("GCP_PROJECT_ID", "from-env")
	id, err = gcppubsub.GetGCPProjectID("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", id)
}

func TestPublishSubscribe(t *testing.T) {
	q := getTestQueue(t)

	id, ch, err := q.Subscribe()
	require.NoError(t, err)
	defer q.DeSubscribe(id)

	msg := mq.NewLedgerMessage(mq.ActionRecompute, 0, 4, nil, time.Now())
	require.NoError(t, q.Publish(context.Background(), msg))

	select {
	case got := <-ch:
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, mq.ActionRecompute, got.Action)
	case <-time.After(10 * time.Second):
		t.Fatal("no message received")
	}
}
