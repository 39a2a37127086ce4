package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/sse"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleEvent() engine.Event {
	return engine.Event{
		Type:         engine.EventStepApproved,
		SubmissionID: "sub-1",
		ChainID:      "chain-1",
		StepID:       "step-1",
		ActorID:      "alice",
		Action:       "approve",
		Status:       "submitted",
		At:           time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func subscribe(hub *sse.Hub, submissionID string) *sse.Client {
	c := &sse.Client{ID: "c-" + submissionID, SubmissionID: submissionID, Events: make(chan sse.Event, 8)}
	hub.Register(c)
	return c
}

func TestHubPublisher(t *testing.T) {
	hub := sse.NewHub(zaptest.NewLogger(t))
	c := subscribe(hub, "sub-1")

	require.NoError(t, NewHubPublisher(hub).Publish(context.Background(), sampleEvent()))

	require.Len(t, c.Events, 1)
	msg := <-c.Events
	assert.Equal(t, engine.EventStepApproved, msg.EventType)
	assert.Equal(t, "sub-1", msg.SubmissionID)

	var decoded engine.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Data), &decoded))
	assert.Equal(t, sampleEvent(), decoded)
}

func TestRelayDeliver(t *testing.T) {
	hub := sse.NewHub(zaptest.NewLogger(t))
	c := subscribe(hub, "")
	relay := NewRelay(nil, "ch", hub, zaptest.NewLogger(t))

	relay.deliver("{not json")
	assert.Len(t, c.Events, 0)

	raw, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	relay.deliver(string(raw))
	require.Len(t, c.Events, 1)
	assert.Equal(t, engine.EventStepApproved, (<-c.Events).EventType)
}

// Requires a reachable redis; set REDIS_ADDR to override localhost:6379.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	channel := "kyc:test-" + time.Now().Format("150405.000000")
	hub := sse.NewHub(zaptest.NewLogger(t))
	c := subscribe(hub, "sub-1")

	relayCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- NewRelay(rdb, channel, hub, zaptest.NewLogger(t)).Run(relayCtx) }()

	pub := NewRedisPublisher(rdb, channel)
	require.Eventually(t, func() bool {
		_ = pub.Publish(ctx, sampleEvent())
		return len(c.Events) > 0
	}, 3*time.Second, 50*time.Millisecond)

	msg := <-c.Events
	assert.Equal(t, "sub-1", msg.SubmissionID)

	stop()
	assert.NoError(t, <-done)
}
