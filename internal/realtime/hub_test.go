package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, queue int) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(queue)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func fakeClient(hub *Hub, accountID, buffer int) *Client {
	return &Client{
		hub:      hub,
		identity: auth.Identity{AccountID: accountID, Role: models.RoleClient},
		send:     make(chan []byte, buffer),
	}
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return Envelope{}
}

func TestHubJoinNotifyLeave(t *testing.T) {
	hub := startHub(t, 8)
	tab1 := fakeClient(hub, 5, 4)
	tab2 := fakeClient(hub, 5, 4)
	other := fakeClient(hub, 6, 4)

	hub.Join(tab1)
	hub.Join(tab2)
	hub.Join(other)
	assert.Equal(t, 2, hub.GroupSize(5))
	assert.Equal(t, StateJoined, tab1.State())

	require.NoError(t, hub.Notify(context.Background(), 5, "incoming_message", map[string]int{"message_id": 1}))

	for _, c := range []*Client{tab1, tab2} {
		env := receive(t, c)
		assert.Equal(t, "incoming_message", env.Event)
		assert.JSONEq(t, `{"message_id":1}`, string(env.Data))
	}
	assert.Len(t, other.send, 0)

	hub.Leave(tab1)
	assert.Equal(t, 1, hub.GroupSize(5))
	assert.Equal(t, StateClosed, tab1.State())
	_, open := <-tab1.send
	assert.False(t, open)

	hub.Leave(tab1)
	assert.Equal(t, 1, hub.GroupSize(5))
}

func TestHubNotifyEmptyGroupIsNoop(t *testing.T) {
	hub := startHub(t, 8)
	assert.NoError(t, hub.Notify(context.Background(), 99, "incoming_message", nil))
	assert.Equal(t, 0, hub.GroupSize(99))
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := startHub(t, 8)
	slow := fakeClient(hub, 3, 1)
	hub.Join(slow)

	require.NoError(t, hub.Notify(context.Background(), 3, "incoming_message", 1))
	require.NoError(t, hub.Notify(context.Background(), 3, "incoming_message", 2))

	assert.Eventually(t, func() bool { return hub.GroupSize(3) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateClosed, slow.State())
}

func TestHubNotifyNeverBlocks(t *testing.T) {
	// Not running, so nothing drains the queue.
	hub := NewHub(1)
	require.NoError(t, hub.Notify(context.Background(), 1, "incoming_message", nil))

	done := make(chan error, 1)
	go func() { done <- hub.Notify(context.Background(), 1, "incoming_message", nil) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestHubReplyTargetsOneConnection(t *testing.T) {
	hub := startHub(t, 8)
	tab1 := fakeClient(hub, 5, 4)
	tab2 := fakeClient(hub, 5, 4)
	hub.Join(tab1)
	hub.Join(tab2)

	require.NoError(t, hub.Reply(tab1, "message_sent", SentPayload{MessageID: 4}))
	env := receive(t, tab1)
	assert.Equal(t, "message_sent", env.Event)
	assert.Equal(t, 2, hub.GroupSize(5))
	assert.Len(t, tab2.send, 0)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "joined", StateJoined.String())
	assert.Equal(t, "unknown", State(42).String())
}
