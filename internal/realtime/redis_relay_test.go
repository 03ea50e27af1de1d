package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relayChannel = "dealer:notifications"

func newRelay(t *testing.T, mr *miniredis.Miniredis, hub *Hub) *RedisRelay {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	relay := NewRedisRelay(client, relayChannel, hub)
	relay.minBackoff = 10 * time.Millisecond
	relay.maxBackoff = 50 * time.Millisecond
	return relay
}

func runRelay(t *testing.T, relay *RedisRelay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRedisRelayDeliversLocallyWithoutSubscription(t *testing.T) {
	mr := miniredis.RunT(t)
	hub := startHub(t, 8)
	recipient := fakeClient(hub, 7, 4)
	hub.Join(recipient)

	relay := newRelay(t, mr, hub)
	require.False(t, relay.Subscribed())

	require.NoError(t, relay.Notify(context.Background(), 7, "incoming_message", map[string]int{"message_id": 3}))

	env := receive(t, recipient)
	assert.Equal(t, "incoming_message", env.Event)
	assert.JSONEq(t, `{"message_id":3}`, string(env.Data))
}

func TestRedisRelayDeliversThroughSubscription(t *testing.T) {
	mr := miniredis.RunT(t)
	hub := startHub(t, 8)
	recipient := fakeClient(hub, 7, 4)
	hub.Join(recipient)

	relay := newRelay(t, mr, hub)
	runRelay(t, relay)
	require.Eventually(t, relay.Subscribed, time.Second, 5*time.Millisecond)

	require.NoError(t, relay.Notify(context.Background(), 7, "review_reply", map[string]int{"review_id": 2}))
	env := receive(t, recipient)
	assert.Equal(t, "review_reply", env.Event)
	assert.JSONEq(t, `{"review_id":2}`, string(env.Data))
	assert.Len(t, recipient.send, 0, "published event must arrive once")

	// Another instance publishing on the channel reaches local sockets.
	mr.Publish(relayChannel, `{"account_id":7,"event":"incoming_message","data":{"message_id":9}}`)
	env = receive(t, recipient)
	assert.Equal(t, "incoming_message", env.Event)
	assert.JSONEq(t, `{"message_id":9}`, string(env.Data))

	mr.Publish(relayChannel, `not json`)
	mr.Publish(relayChannel, `{"account_id":0,"event":"incoming_message"}`)
	select {
	case frame := <-recipient.send:
		t.Fatalf("malformed frame delivered: %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisRelayRetriesSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	hub := startHub(t, 8)
	recipient := fakeClient(hub, 7, 4)
	hub.Join(recipient)

	relay := newRelay(t, mr, hub)
	mr.Close()
	runRelay(t, relay)

	time.Sleep(30 * time.Millisecond)
	assert.False(t, relay.Subscribed())

	// Redis is down and nothing is subscribed, so the push stays local.
	require.NoError(t, relay.Notify(context.Background(), 7, "incoming_message", map[string]int{"message_id": 1}))
	assert.Equal(t, "incoming_message", receive(t, recipient).Event)

	require.NoError(t, mr.Restart())
	require.Eventually(t, relay.Subscribed, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, relay.Notify(context.Background(), 7, "incoming_message", map[string]int{"message_id": 2}))
	env := receive(t, recipient)
	assert.JSONEq(t, `{"message_id":2}`, string(env.Data))
}
