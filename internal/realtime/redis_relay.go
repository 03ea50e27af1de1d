package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	relayMinBackoff = 500 * time.Millisecond
	relayMaxBackoff = 30 * time.Second
)

// relayFrame is what instances exchange over the pub/sub channel.
type relayFrame struct {
	AccountID int             `json:"account_id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}

// RedisRelay fans notifications out to every server instance so a recipient
// connected to another instance still gets the push. Each instance delivers
// what it receives on the channel to its own hub, including its own publishes.
// Until the subscription is live, notifications go straight to the local hub.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	hub        *Hub
	subscribed atomic.Bool
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{
		client:     client,
		channel:    channel,
		hub:        hub,
		minBackoff: relayMinBackoff,
		maxBackoff: relayMaxBackoff,
	}
}

// Subscribed reports whether Run currently holds a live subscription.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Notify publishes the event. Without a live subscription, or when the
// publish fails, the event is delivered to local connections instead.
func (r *RedisRelay) Notify(ctx context.Context, accountID int, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if !r.subscribed.Load() {
		return r.hub.Notify(ctx, accountID, event, json.RawMessage(data))
	}
	frame, err := json.Marshal(relayFrame{AccountID: accountID, Event: event, Data: data})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, frame).Err(); err != nil {
		if lerr := r.hub.Notify(ctx, accountID, event, json.RawMessage(data)); lerr != nil {
			return lerr
		}
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Run keeps a subscription to the channel and feeds the local hub until ctx
// is done. Failed subscribes are retried with exponential backoff.
func (r *RedisRelay) Run(ctx context.Context) {
	backoff := r.minBackoff
	for {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("[Realtime] relay: %v; retrying in %s", err, backoff)
		} else {
			backoff = r.minBackoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if err != nil {
			backoff *= 2
			if backoff > r.maxBackoff {
				backoff = r.maxBackoff
			}
		}
	}
}

// listen holds one subscription until its channel closes or ctx ends.
func (r *RedisRelay) listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	log.Printf("[Realtime] relay subscribed to %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(ctx, []byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload []byte) {
	var f relayFrame
	if err := json.Unmarshal(payload, &f); err != nil || f.AccountID <= 0 || f.Event == "" {
		log.Printf("[Realtime] relay dropped malformed frame")
		return
	}
	if err := r.hub.Notify(ctx, f.AccountID, f.Event, f.Data); err != nil {
		log.Printf("[Realtime] relay delivery to account %d failed: %v", f.AccountID, err)
	}
}
