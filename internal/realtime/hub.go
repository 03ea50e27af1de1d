// Package realtime pushes events to browsers over websockets. Connections
// are grouped by account id and every group change or delivery runs on the
// hub goroutine, so no locks guard the groups.
package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgeemedia/cse340-backend/internal/metrics"
)

var ErrQueueFull = errors.New("realtime: delivery queue full")

// Envelope is the wire format of every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

type delivery struct {
	accountID int
	client    *Client // set for a reply to one connection
	event     string
	frame     []byte
}

type sizeQuery struct {
	accountID int
	reply     chan int
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	sizes      chan sizeQuery
	done       chan struct{}

	groups map[int]map[*Client]struct{}
}

// NewHub creates a hub whose delivery queue holds queueSize pending events.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, queueSize),
		sizes:      make(chan sizeQuery),
		done:       make(chan struct{}),
		groups:     make(map[int]map[*Client]struct{}),
	}
}

// Run owns the groups until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, group := range h.groups {
				for c := range group {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			group, ok := h.groups[c.identity.AccountID]
			if !ok {
				group = make(map[*Client]struct{})
				h.groups[c.identity.AccountID] = group
			}
			group[c] = struct{}{}
			c.setState(StateJoined)
			metrics.RealtimeConnections.Inc()

		case c := <-h.unregister:
			if _, ok := h.groups[c.identity.AccountID][c]; ok {
				h.drop(c)
			}

		case d := <-h.deliver:
			if d.client != nil {
				if _, ok := h.groups[d.client.identity.AccountID][d.client]; ok {
					h.send(d.client, d)
				}
				continue
			}
			for c := range h.groups[d.accountID] {
				h.send(c, d)
			}

		case q := <-h.sizes:
			q.reply <- len(h.groups[q.accountID])
		}
	}
}

// send queues a frame without blocking. A connection that cannot keep up
// is dropped rather than stalling every other group.
func (h *Hub) send(c *Client, d delivery) {
	select {
	case c.send <- d.frame:
		metrics.NotificationsDelivered.WithLabelValues(d.event).Inc()
	default:
		metrics.NotificationsDropped.WithLabelValues("slow_consumer").Inc()
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	group := h.groups[c.identity.AccountID]
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.identity.AccountID)
	}
	close(c.send)
	c.setState(StateClosed)
	metrics.RealtimeConnections.Dec()
}

// Join adds a connection to its account's group.
func (h *Hub) Join(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Leave removes a connection. Leaving twice is harmless.
func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify queues an event for every connection of accountID. It never blocks:
// when the queue is full the event is dropped and ErrQueueFull returned.
// An account with no connections is not an error.
func (h *Hub) Notify(_ context.Context, accountID int, event string, payload any) error {
	frame, err := encode(event, payload)
	if err != nil {
		return err
	}
	return h.enqueue(delivery{accountID: accountID, event: event, frame: frame})
}

// Reply queues an event for a single connection.
func (h *Hub) Reply(c *Client, event string, payload any) error {
	frame, err := encode(event, payload)
	if err != nil {
		return err
	}
	return h.enqueue(delivery{client: c, event: event, frame: frame})
}

func (h *Hub) enqueue(d delivery) error {
	select {
	case h.deliver <- d:
		return nil
	default:
		metrics.NotificationsDropped.WithLabelValues("queue_full").Inc()
		return ErrQueueFull
	}
}

// GroupSize reports how many connections accountID currently has.
func (h *Hub) GroupSize(accountID int) int {
	q := sizeQuery{accountID: accountID, reply: make(chan int, 1)}
	select {
	case h.sizes <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}
