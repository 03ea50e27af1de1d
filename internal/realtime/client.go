package realtime

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"

	"github.com/gorilla/websocket"
)

// State tracks a connection through its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateJoined
	StateClosed
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

const writeWait = 10 * time.Second

// Client is one authenticated socket. Only the hub closes send.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity auth.Identity
	send     chan []byte
	state    atomic.Int32

	pingInterval time.Duration
	maxBytes     int64
}

func newClient(hub *Hub, conn *websocket.Conn, identity auth.Identity, opts Options) *Client {
	c := &Client{
		hub:          hub,
		conn:         conn,
		identity:     identity,
		send:         make(chan []byte, opts.SendBuffer),
		pingInterval: opts.PingInterval,
		maxBytes:     opts.MaxMessageBytes,
	}
	c.setState(StateAuthenticated)
	return c
}

func (c *Client) Identity() auth.Identity { return c.identity }

func (c *Client) State() State { return State(c.state.Load()) }

func (c *Client) setState(s State) { c.state.Store(int32(s)) }

// pongWait must exceed pingInterval so one missed pong is tolerated.
func (c *Client) pongWait() time.Duration {
	return c.pingInterval * 6 / 5
}

// readPump hands every inbound frame to handle until the peer goes away,
// then leaves the hub.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.Leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Realtime] account %d read error: %v", c.identity.AccountID, err)
			}
			return
		}
		handle(c, data)
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
