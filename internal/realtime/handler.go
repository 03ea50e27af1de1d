package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/services"

	"github.com/gorilla/websocket"
)

// Client to server events.
const EventDirectMessage = "direct_message"

const (
	msgUnknownEvent = "Unknown event."
	msgBadPayload   = "Message could not be read."
	msgSendFailed   = "Message could not be sent. Please try again later."
)

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// SentPayload confirms a send made over the socket.
type SentPayload struct {
	MessageID   int    `json:"message_id"`
	RecipientID int    `json:"recipient_id"`
	Subject     string `json:"subject"`
	CreatedAt   string `json:"created_at"`
}

type Options struct {
	CookieName      string
	SendBuffer      int
	PingInterval    time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string
}

// OptionsFrom reads the realtime section of the config.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		CookieName:      cfg.JWT.CookieName,
		SendBuffer:      cfg.Realtime.SendBuffer,
		PingInterval:    cfg.Realtime.PingInterval,
		MaxMessageBytes: cfg.Realtime.MaxMessageBytes,
		AllowedOrigins:  cfg.Server.CorsAllowedOrigins,
	}
}

func (o Options) withDefaults() Options {
	if o.CookieName == "" {
		o.CookieName = "jwt"
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 16
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 50 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 8192
	}
	return o
}

// Handler upgrades authenticated requests and serves the socket protocol.
type Handler struct {
	hub      *Hub
	tokens   *auth.TokenManager
	messages *services.MessageService
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, tokens *auth.TokenManager, messages *services.MessageService, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		hub:      hub,
		tokens:   tokens,
		messages: messages,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
	}
}

// ServeHTTP verifies the identity cookie before upgrading. A request without
// a valid token is refused with 401 and never reaches a group.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tokens.Verify(auth.TokenFromRequest(r, h.opts.CookieName))
	if err != nil {
		var verr *auth.VerifyError
		if errors.As(err, &verr) {
			log.Printf("[Realtime] handshake rejected from %s: %s", r.RemoteAddr, verr.Kind)
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Realtime] upgrade failed for account %d: %v", identity.AccountID, err)
		return
	}

	c := newClient(h.hub, conn, *identity, h.opts)
	h.hub.Join(c)
	go c.writePump()
	c.readPump(h.handle)
}

func (h *Handler) handle(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reply(c, services.EventError, ErrorPayload{Message: msgBadPayload})
		return
	}

	switch env.Event {
	case EventDirectMessage:
		h.directMessage(c, env.Data)
	default:
		h.reply(c, services.EventError, ErrorPayload{Message: msgUnknownEvent})
	}
}

// directMessage runs a socket send through the same service path as the
// compose form.
func (h *Handler) directMessage(c *Client, data json.RawMessage) {
	var dm models.DirectMessage
	if len(data) == 0 || json.Unmarshal(data, &dm) != nil {
		h.reply(c, services.EventError, ErrorPayload{Message: msgBadPayload})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := h.messages.Send(ctx, c.identity, models.SendMessageRequest{
		RecipientID: dm.To.String(),
		Subject:     dm.Subject,
		Body:        dm.Body,
	}, services.OriginRealtime)
	if err != nil {
		if messages := services.ValidationMessages(err); len(messages) > 0 {
			h.reply(c, services.EventError, ErrorPayload{Message: messages[0]})
			return
		}
		log.Printf("[Realtime] direct message from account %d failed: %v", c.identity.AccountID, err)
		h.reply(c, services.EventError, ErrorPayload{Message: msgSendFailed})
		return
	}

	h.reply(c, services.EventMessageSent, SentPayload{
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		Subject:     msg.Subject,
		CreatedAt:   msg.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) reply(c *Client, event string, payload any) {
	if err := h.hub.Reply(c, event, payload); err != nil {
		log.Printf("[Realtime] reply %s to account %d dropped: %v", event, c.identity.AccountID, err)
	}
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and any origin listed in allowed.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}
