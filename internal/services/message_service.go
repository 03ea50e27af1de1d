package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/metrics"
	"github.com/dgeemedia/cse340-backend/internal/models"
)

const (
	MsgChooseRecipient      = "Please choose a recipient."
	MsgEmptyBody            = "Message body cannot be empty."
	MsgRecipientUnavailable = "Recipient is not available to you."
)

// Send origins, used as a metrics label.
const (
	OriginForm     = "form"
	OriginRealtime = "realtime"
)

// IncomingMessage is the payload pushed to a recipient's connections.
type IncomingMessage struct {
	MessageID int    `json:"message_id"`
	From      int    `json:"from"`
	FromName  string `json:"from_name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	SentAt    string `json:"created_at"`
}

type MessageService struct {
	messages MessageStore
	accounts AccountStore
	notifier Notifier
}

func NewMessageService(messages MessageStore, accounts AccountStore, notifier Notifier) *MessageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageService{
		messages: messages,
		accounts: accounts,
		notifier: notifier,
	}
}

// Compose returns the accounts the viewer may write to. Clients see staff,
// staff see clients.
func (s *MessageService) Compose(ctx context.Context, viewer auth.Identity) ([]models.Recipient, error) {
	return s.accounts.ListByRoles(ctx, viewer.Role.Counterparts())
}

// Send validates and stores a message, then pushes it to the recipient.
// Validation stops at the first failure and nothing is written on failure.
// A push failure is logged and never fails the send.
func (s *MessageService) Send(ctx context.Context, sender auth.Identity, req models.SendMessageRequest, origin string) (*models.Message, error) {
	recipientID, ok := parseID(req.RecipientID)
	if !ok {
		return nil, invalid(MsgChooseRecipient)
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, invalid(MsgEmptyBody)
	}

	// The role pairing is checked against stored accounts, never the form.
	eligible, err := s.accounts.ListByRoles(ctx, sender.Role.Counterparts())
	if err != nil {
		return nil, err
	}
	if !containsRecipient(eligible, recipientID) {
		return nil, invalid(MsgRecipientUnavailable)
	}

	msg := &models.Message{
		SenderID:    sender.AccountID,
		RecipientID: recipientID,
		Subject:     truncate(strings.TrimSpace(req.Subject), 255),
		Body:        body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, storeErr(err)
	}
	msg.SenderFirst = sender.FirstName
	msg.SenderLast = sender.LastName

	if origin == "" {
		origin = OriginForm
	}
	metrics.MessagesSent.WithLabelValues(origin).Inc()

	s.push(ctx, recipientID, EventIncomingMessage, IncomingMessage{
		MessageID: msg.ID,
		From:      sender.AccountID,
		FromName:  strings.TrimSpace(sender.FirstName + " " + sender.LastName),
		Subject:   msg.Subject,
		Body:      msg.Body,
		SentAt:    msg.CreatedAt.UTC().Format(time.RFC3339),
	})

	return msg, nil
}

func (s *MessageService) Inbox(ctx context.Context, viewer auth.Identity) ([]*models.Message, error) {
	return s.messages.ListInbox(ctx, viewer.AccountID)
}

func (s *MessageService) Outbox(ctx context.Context, viewer auth.Identity) ([]*models.Message, error) {
	return s.messages.ListOutbox(ctx, viewer.AccountID)
}

func (s *MessageService) UnreadCount(ctx context.Context, viewer auth.Identity) (int, error) {
	return s.messages.CountUnread(ctx, viewer.AccountID)
}

// MarkRead sets the read flag. Only the recipient may change it.
func (s *MessageService) MarkRead(ctx context.Context, requester auth.Identity, messageID int, isRead bool) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, storeErr(err)
	}
	if msg.RecipientID != requester.AccountID {
		return nil, ErrForbidden
	}
	updated, err := s.messages.SetRead(ctx, messageID, isRead)
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// Delete removes a message for good. Either participant may delete it.
func (s *MessageService) Delete(ctx context.Context, requester auth.Identity, messageID int) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return storeErr(err)
	}
	if !msg.IsParticipant(requester.AccountID) {
		return ErrForbidden
	}
	return s.messages.Delete(ctx, messageID)
}

// View returns a message to one of its participants. Opening an unread
// message as its recipient marks it read.
func (s *MessageService) View(ctx context.Context, requester auth.Identity, messageID int) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !msg.IsParticipant(requester.AccountID) {
		return nil, ErrForbidden
	}
	if msg.RecipientID == requester.AccountID && !msg.IsRead {
		updated, err := s.messages.SetRead(ctx, messageID, true)
		if err != nil {
			return nil, storeErr(err)
		}
		msg.IsRead = updated.IsRead
		msg.UpdatedAt = updated.UpdatedAt
	}
	return msg, nil
}

func (s *MessageService) push(ctx context.Context, accountID int, event string, payload any) {
	if err := s.notifier.Notify(ctx, accountID, event, payload); err != nil {
		metrics.NotificationsDropped.WithLabelValues("notify_error").Inc()
		log.Printf("[Messages] notify %s to account %d failed: %v", event, accountID, err)
	}
}

func containsRecipient(list []models.Recipient, id int) bool {
	for _, r := range list {
		if r.ID == id {
			return true
		}
	}
	return false
}
