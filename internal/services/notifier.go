package services

import "context"

// Realtime event names shared by the notifier and browser clients.
const (
	EventIncomingMessage = "incoming_message"
	EventMessageSent     = "message_sent"
	EventError           = "error"
	EventReviewReply     = "review_reply"
)

// Notifier pushes an event to every live connection of one account. An
// account with no connections is not an error. Implementations must not
// block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, accountID int, event string, payload any) error
}

// NopNotifier drops every event. Used when realtime delivery is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int, string, any) error { return nil }
