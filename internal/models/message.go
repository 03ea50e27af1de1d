package models

import "time"

// Message is a directed note between two accounts. Sender and recipient
// names are filled from joins on read paths and are empty on a bare insert.
type Message struct {
	ID          int       `json:"message_id"`
	SenderID    int       `json:"sender_id"`
	RecipientID int       `json:"recipient_id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	SenderFirst    string `json:"sender_first,omitempty"`
	SenderLast     string `json:"sender_last,omitempty"`
	RecipientFirst string `json:"recipient_first,omitempty"`
	RecipientLast  string `json:"recipient_last,omitempty"`
}

// IsParticipant reports whether accountID sent or received the message.
func (m *Message) IsParticipant(accountID int) bool {
	return m.SenderID == accountID || m.RecipientID == accountID
}

// SendMessageRequest is the compose form. RecipientID stays a string so the
// service can tell "missing" apart from "not numeric".
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// MarkReadRequest is the AJAX body for POST /messages/mark-read
type MarkReadRequest struct {
	MessageID FlexibleID `json:"message_id"`
	IsRead    bool       `json:"is_read"`
}

// DirectMessage is the payload of a direct_message realtime event.
type DirectMessage struct {
	To      FlexibleID `json:"to"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
}
