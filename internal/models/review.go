package models

import "time"

const (
	MinRating        = 1
	MaxRating        = 5
	MaxReviewComment = 2000
	MaxReplyText     = 2000
)

type Review struct {
	ID          int       `json:"review_id"`
	InventoryID int       `json:"inv_id"`
	AccountID   int       `json:"account_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined columns
	AuthorFirst  string `json:"account_firstname,omitempty"`
	AuthorLast   string `json:"account_lastname,omitempty"`
	AuthorRole   Role   `json:"account_type,omitempty"`
	VehicleMake  string `json:"inv_make,omitempty"`
	VehicleModel string `json:"inv_model,omitempty"`

	Replies []*ReviewReply `json:"replies,omitempty"`
}

type ReviewReply struct {
	ID            int       `json:"reply_id"`
	ReviewID      int       `json:"review_id"`
	AccountID     int       `json:"account_id"`
	ParentReplyID *int      `json:"parent_reply_id,omitempty"`
	Text          string    `json:"reply_text"`
	CreatedAt     time.Time `json:"created_at"`

	AuthorFirst string `json:"account_firstname,omitempty"`
	AuthorLast  string `json:"account_lastname,omitempty"`
	AuthorRole  Role   `json:"account_type,omitempty"`
}

// RatingSummary is the average rating and count for one vehicle.
type RatingSummary struct {
	Average float64 `json:"avg_rating"`
	Count   int     `json:"count"`
}

// ReviewRequest is shared by the add and update forms. Numeric fields stay
// strings so the service can report which one was malformed.
type ReviewRequest struct {
	ReviewID    string `json:"review_id"`
	InventoryID string `json:"inv_id"`
	Rating      string `json:"rating"`
	Comment     string `json:"comment"`
}

type ReplyRequest struct {
	ReviewID      string `json:"review_id"`
	ParentReplyID string `json:"parent_reply_id"`
	Text          string `json:"reply_text"`
}

// ReviewPage is one page of reviews plus the total used for pagination.
type ReviewPage struct {
	Reviews []*Review `json:"reviews"`
	Total   int       `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}
