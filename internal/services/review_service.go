package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/metrics"
	"github.com/dgeemedia/cse340-backend/internal/models"
)

const (
	MsgInvalidVehicle    = "Invalid vehicle selected."
	MsgInvalidRating     = "Rating must be an integer between 1 and 5."
	MsgInvalidReview     = "Invalid review id."
	MsgClientsOnlyReview = "Only clients may post reviews."
	MsgReplyMissing      = "Missing reply text or review."
	MsgReplyOtherSide    = "Replies must come from the other side of the conversation."
	MsgInvalidParent     = "The reply you are answering does not belong to this review."

	DefaultReviewPageSize = 10
	MaxReviewPageSize     = 50
)

// ReviewReplyEvent is pushed to a review author when someone replies.
type ReviewReplyEvent struct {
	ReviewID    int    `json:"review_id"`
	ReplyID     int    `json:"reply_id"`
	InventoryID int    `json:"inv_id"`
	From        string `json:"from_name"`
	Text        string `json:"reply_text"`
}

type ReviewService struct {
	reviews   ReviewStore
	replies   ReplyStore
	inventory InventoryStore
	notifier  Notifier
}

func NewReviewService(reviews ReviewStore, replies ReplyStore, inventory InventoryStore, notifier Notifier) *ReviewService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ReviewService{
		reviews:   reviews,
		replies:   replies,
		inventory: inventory,
		notifier:  notifier,
	}
}

// ListForVehicle returns one page of reviews with their replies attached.
func (s *ReviewService) ListForVehicle(ctx context.Context, invID, limit, offset int) (*models.ReviewPage, error) {
	if limit <= 0 {
		limit = DefaultReviewPageSize
	}
	if limit > MaxReviewPageSize {
		limit = MaxReviewPageSize
	}
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.reviews.ListByInventory(ctx, invID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.reviews.CountByInventory(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := s.attachReplies(ctx, reviews); err != nil {
		return nil, err
	}

	return &models.ReviewPage{Reviews: reviews, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ReviewService) Summary(ctx context.Context, invID int) (models.RatingSummary, error) {
	return s.reviews.Summary(ctx, invID)
}

func (s *ReviewService) ListByAccount(ctx context.Context, who auth.Identity) ([]*models.Review, error) {
	return s.reviews.ListByAccount(ctx, who.AccountID)
}

// Add posts a review. Only clients may review vehicles.
func (s *ReviewService) Add(ctx context.Context, author auth.Identity, req models.ReviewRequest) (*models.Review, error) {
	if author.Role != models.RoleClient {
		return nil, invalid(MsgClientsOnlyReview)
	}

	invID, ok := parseID(req.InventoryID)
	if !ok {
		return nil, invalid(MsgInvalidVehicle)
	}
	rating, ok := parseRating(req.Rating)
	if !ok {
		return nil, invalid(MsgInvalidRating)
	}

	exists, err := s.inventory.Exists(ctx, invID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	review := &models.Review{
		InventoryID: invID,
		AccountID:   author.AccountID,
		Rating:      rating,
		Comment:     truncate(strings.TrimSpace(req.Comment), models.MaxReviewComment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, storeErr(err)
	}
	return review, nil
}

// GetOwned loads a review for editing. Only its author gets it back.
func (s *ReviewService) GetOwned(ctx context.Context, requester auth.Identity, reviewID int) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, storeErr(err)
	}
	if review.AccountID != requester.AccountID {
		return nil, ErrForbidden
	}
	return review, nil
}

// Update edits rating and comment. Ownership is checked against the stored
// row, never against ids from the form.
func (s *ReviewService) Update(ctx context.Context, requester auth.Identity, req models.ReviewRequest) (*models.Review, error) {
	reviewID, ok := parseID(req.ReviewID)
	if !ok {
		return nil, invalid(MsgInvalidReview)
	}
	rating, ok := parseRating(req.Rating)
	if !ok {
		return nil, invalid(MsgInvalidRating)
	}

	review, err := s.GetOwned(ctx, requester, reviewID)
	if err != nil {
		return nil, err
	}

	comment := truncate(strings.TrimSpace(req.Comment), models.MaxReviewComment)
	if err := s.reviews.Update(ctx, reviewID, rating, comment); err != nil {
		return nil, storeErr(err)
	}
	review.Rating = rating
	review.Comment = comment
	return review, nil
}

// Delete removes the requester's own review together with its replies.
func (s *ReviewService) Delete(ctx context.Context, requester auth.Identity, reviewID int) (*models.Review, error) {
	review, err := s.GetOwned(ctx, requester, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return nil, storeErr(err)
	}
	return review, nil
}

// Reply answers a review or another reply on it. The replier must sit on the
// other side of the client/staff boundary from the review author.
func (s *ReviewService) Reply(ctx context.Context, replier auth.Identity, req models.ReplyRequest) (*models.ReviewReply, *models.Review, error) {
	reviewID, ok := parseID(req.ReviewID)
	text := strings.TrimSpace(req.Text)
	if !ok || text == "" {
		return nil, nil, invalid(MsgReplyMissing)
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if replier.Role.IsStaff() == review.AuthorRole.IsStaff() {
		return nil, nil, ErrForbidden
	}

	var parentID *int
	if strings.TrimSpace(req.ParentReplyID) != "" {
		pid, ok := parseID(req.ParentReplyID)
		if !ok {
			return nil, nil, invalid(MsgInvalidParent)
		}
		parent, err := s.replies.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(storeErr(err), ErrNotFound) {
				return nil, nil, invalid(MsgInvalidParent)
			}
			return nil, nil, err
		}
		if parent.ReviewID != review.ID {
			return nil, nil, invalid(MsgInvalidParent)
		}
		parentID = &pid
	}

	reply := &models.ReviewReply{
		ReviewID:      review.ID,
		AccountID:     replier.AccountID,
		ParentReplyID: parentID,
		Text:          truncate(text, models.MaxReplyText),
		AuthorFirst:   replier.FirstName,
		AuthorLast:    replier.LastName,
		AuthorRole:    replier.Role,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, nil, storeErr(err)
	}

	event := ReviewReplyEvent{
		ReviewID:    review.ID,
		ReplyID:     reply.ID,
		InventoryID: review.InventoryID,
		From:        strings.TrimSpace(replier.FirstName + " " + replier.LastName),
		Text:        reply.Text,
	}
	if err := s.notifier.Notify(ctx, review.AccountID, EventReviewReply, event); err != nil {
		metrics.NotificationsDropped.WithLabelValues("notify_error").Inc()
		log.Printf("[Reviews] notify reply on review %d failed: %v", review.ID, err)
	}

	return reply, review, nil
}

func (s *ReviewService) attachReplies(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]int, len(reviews))
	byID := make(map[int]*models.Review, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.ID
		byID[rv.ID] = rv
	}

	replies, err := s.replies.ListByReviews(ctx, ids)
	if err != nil {
		return err
	}
	for _, rp := range replies {
		if rv, ok := byID[rp.ReviewID]; ok {
			rv.Replies = append(rv.Replies, rp)
		}
	}
	return nil
}

func parseRating(raw string) (int, bool) {
	n, ok := parseID(raw)
	if !ok || n < models.MinRating || n > models.MaxRating {
		return 0, false
	}
	return n, true
}
