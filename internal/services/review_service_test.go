package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	reviews  *testutil.Reviews
	replies  *testutil.Replies
	notifier *testutil.Notifier
	svc      *ReviewService
	vehicle  *models.Vehicle

	author   auth.Identity
	client2  auth.Identity
	employee auth.Identity
	manager  auth.Identity
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	accounts := testutil.NewAccounts()
	inventory := testutil.NewInventory()
	reviews := testutil.NewReviews(accounts, inventory)
	replies := testutil.NewReplies(accounts, reviews)
	notifier := &testutil.Notifier{}

	return &reviewFixture{
		reviews:  reviews,
		replies:  replies,
		notifier: notifier,
		svc:      NewReviewService(reviews, replies, inventory, notifier),
		vehicle:  inventory.AddVehicle("Chevy", "Camaro", 25000),
		author:   auth.IdentityFor(accounts.Add("Ann", "Author", "ann@example.com", models.RoleClient)),
		client2:  auth.IdentityFor(accounts.Add("Ben", "Buyer", "ben@example.com", models.RoleClient)),
		employee: auth.IdentityFor(accounts.Add("Eve", "Staff", "eve@example.com", models.RoleEmployee)),
		manager:  auth.IdentityFor(accounts.Add("Max", "Boss", "max@example.com", models.RoleManager)),
	}
}

func (f *reviewFixture) post(t *testing.T, rating string) *models.Review {
	t.Helper()
	rv, err := f.svc.Add(context.Background(), f.author, models.ReviewRequest{
		InventoryID: strconv.Itoa(f.vehicle.ID),
		Rating:      rating,
		Comment:     "  Great car  ",
	})
	require.NoError(t, err)
	return rv
}

func TestAddReviewValidation(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	inv := strconv.Itoa(f.vehicle.ID)

	_, err := f.svc.Add(ctx, f.employee, models.ReviewRequest{InventoryID: inv, Rating: "5"})
	assert.Equal(t, []string{MsgClientsOnlyReview}, ValidationMessages(err))

	_, err = f.svc.Add(ctx, f.author, models.ReviewRequest{InventoryID: "", Rating: "5"})
	assert.Equal(t, []string{MsgInvalidVehicle}, ValidationMessages(err))

	for _, bad := range []string{"", "0", "6", "four", "3.5"} {
		_, err = f.svc.Add(ctx, f.author, models.ReviewRequest{InventoryID: inv, Rating: bad})
		assert.Equal(t, []string{MsgInvalidRating}, ValidationMessages(err), bad)
	}

	_, err = f.svc.Add(ctx, f.author, models.ReviewRequest{InventoryID: "999", Rating: "4"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddReviewTrimsAndCapsComment(t *testing.T) {
	f := newReviewFixture(t)
	rv := f.post(t, "4")
	assert.Equal(t, "Great car", rv.Comment)

	long, err := f.svc.Add(context.Background(), f.author, models.ReviewRequest{
		InventoryID: strconv.Itoa(f.vehicle.ID),
		Rating:      "5",
		Comment:     strings.Repeat("a", models.MaxReviewComment+50),
	})
	require.NoError(t, err)
	assert.Len(t, long.Comment, models.MaxReviewComment)
}

func TestReviewEditDeleteOwnerOnly(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	rv := f.post(t, "4")
	id := strconv.Itoa(rv.ID)

	// Same role as the author is still not the author.
	_, err := f.svc.Update(ctx, f.client2, models.ReviewRequest{ReviewID: id, Rating: "1"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Delete(ctx, f.client2, rv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Delete(ctx, f.manager, rv.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.reviews.GetByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)

	updated, err := f.svc.Update(ctx, f.author, models.ReviewRequest{ReviewID: id, Rating: "2", Comment: " meh "})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "meh", updated.Comment)

	_, err = f.svc.Delete(ctx, f.author, rv.ID)
	require.NoError(t, err)
	_, err = f.reviews.GetByID(ctx, rv.ID)
	assert.Error(t, err)
}

func TestReplyRequiresOtherSide(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	rv := f.post(t, "5")
	id := strconv.Itoa(rv.ID)

	_, _, err := f.svc.Reply(ctx, f.client2, models.ReplyRequest{ReviewID: id, Text: "agree"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.svc.Reply(ctx, f.employee, models.ReplyRequest{ReviewID: id, Text: "   "})
	assert.Equal(t, []string{MsgReplyMissing}, ValidationMessages(err))

	reply, review, err := f.svc.Reply(ctx, f.employee, models.ReplyRequest{ReviewID: id, Text: " Thanks! "})
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", reply.Text)
	assert.Equal(t, rv.ID, review.ID)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, f.author.AccountID, calls[0].AccountID)
	assert.Equal(t, EventReviewReply, calls[0].Event)
}

func TestReplyThreadingAndParentCheck(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	first := f.post(t, "5")
	second := f.post(t, "3")

	staffReply, _, err := f.svc.Reply(ctx, f.manager, models.ReplyRequest{ReviewID: strconv.Itoa(first.ID), Text: "Thanks"})
	require.NoError(t, err)

	_, _, err = f.svc.Reply(ctx, f.manager, models.ReplyRequest{
		ReviewID:      strconv.Itoa(second.ID),
		ParentReplyID: strconv.Itoa(staffReply.ID),
		Text:          "wrong thread",
	})
	assert.Equal(t, []string{MsgInvalidParent}, ValidationMessages(err))

	_, _, err = f.svc.Reply(ctx, f.employee, models.ReplyRequest{
		ReviewID:      strconv.Itoa(first.ID),
		ParentReplyID: "9999",
		Text:          "missing parent",
	})
	assert.Equal(t, []string{MsgInvalidParent}, ValidationMessages(err))

	nested, _, err := f.svc.Reply(ctx, f.employee, models.ReplyRequest{
		ReviewID:      strconv.Itoa(first.ID),
		ParentReplyID: strconv.Itoa(staffReply.ID),
		Text:          "Following up",
	})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentReplyID)
	assert.Equal(t, staffReply.ID, *nested.ParentReplyID)

	page, err := f.svc.ListForVehicle(ctx, f.vehicle.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, DefaultReviewPageSize, page.Limit)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, second.ID, page.Reviews[0].ID)
	assert.Len(t, page.Reviews[1].Replies, 2)

	_, err = f.svc.Delete(ctx, f.author, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.replies.Len())
}

func TestReviewSummary(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Summary(ctx, f.vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)

	f.post(t, "5")
	f.post(t, "4")
	f.post(t, "4")
	s, err := f.svc.Summary(ctx, f.vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 4.33, s.Average, 0.001)
}
