package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	accounts *testutil.Accounts
	messages *testutil.Messages
	notifier *testutil.Notifier
	svc      *MessageService

	client   auth.Identity
	client2  auth.Identity
	employee auth.Identity
	manager  auth.Identity
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	accounts := testutil.NewAccounts()
	messages := testutil.NewMessages(accounts)
	notifier := &testutil.Notifier{}

	return &messageFixture{
		accounts: accounts,
		messages: messages,
		notifier: notifier,
		svc:      NewMessageService(messages, accounts, notifier),
		client:   auth.IdentityFor(accounts.Add("Xena", "Buyer", "x@example.com", models.RoleClient)),
		client2:  auth.IdentityFor(accounts.Add("Carl", "Client", "c@example.com", models.RoleClient)),
		employee: auth.IdentityFor(accounts.Add("Yuri", "Sales", "y@example.com", models.RoleEmployee)),
		manager:  auth.IdentityFor(accounts.Add("Mona", "Boss", "m@example.com", models.RoleManager)),
	}
}

func sendReq(to auth.Identity, body string) models.SendMessageRequest {
	return models.SendMessageRequest{RecipientID: strconv.Itoa(to.AccountID), Subject: "Hello", Body: body}
}

func TestComposeCandidatesCrossRoleBoundary(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	forClient, err := f.svc.Compose(ctx, f.client)
	require.NoError(t, err)
	ids := []int{}
	for _, r := range forClient {
		ids = append(ids, r.ID)
		assert.True(t, r.Role.IsStaff())
	}
	assert.ElementsMatch(t, []int{f.employee.AccountID, f.manager.AccountID}, ids)

	forStaff, err := f.svc.Compose(ctx, f.employee)
	require.NoError(t, err)
	require.Len(t, forStaff, 2)
	for _, r := range forStaff {
		assert.Equal(t, models.RoleClient, r.Role)
	}
}

func TestSendRolePairing(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "hi"), OriginForm)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.client, sendReq(f.manager, "hi"), OriginForm)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.client, sendReq(f.client2, "hi"), OriginForm)
	assert.Equal(t, []string{MsgRecipientUnavailable}, ValidationMessages(err))

	_, err = f.svc.Send(ctx, f.employee, sendReq(f.manager, "hi"), OriginForm)
	assert.Equal(t, []string{MsgRecipientUnavailable}, ValidationMessages(err))

	assert.Equal(t, 2, f.messages.Len())
}

func TestSendValidationOrder(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.SendMessageRequest
		want string
	}{
		{"missing recipient and body", models.SendMessageRequest{}, MsgChooseRecipient},
		{"non-numeric recipient", models.SendMessageRequest{RecipientID: "abc", Body: "x"}, MsgChooseRecipient},
		{"zero recipient", models.SendMessageRequest{RecipientID: "0", Body: "x"}, MsgChooseRecipient},
		{"blank body", models.SendMessageRequest{RecipientID: strconv.Itoa(f.employee.AccountID), Body: "   \n\t"}, MsgEmptyBody},
		{"blank body beats bad recipient", models.SendMessageRequest{RecipientID: "9999", Body: " "}, MsgEmptyBody},
		{"unknown recipient", models.SendMessageRequest{RecipientID: "9999", Body: "x"}, MsgRecipientUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Send(ctx, f.client, tc.req, OriginForm)
			require.Error(t, err)
			assert.Equal(t, []string{tc.want}, ValidationMessages(err))
		})
	}

	assert.Equal(t, 0, f.messages.CreateCalls)
	assert.Empty(t, f.notifier.Calls())
}

func TestSendStoresTrimmedAndNotifies(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.client, models.SendMessageRequest{
		RecipientID: " " + strconv.Itoa(f.employee.AccountID) + " ",
		Subject:     "  Sedan  ",
		Body:        "  Is it available?  ",
	}, OriginForm)
	require.NoError(t, err)
	assert.Equal(t, "Sedan", msg.Subject)
	assert.Equal(t, "Is it available?", msg.Body)
	assert.False(t, msg.IsRead)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, f.employee.AccountID, calls[0].AccountID)
	assert.Equal(t, EventIncomingMessage, calls[0].Event)
	payload, ok := calls[0].Payload.(IncomingMessage)
	require.True(t, ok)
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, "Xena Buyer", payload.FromName)
}

func TestSendSucceedsWhenNotifierFails(t *testing.T) {
	f := newMessageFixture(t)
	f.notifier.Err = testutil.ErrNotifierDown

	msg, err := f.svc.Send(context.Background(), f.client, sendReq(f.employee, "still stored"), OriginRealtime)
	require.NoError(t, err)
	require.NotNil(t, msg)

	inbox, err := f.svc.Inbox(context.Background(), f.employee)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, msg.ID, inbox[0].ID)
}

func TestSendIDsUniqueAndTimestampsMonotonic(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	seen := map[int]bool{}
	var last *models.Message
	for i := 0; i < 5; i++ {
		msg, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "n"+strconv.Itoa(i)), OriginForm)
		require.NoError(t, err)
		assert.False(t, seen[msg.ID])
		seen[msg.ID] = true
		if last != nil {
			assert.False(t, msg.CreatedAt.Before(last.CreatedAt))
		}
		last = msg
	}
}

func TestMarkRead(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	msg, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "hi"), OriginForm)
	require.NoError(t, err)

	t.Run("recipient is idempotent", func(t *testing.T) {
		first, err := f.svc.MarkRead(ctx, f.employee, msg.ID, true)
		require.NoError(t, err)
		second, err := f.svc.MarkRead(ctx, f.employee, msg.ID, true)
		require.NoError(t, err)
		assert.True(t, first.IsRead)
		assert.Equal(t, first.IsRead, second.IsRead)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("sender is forbidden and nothing changes", func(t *testing.T) {
		_, err := f.svc.MarkRead(ctx, f.client, msg.ID, false)
		assert.ErrorIs(t, err, ErrForbidden)
		stored, err := f.messages.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsRead)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := f.svc.MarkRead(ctx, f.employee, 9999, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteMessage(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "hi"), OriginForm)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.manager, msg.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.client2, msg.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.client, 9999), ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.employee, msg.ID))
	_, err = f.messages.GetByID(ctx, msg.ID)
	assert.Error(t, err)
}

func TestViewMarksRecipientCopyRead(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	msg, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "hi"), OriginForm)
	require.NoError(t, err)

	asSender, err := f.svc.View(ctx, f.client, msg.ID)
	require.NoError(t, err)
	assert.False(t, asSender.IsRead)

	_, err = f.svc.View(ctx, f.manager, msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	asRecipient, err := f.svc.View(ctx, f.employee, msg.ID)
	require.NoError(t, err)
	assert.True(t, asRecipient.IsRead)
	assert.Equal(t, "Xena", asRecipient.SenderFirst)

	n, err := f.svc.UnreadCount(ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClientToEmployeeScenario(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.client2, sendReq(f.employee, "older message"), OriginForm)
	require.NoError(t, err)

	msg, err := f.svc.Send(ctx, f.client, sendReq(f.employee, "Is the 2020 sedan still available?"), OriginForm)
	require.NoError(t, err)
	assert.False(t, msg.IsRead)

	inbox, err := f.svc.Inbox(ctx, f.employee)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, msg.ID, inbox[0].ID)

	read, err := f.svc.MarkRead(ctx, f.employee, msg.ID, true)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, read.ID)
	assert.True(t, read.IsRead)

	require.NoError(t, f.svc.Delete(ctx, f.client, msg.ID))

	inbox, err = f.svc.Inbox(ctx, f.employee)
	require.NoError(t, err)
	for _, m := range inbox {
		assert.NotEqual(t, msg.ID, m.ID)
	}
	outbox, err := f.svc.Outbox(ctx, f.client)
	require.NoError(t, err)
	assert.Empty(t, outbox)
}
