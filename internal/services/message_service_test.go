package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestAppendNotifiesReceiverOnce(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	msg, err := f.messages.Append(ctx, conv.ID.Hex(), alice, "", "  is it still available?  ")
	req.NoError(err)
	req.Equal(bob.UserID, msg.ReceiverID)
	req.Equal("is it still available?", msg.Content)
	req.False(msg.IsRead)

	f.flush()

	req.Empty(f.notificationsFor(alice.UserID))
	inbox := f.notificationsFor(bob.UserID)
	req.Len(inbox, 1)
	n := inbox[0]
	req.Equal(models.NotificationMessage, n.Type)
	req.False(n.IsRead)
	req.Equal(conv.ID.Hex(), n.RelatedConversation)
	req.NotNil(n.Data.Message)
	req.Equal(msg.ID.Hex(), n.Data.Message.MessageID)
	req.Equal("Alice", n.Data.Message.SenderName)

	stored, err := f.store.Conversations().GetConversationByID(ctx, conv.ID.Hex())
	req.NoError(err)
	req.NotNil(stored.LastMessage)
	req.Equal(msg.ID, *stored.LastMessage)
}

func TestAppendToSelfDoesNotNotify(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, alice.UserID, "note to self")
	req.NoError(err)
	f.flush()

	req.Empty(f.store.Notifications().All())
}

func TestAppendValidation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, "", "   ")
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, "", strings.Repeat("x", models.MaxMessageLength+1))
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, "", strings.Repeat("é", models.MaxMessageLength))
	req.NoError(err)

	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, carol.UserID, "hi")
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.messages.Append(ctx, conv.ID.Hex(), carol, "", "let me in")
	req.True(apperr.Is(err, apperr.NotFound))
}

func TestMessagesAreOrderedByCreationTime(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{base.Add(2 * time.Second), base, base.Add(time.Second), base}
	for i, at := range stamps {
		at := at
		f.messages.now = func() time.Time { return at }
		_, err := f.messages.Append(ctx, conv.ID.Hex(), alice, "", string(rune('a'+i)))
		req.NoError(err)
	}

	list, err := f.messages.List(ctx, conv.ID.Hex(), alice.UserID)
	req.NoError(err)
	var contents []string
	for _, m := range list {
		contents = append(contents, m.Content)
	}
	// equal timestamps keep insertion order
	req.Equal([]string{"b", "d", "c", "a"}, contents)
}

func TestListMarksReceivedMessagesRead(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)
	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, "", "one")
	req.NoError(err)
	_, err = f.messages.Append(ctx, conv.ID.Hex(), alice, "", "two")
	req.NoError(err)
	_, err = f.messages.Append(ctx, conv.ID.Hex(), bob, "", "reply")
	req.NoError(err)

	unread, err := f.messages.CountUnread(ctx, bob.UserID)
	req.NoError(err)
	req.EqualValues(2, unread)

	// reading as the sender changes nothing for bob
	_, err = f.messages.List(ctx, conv.ID.Hex(), alice.UserID)
	req.NoError(err)
	unread, err = f.messages.CountUnread(ctx, bob.UserID)
	req.NoError(err)
	req.EqualValues(2, unread)

	list, err := f.messages.List(ctx, conv.ID.Hex(), bob.UserID)
	req.NoError(err)
	req.Len(list, 3)
	for _, m := range list {
		if m.ReceiverID == bob.UserID {
			req.True(m.IsRead)
		}
	}
	unread, err = f.messages.CountUnread(ctx, bob.UserID)
	req.NoError(err)
	req.Zero(unread)

	_, err = f.messages.List(ctx, conv.ID.Hex(), carol.UserID)
	req.True(apperr.Is(err, apperr.NotFound))
}

func TestAppendSucceedsWhenNotificationFails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailNotifications = true

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	msg, err := f.messages.Append(ctx, conv.ID.Hex(), alice, "", "hello")
	req.NoError(err)
	f.flush()

	list, err := f.store.Messages().GetMessagesByConversation(ctx, conv.ID)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal(msg.ID, list[0].ID)
	req.Empty(f.store.Notifications().All())
}
