package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/anonto42/bazaar/backend/internal/repositories/memory"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConversationKey(t *testing.T) {
	req := require.New(t)
	req.Equal("a-b-p1", ConversationKey([]string{"b", "a"}, "p1"))
	req.Equal(ConversationKey([]string{"x", "y"}, "p"), ConversationKey([]string{"y", "x"}, "p"))
	req.NotEqual(ConversationKey([]string{"x", "y"}, "p1"), ConversationKey([]string{"x", "y"}, "p2"))
}

func TestGetOrCreateIsOrderIndependent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)
	second, err := f.conversations.GetOrCreate(ctx, [2]string{bob.UserID, alice.UserID}, "prod-1")
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Equal([]string{alice.UserID, bob.UserID}, first.Participants)
	req.Equal("user-alice-user-bob-prod-1", first.ConversationKey)
	req.True(first.IsActive)

	other, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-2")
	req.NoError(err)
	req.NotEqual(first.ID, other.ID)
}

func TestGetOrCreateConcurrentFirstContact(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	const callers = 16
	ids := make([]primitive.ObjectID, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair := [2]string{alice.UserID, bob.UserID}
			if i%2 == 1 {
				pair = [2]string{bob.UserID, alice.UserID}
			}
			c, err := f.conversations.GetOrCreate(ctx, pair, "prod-race")
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i])
	}
	all, err := f.conversations.ListForUser(ctx, alice.UserID)
	req.NoError(err)
	req.Len(all, 1)
}

func TestGetOrCreateRejectsBadParticipants(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, alice.UserID}, "p")
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, ""}, "p")
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, " ")
	req.True(apperr.Is(err, apperr.InvalidInput))
}

func TestGetHidesConversationsFromOutsiders(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.GetOrCreate(ctx, [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.NoError(err)

	got, err := f.conversations.Get(ctx, conv.ID.Hex(), bob.UserID)
	req.NoError(err)
	req.Equal(conv.ID, got.ID)

	_, outsiderErr := f.conversations.Get(ctx, conv.ID.Hex(), carol.UserID)
	_, missingErr := f.conversations.Get(ctx, primitive.NewObjectID().Hex(), carol.UserID)
	_, malformedErr := f.conversations.Get(ctx, "not-an-id", carol.UserID)

	for _, err := range []error{outsiderErr, missingErr, malformedErr} {
		req.True(apperr.Is(err, apperr.NotFound))
		req.Equal(conversationNotFound, apperr.MessageOf(err))
	}
}

func TestStartConversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Bicycle")

	conv, err := f.conversations.Start(ctx, alice.UserID, product.ID.Hex())
	req.NoError(err)
	req.ElementsMatch([]string{alice.UserID, bob.UserID}, conv.Participants)
	req.Equal(product.ID.Hex(), conv.ProductID)

	_, err = f.conversations.Start(ctx, bob.UserID, product.ID.Hex())
	req.True(apperr.Is(err, apperr.InvalidInput))

	_, err = f.conversations.Start(ctx, alice.UserID, primitive.NewObjectID().Hex())
	req.True(apperr.Is(err, apperr.NotFound))
}

// vanishingConversations reports every key as absent and every insert as a
// duplicate, as if the winning record were deleted right after it was created.
type vanishingConversations struct {
	repositories.ConversationRepository
}

func (vanishingConversations) GetConversationByKey(context.Context, string) (*models.Conversation, error) {
	return nil, repositories.ErrNotFound
}

func (vanishingConversations) CreateConversation(context.Context, *models.Conversation) error {
	return repositories.ErrDuplicate
}

func TestGetOrCreateLostRaceWithoutWinnerIsInternal(t *testing.T) {
	req := require.New(t)
	store := memory.NewStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewConversationService(vanishingConversations{store.Conversations()}, store.Products(), log)

	_, err := svc.GetOrCreate(context.Background(), [2]string{alice.UserID, bob.UserID}, "prod-1")
	req.Error(err)
	req.Equal(apperr.Internal, apperr.KindOf(err))
	req.False(apperr.Is(err, apperr.Conflict))
	req.True(errors.Is(err, repositories.ErrNotFound))
}
