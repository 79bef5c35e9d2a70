package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/metrics"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
)

const conversationNotFound = "Conversation not found"

// ConversationService owns conversation creation and membership checks.
type ConversationService struct {
	conversations repositories.ConversationRepository
	products      repositories.ProductRepository
	log           *slog.Logger
	now           func() time.Time
}

func NewConversationService(conversations repositories.ConversationRepository, products repositories.ProductRepository, log *slog.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		products:      products,
		log:           log.With("component", "conversations"),
		now:           time.Now,
	}
}

// GetOrCreate returns the conversation between the two participants about
// productID, creating it on first contact. Concurrent first contacts collapse
// onto one record through the unique conversation key.
func (s *ConversationService) GetOrCreate(ctx context.Context, participants [2]string, productID string) (*models.Conversation, error) {
	a, b := strings.TrimSpace(participants[0]), strings.TrimSpace(participants[1])
	productID = strings.TrimSpace(productID)
	if a == "" || b == "" || productID == "" {
		return nil, apperr.NewInvalidInput("Two participants and a product are required")
	}
	if a == b {
		return nil, apperr.NewInvalidInput("A conversation needs two distinct participants")
	}

	members := []string{a, b}
	sort.Strings(members)
	key := ConversationKey(members, productID)

	existing, err := s.conversations.GetConversationByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Wrap(err, "lookup conversation")
	}

	now := s.now()
	conversation := &models.Conversation{
		Participants:    members,
		ProductID:       productID,
		ConversationKey: key,
		LastMessageAt:   now,
		IsActive:        true,
		CreatedAt:       now,
	}
	err = s.conversations.CreateConversation(ctx, conversation)
	switch {
	case err == nil:
		metrics.ConversationsCreated.Inc()
		s.log.Info("conversation created", "conversation_id", conversation.ID.Hex(), "product_id", productID)
		return conversation, nil
	case errors.Is(err, repositories.ErrDuplicate):
		// Lost the first-contact race: the stored record wins.
		winner, lookupErr := s.conversations.GetConversationByKey(ctx, key)
		if lookupErr != nil {
			return nil, apperr.Wrap(lookupErr, "reload conversation after duplicate key")
		}
		return winner, nil
	default:
		return nil, apperr.Wrap(err, "create conversation")
	}
}

// Get returns the conversation if callerID participates in it. Absent
// conversations and conversations of other users yield the same NotFound.
func (s *ConversationService) Get(ctx context.Context, id, callerID string) (*models.Conversation, error) {
	conversation, err := s.conversations.GetConversationByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, conversationNotFound)
	}
	if !conversation.HasParticipant(callerID) {
		return nil, apperr.NewNotFound(conversationNotFound)
	}
	return conversation, nil
}

// Start opens (or reuses) the caller's conversation with the seller of productID.
func (s *ConversationService) Start(ctx context.Context, callerID, productID string) (*models.Conversation, error) {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, storageErr(err, "Product not found")
	}
	if product.SellerID == callerID {
		return nil, apperr.NewInvalidInput("Cannot start a conversation about your own product")
	}
	return s.GetOrCreate(ctx, [2]string{callerID, product.SellerID}, product.ID.Hex())
}

// ListForUser returns the user's active conversations, most recent activity first.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	conversations, err := s.conversations.GetConversationsByParticipant(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "list conversations")
	}
	return conversations, nil
}

// recordLastMessage moves the conversation's last-message pointer.
func (s *ConversationService) recordLastMessage(ctx context.Context, conversation *models.Conversation, message *models.Message) error {
	if err := s.conversations.UpdateLastMessage(ctx, conversation.ID, message.ID, message.CreatedAt); err != nil {
		return err
	}
	id := message.ID
	conversation.LastMessage = &id
	conversation.LastMessageAt = message.CreatedAt
	return nil
}
