package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/metrics"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories"
)

// MessageService appends and reads messages inside conversations.
type MessageService struct {
	conversations *ConversationService
	messages      repositories.MessageRepository
	notifier      Notifier
	log           *slog.Logger
	now           func() time.Time
}

func NewMessageService(conversations *ConversationService, messages repositories.MessageRepository, notifier Notifier, log *slog.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		log:           log.With("component", "messages"),
		now:           time.Now,
	}
}

// Append stores a message from sender and moves the conversation's
// last-message pointer. An empty receiverID means the other participant.
// The receiver is notified asynchronously; that step cannot fail the send.
func (s *MessageService) Append(ctx context.Context, conversationID string, sender auth.Identity, receiverID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.NewInvalidInput("Message content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return nil, apperr.NewInvalidInput(fmt.Sprintf("Message content exceeds %d characters", models.MaxMessageLength))
	}

	conversation, err := s.conversations.Get(ctx, conversationID, sender.UserID)
	if err != nil {
		return nil, err
	}

	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		receiverID = conversation.OtherParticipant(sender.UserID)
	}
	if !conversation.HasParticipant(receiverID) {
		return nil, apperr.NewInvalidInput("Receiver is not a participant of this conversation")
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       sender.UserID,
		ReceiverID:     receiverID,
		ProductID:      conversation.ProductID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      s.now(),
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, apperr.Wrap(err, "store message")
	}
	metrics.MessagesSent.Inc()

	// The message is committed; a stale pointer is repaired by the next send.
	if err := s.conversations.recordLastMessage(ctx, conversation, message); err != nil {
		s.log.Warn("update last message failed", "conversation_id", conversation.ID.Hex(), "error", err)
	}

	s.notifier.Emit(notify.Event{
		Actor:   sender.UserID,
		Target:  receiverID,
		Type:    models.NotificationMessage,
		Title:   "New message from " + displayName(sender),
		Message: preview(content, 100),
		Data: models.NotificationData{Message: &models.MessagePayload{
			ConversationID: conversation.ID.Hex(),
			MessageID:      message.ID.Hex(),
			SenderName:     displayName(sender),
			Preview:        preview(content, 100),
		}},
		RelatedProduct:      conversation.ProductID,
		RelatedConversation: conversation.ID.Hex(),
		RelatedUser:         sender.UserID,
	})
	return message, nil
}

// List returns the conversation's messages oldest first and marks the ones
// addressed to the caller as read.
func (s *MessageService) List(ctx context.Context, conversationID, callerID string) ([]models.Message, error) {
	conversation, err := s.conversations.Get(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.GetMessagesByConversation(ctx, conversation.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "list messages")
	}

	if _, err := s.messages.MarkConversationRead(ctx, conversation.ID, callerID); err != nil {
		s.log.Warn("mark conversation read failed", "conversation_id", conversation.ID.Hex(), "error", err)
		return messages, nil
	}
	for i := range messages {
		if messages[i].ReceiverID == callerID {
			messages[i].IsRead = true
		}
	}
	return messages, nil
}

// CountUnread counts unread messages addressed to userID across all conversations.
func (s *MessageService) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(err, "count unread messages")
	}
	return count, nil
}

func displayName(id auth.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return "a user"
}
