package handlers

import (
	"net/http"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles conversation and message HTTP requests
type ConversationHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversations *services.ConversationService, messages *services.MessageService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages}
}

// RegisterConversationRoutes registers conversation and message routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.GET("/messages/unread-count", h.UnreadMessageCount)
}

// StartConversation opens the caller's thread with a product's seller, reusing an existing one
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.StartConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	conversation, err := h.conversations.Start(c.Request().Context(), me.UserID, req.ProductID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, conversation)
}

// ListConversations returns the caller's conversations, most recent activity first
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	conversations, err := h.conversations.ListForUser(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"conversations": conversations})
}

// ListMessages returns a conversation's messages oldest first
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	messages, err := h.messages.List(c.Request().Context(), c.Param("id"), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"messages": messages})
}

// SendMessage appends a message from the caller
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	message, err := h.messages.Append(c.Request().Context(), c.Param("id"), me, req.ReceiverID, req.Content)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, message)
}

func (h *ConversationHandler) UnreadMessageCount(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.messages.CountUnread(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"count": count})
}
