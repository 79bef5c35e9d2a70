package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/services"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	inbox *services.InboxService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox *services.InboxService) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// RegisterAdminRoutes registers routes for administrators; g must be role-gated
func (h *NotificationHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/notifications", h.SendSystemNotification)
}

// GetNotifications returns the newest notifications together with the unread count
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	var (
		notifications []models.Notification
		unread        int64
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		notifications, err = h.inbox.List(ctx, me.UserID, limit)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = h.inbox.UnreadCount(ctx, me.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, echo.Map{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.inbox.UnreadCount(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead sets the read flag of one notification; a missing flag means read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.MarkNotificationReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	isRead := true
	if req.IsRead != nil {
		isRead = *req.IsRead
	}

	notification, err := h.inbox.MarkRead(c.Request().Context(), c.Param("id"), me.UserID, isRead)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, notification)
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	updated, err := h.inbox.MarkAllRead(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.inbox.Remove(c.Request().Context(), c.Param("id"), me.UserID); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"deleted": true})
}

// SendSystemNotification queues a system notification for a user
func (h *NotificationHandler) SendSystemNotification(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.SystemNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.inbox.SendSystem(me, req); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusAccepted, echo.Map{"queued": true})
}
