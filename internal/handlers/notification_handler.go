package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gatherly-app/backend/internal/feed"
	"github.com/gatherly-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// streamHeartbeat is how often the SSE stream writes a comment line so
// intermediaries don't drop an idle connection.
const streamHeartbeat = 30 * time.Second

// NotificationHandler handles notification-related HTTP requests.
// Mutations publish row-level changes to the feed hub so subscribed
// clients converge without polling.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	hub                    *feed.Hub
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, hub *feed.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		hub:                    hub,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.GET("/notifications/stream", h.StreamNotifications)
	g.PATCH("/notifications/:ids", h.MarkRead)
	g.DELETE("/notifications/:ids", h.DeleteNotifications)
}

// notificationError writes the {error, details?} failure body used on the
// notification group. Clients surface details when present, else error.
func notificationError(c echo.Context, status int, message, details string) error {
	body := echo.Map{"error": message}
	if details != "" {
		body["details"] = details
	}
	return c.JSON(status, body)
}

// GetNotifications returns all of the user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return notificationError(c, http.StatusUnauthorized, "user not authenticated", "")
	}

	notifications, err := h.notificationRepository.GetByUserID(currentUserID)
	if err != nil {
		return notificationError(c, http.StatusInternalServerError, "failed to load notifications", err.Error())
	}

	return c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return notificationError(c, http.StatusUnauthorized, "user not authenticated", "")
	}

	count, err := h.notificationRepository.GetUnreadCount(currentUserID)
	if err != nil {
		return notificationError(c, http.StatusInternalServerError, "failed to count unread notifications", err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkRead marks a comma-joined list of notification ids as read.
// Ids that don't exist or belong to another user match nothing.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return notificationError(c, http.StatusUnauthorized, "user not authenticated", "")
	}

	ids := splitIDList(c.Param("ids"))
	if len(ids) == 0 {
		return notificationError(c, http.StatusBadRequest, "no notification ids provided", "")
	}

	if err := h.notificationRepository.MarkRead(currentUserID, ids); err != nil {
		return notificationError(c, http.StatusInternalServerError, "failed to mark notifications read", err.Error())
	}

	// Publish the new row images so live subscribers converge.
	updated, err := h.notificationRepository.GetByIDs(currentUserID, ids)
	if err != nil {
		log.Printf("Failed to load notifications for feed publish: %v", err)
	} else {
		for i := range updated {
			h.hub.Publish(currentUserID, feed.Change{Type: feed.ChangeUpdate, New: &updated[i]})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteNotifications deletes a comma-joined list of notification ids
func (h *NotificationHandler) DeleteNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return notificationError(c, http.StatusUnauthorized, "user not authenticated", "")
	}

	ids := splitIDList(c.Param("ids"))
	if len(ids) == 0 {
		return notificationError(c, http.StatusBadRequest, "no notification ids provided", "")
	}

	// Resolve which rows actually belong to the user before deleting, so
	// the feed only announces rows that were really removed.
	existing, err := h.notificationRepository.GetByIDs(currentUserID, ids)
	if err != nil {
		return notificationError(c, http.StatusInternalServerError, "failed to load notifications", err.Error())
	}

	if err := h.notificationRepository.DeleteNotifications(currentUserID, ids); err != nil {
		return notificationError(c, http.StatusInternalServerError, "failed to delete notifications", err.Error())
	}

	for _, n := range existing {
		h.hub.Publish(currentUserID, feed.Change{Type: feed.ChangeDelete, OldID: n.ID})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// StreamNotifications serves the user's change feed over Server-Sent
// Events. Each change is one JSON object on a data line. The subscription
// is released when the client disconnects.
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return notificationError(c, http.StatusUnauthorized, "user not authenticated", "")
	}

	changes, cancel := h.hub.Subscribe(currentUserID)
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			data, err := json.Marshal(change)
			if err != nil {
				log.Printf("Failed to marshal feed change: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		}
	}
}
