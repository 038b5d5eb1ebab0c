package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gatherly-app/backend/internal/feed"
	"github.com/gatherly-app/backend/internal/models"
	"github.com/gatherly-app/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// EventHandler handles HTTP requests for events and their invites
type EventHandler struct {
	eventRepository        repositories.EventRepository
	inviteRepository       repositories.InviteRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	activityRepository     repositories.ActivityRepository
	hub                    *feed.Hub
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(
	eventRepo repositories.EventRepository,
	inviteRepo repositories.InviteRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	activityRepo repositories.ActivityRepository,
	hub *feed.Hub,
) *EventHandler {
	return &EventHandler{
		eventRepository:        eventRepo,
		inviteRepository:       inviteRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		activityRepository:     activityRepo,
		hub:                    hub,
	}
}

// RegisterEventRoutes registers event and invite routes
func (h *EventHandler) RegisterEventRoutes(g *echo.Group) {
	g.POST("/events", h.CreateEvent)
	g.GET("/events", h.GetEvents)
	g.GET("/events/:id", h.GetEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)

	g.POST("/events/:id/invites", h.CreateInvite)
	g.GET("/events/:id/invites", h.GetEventInvites)
	g.GET("/invites", h.GetMyInvites)
	g.PUT("/invites/:id", h.RespondInvite)
}

// notify persists a notification and announces it on the change feed.
// Failures are logged, never propagated: a missed notification must not
// fail the action that triggered it.
func (h *EventHandler) notify(n *models.Notification) {
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		log.Printf("Failed to create notification: %v", err)
		return
	}
	h.hub.Publish(n.UserID, feed.Change{Type: feed.ChangeInsert, New: n})
}

func (h *EventHandler) recordActivity(userID uint, action, targetType string, targetID uint) {
	activity := &models.Activity{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   strconv.FormatUint(uint64(targetID), 10),
	}
	if err := h.activityRepository.RecordActivity(context.Background(), activity); err != nil {
		log.Printf("Failed to record activity: %v", err)
	}
}

// CreateEvent creates a new event
func (h *EventHandler) CreateEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event := &models.Event{
		CreatorID:   currentUserID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}

	if err := h.eventRepository.CreateEvent(event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.recordActivity(currentUserID, "created_event", "event", event.ID)

	return c.JSON(http.StatusCreated, event)
}

// GetEvents lists events the user created or accepted an invite to
func (h *EventHandler) GetEvents(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	events, err := h.eventRepository.GetEventsForUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent retrieves a single event by ID
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event ID")
	}

	event, err := h.eventRepository.GetEventByID(uint(eventID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, event)
}

// UpdateEvent updates an event and notifies accepted invitees
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event ID")
	}

	var req models.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event, err := h.eventRepository.GetEventByID(uint(eventID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if event.CreatorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this event")
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Location != "" {
		event.Location = req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}

	if err := h.eventRepository.UpdateEvent(event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Tell accepted invitees the details changed.
	invites, err := h.inviteRepository.GetInvitesByEventID(event.ID)
	if err != nil {
		log.Printf("Failed to load invites for event update notification: %v", err)
	} else {
		for _, invite := range invites {
			if invite.Status != models.InviteStatusAccepted {
				continue
			}
			eventRef := event.ID
			h.notify(&models.Notification{
				UserID:  invite.UserID,
				Type:    models.NotificationTypeEventUpdate,
				Message: fmt.Sprintf("%q has been updated", event.Title),
				EventID: &eventRef,
			})
		}
	}

	return c.JSON(http.StatusOK, event)
}

// DeleteEvent deletes an event owned by the current user
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event ID")
	}

	event, err := h.eventRepository.GetEventByID(uint(eventID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if event.CreatorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this event")
	}

	if err := h.eventRepository.DeleteEvent(event.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateInvite invites a user to an event and notifies them
func (h *EventHandler) CreateInvite(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event ID")
	}

	var req models.CreateInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event, err := h.eventRepository.GetEventByID(uint(eventID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if event.CreatorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the event creator can send invites")
	}

	invitee, err := h.userRepository.GetUserByID(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Invited user not found")
	}

	exists, err := h.inviteRepository.HasInvite(event.ID, invitee.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if exists {
		return echo.NewHTTPError(http.StatusConflict, "User is already invited to this event")
	}

	invite := &models.Invite{
		EventID:   event.ID,
		UserID:    invitee.ID,
		InviterID: currentUserID,
		Status:    models.InviteStatusPending,
	}

	if err := h.inviteRepository.CreateInvite(invite); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	inviter, err := h.userRepository.GetUserByID(currentUserID)
	inviterName := "Someone"
	if err == nil {
		inviterName = inviter.Name
	}

	eventRef := event.ID
	h.notify(&models.Notification{
		UserID:  invitee.ID,
		Type:    models.NotificationTypeInvite,
		Message: fmt.Sprintf("%s invited you to %q", inviterName, event.Title),
		EventID: &eventRef,
	})

	return c.JSON(http.StatusCreated, invite)
}

// GetEventInvites lists the invites of an event the user created
func (h *EventHandler) GetEventInvites(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event ID")
	}

	event, err := h.eventRepository.GetEventByID(uint(eventID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if event.CreatorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the event creator can list invites")
	}

	invites, err := h.inviteRepository.GetInvitesByEventID(event.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, invites)
}

// GetMyInvites lists the current user's invites
func (h *EventHandler) GetMyInvites(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	invites, err := h.inviteRepository.GetInvitesForUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, invites)
}

// RespondInvite accepts or declines an invite and notifies the inviter
func (h *EventHandler) RespondInvite(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid invite ID")
	}

	var req models.RespondInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invite, err := h.inviteRepository.GetInviteByID(uint(inviteID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Invite not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if invite.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to respond to this invite")
	}

	invite.Status = req.Status
	if err := h.inviteRepository.UpdateInvite(invite); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Status == models.InviteStatusAccepted {
		go h.recordActivity(currentUserID, "accepted_invite", "event", invite.EventID)
	}

	// Tell the inviter how it went.
	responder, err := h.userRepository.GetUserByID(currentUserID)
	responderName := "Someone"
	if err == nil {
		responderName = responder.Name
	}
	eventTitle := "your event"
	if event, err := h.eventRepository.GetEventByID(invite.EventID); err == nil {
		eventTitle = fmt.Sprintf("%q", event.Title)
	}

	eventRef := invite.EventID
	h.notify(&models.Notification{
		UserID:  invite.InviterID,
		Type:    models.NotificationTypeInviteReply,
		Message: fmt.Sprintf("%s %s your invite to %s", responderName, req.Status, eventTitle),
		EventID: &eventRef,
	})

	return c.JSON(http.StatusOK, invite)
}
