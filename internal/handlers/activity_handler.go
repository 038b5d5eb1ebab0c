package handlers

import (
	"net/http"
	"strconv"

	"github.com/gatherly-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ActivityHandler handles HTTP requests for the activity stream
type ActivityHandler struct {
	activityRepository repositories.ActivityRepository
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityRepo repositories.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepository: activityRepo}
}

// RegisterActivityRoutes registers activity routes
func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activities", h.GetActivities)
}

// GetActivities returns the current user's activity stream
func (h *ActivityHandler) GetActivities(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	activities, err := h.activityRepository.GetActivitiesByUserID(
		c.Request().Context(), currentUserID, int64((page-1)*limit), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, activities)
}
