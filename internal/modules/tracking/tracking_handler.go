package tracking

import (
	"errors"
	"net/http"
	"time"

	"boadwuma-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the tracking registry.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new tracking handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the tracking endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests/:requestId/tracking/start", h.StartTracking)
	g.POST("/requests/:requestId/tracking/stop", h.StopTracking)
	g.GET("/requests/:requestId/tracking", h.GetTracking)
}

func (h *Handler) StartTracking(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	entry, err := h.svc.StartTracking(c.Request().Context(), requestID, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Message: "Tracking can only start on an accepted request"})
		case errors.Is(err, models.ErrForbidden):
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Only the assigned provider can start tracking"})
		case errors.Is(err, models.ErrConflict):
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Request was updated concurrently, retry"})
		}
		c.Logger().Error("Handler.StartTracking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to start tracking"})
	}

	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) StopTracking(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	if err := h.svc.StopTracking(c.Request().Context(), requestID, userID, role); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		}
		c.Logger().Error("Handler.StopTracking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to stop tracking"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetTracking(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	entry, err := h.svc.GetTrackingData(c.Request().Context(), requestID, userID, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "No tracking data for this request"})
		}
		c.Logger().Error("Handler.GetTracking: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to get tracking data"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tracking":          entry,
		"minutes_remaining": entry.MinutesRemaining(time.Now()),
	})
}
