package chat

import (
	"errors"
	"net/http"

	"boadwuma-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for chat.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new chat handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the chat endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests/:requestId/messages", h.SendMessage)
	g.GET("/requests/:requestId/messages", h.GetMessages)
}

func (h *Handler) SendMessage(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	msg, err := h.svc.SendMessage(c.Request().Context(), requestID, userID, role, req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		}
		c.Logger().Error("Handler.SendMessage: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to send message"})
	}

	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) GetMessages(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	msgs, err := h.svc.GetMessages(c.Request().Context(), requestID, userID, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		}
		c.Logger().Error("Handler.GetMessages: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve messages"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"messages": msgs, "total": len(msgs)})
}
