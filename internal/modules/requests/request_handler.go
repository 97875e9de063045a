package requests

import (
	"errors"
	"net/http"
	"strconv"

	"boadwuma-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for service requests.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new request handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the request lifecycle endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests", h.CreateRequest)
	g.GET("/requests", h.ListMyRequests)
	g.GET("/requests/:requestId", h.GetRequest)
	g.GET("/requests/:requestId/status", h.GetRequestStatus)
	g.PATCH("/requests/:requestId/status", h.UpdateStatus)
	g.POST("/requests/:requestId/cancel", h.CancelRequest)
	g.POST("/requests/:requestId/rating", h.RateRequest)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req models.CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	request, err := h.svc.CreateRequest(c.Request().Context(), userID, req)
	if err != nil {
		c.Logger().Error("Handler.CreateRequest: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create request"})
	}

	return c.JSON(http.StatusCreated, request)
}

func (h *Handler) ListMyRequests(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)

	page := 1
	limit := 20
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	out, total, err := h.svc.ListUserRequests(c.Request().Context(), userID, role, page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListMyRequests: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve requests"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"requests": out, "total": total})
}

func (h *Handler) GetRequest(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	request, err := h.svc.GetRequest(c.Request().Context(), requestID, userID, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		}
		c.Logger().Error("Handler.GetRequest: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve request"})
	}

	return c.JSON(http.StatusOK, request)
}

func (h *Handler) GetRequestStatus(c echo.Context) error {
	userID := c.Get("userID").(string)
	requestID := c.Param("requestId")

	status, err := h.svc.GetRequestStatus(c.Request().Context(), requestID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
		}
		c.Logger().Error("Handler.GetRequestStatus: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve status"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	request, err := h.svc.Transition(c.Request().Context(), requestID, userID, role, req)
	if err != nil {
		return transitionError(c, "Handler.UpdateStatus", err)
	}

	return c.JSON(http.StatusOK, request)
}

func (h *Handler) CancelRequest(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	requestID := c.Param("requestId")

	req := models.UpdateStatusRequest{Status: models.StatusCancelled}
	request, err := h.svc.Transition(c.Request().Context(), requestID, userID, role, req)
	if err != nil {
		return transitionError(c, "Handler.CancelRequest", err)
	}

	return c.JSON(http.StatusOK, request)
}

func (h *Handler) RateRequest(c echo.Context) error {
	userID := c.Get("userID").(string)
	requestID := c.Param("requestId")

	var req models.RatingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	request, err := h.svc.RateRequest(c.Request().Context(), requestID, userID, req)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyRated) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Request has already been rated"})
		}
		return transitionError(c, "Handler.RateRequest", err)
	}

	return c.JSON(http.StatusOK, request)
}

// transitionError maps the engine's sentinel errors to HTTP responses.
func transitionError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Request not found"})
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "You cannot perform this action on the request"})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Message: "Status change not allowed from the current status"})
	case errors.Is(err, models.ErrConflict):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Request was updated concurrently, retry"})
	}
	c.Logger().Error(op+": ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update request"})
}
