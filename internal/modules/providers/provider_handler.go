package providers

import (
	"errors"
	"net/http"
	"strconv"

	"boadwuma-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the provider directory.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new provider handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the directory endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/providers", h.ListProviders)
	g.GET("/providers/top", h.TopRated)
	g.GET("/providers/:providerId", h.GetProvider)
	g.PUT("/providers/me/availability", h.SetAvailability)
}

func (h *Handler) ListProviders(c echo.Context) error {
	var filter models.ProviderFilter
	if err := c.Bind(&filter); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid query parameters"})
	}

	out, total, err := h.svc.ListProviders(c.Request().Context(), filter)
	if err != nil {
		c.Logger().Error("Handler.ListProviders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list providers"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"providers": out, "total": total})
}

func (h *Handler) TopRated(c echo.Context) error {
	limit := 5
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	out, err := h.svc.TopRated(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Error("Handler.TopRated: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list top providers"})
	}

	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetProvider(c echo.Context) error {
	providerID := c.Param("providerId")

	p, err := h.svc.GetProvider(c.Request().Context(), providerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Provider not found"})
		}
		c.Logger().Error("Handler.GetProvider: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve provider"})
	}

	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetAvailability(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)
	if role != models.RoleProvider {
		return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Only providers can set availability"})
	}

	var req struct {
		Availability string `json:"availability"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	if err := h.svc.SetAvailability(c.Request().Context(), userID, req.Availability); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Provider profile not found"})
		}
		c.Logger().Error("Handler.SetAvailability: ", err)
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Failed to update availability"})
	}
	return c.NoContent(http.StatusNoContent)
}
