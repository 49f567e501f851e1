// Package v1 provides the v1 HTTP handlers for the conversation store.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/convokeep/convokeep/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the v1 routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Conversation API
	e.GET("/v1/conversations", h.ListConversations)
	e.GET("/v1/conversations/:channel_id/messages", h.GetConversationMessages)
	e.DELETE("/v1/conversations/:channel_id", h.DeleteConversation)
	e.POST("/v1/conversations/:channel_id/moderate", h.ModerateConversation)
	e.GET("/v1/messages/:uuid", h.GetMessage)

	// Author cache API
	e.GET("/v1/authors/:id", h.GetAuthor)
	e.PUT("/v1/authors/:id", h.PutAuthor)

	e.GET("/health", h.Health)
}

// Health returns health status, including storage reachability.
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
