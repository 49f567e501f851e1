package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type putAuthorRequest struct {
	Name string `json:"name"`
}

// GetAuthor returns the cached display name for an author id.
// GET /v1/authors/:id
func (h *Handler) GetAuthor(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid author id"})
	}

	name, ok, err := h.service.ResolveAuthor(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "author not found"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":   id,
		"name": name,
	})
}

// PutAuthor records the id/name mapping for an author.
// PUT /v1/authors/:id
func (h *Handler) PutAuthor(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid author id"})
	}

	var req putAuthorRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	if err := h.service.CacheAuthor(id, req.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":   id,
		"name": req.Name,
	})
}
