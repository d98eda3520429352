package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/tags"
)

type TagHandler struct {
	catalog *tags.Catalog
	log     *slog.Logger
}

func NewTagHandler(catalog *tags.Catalog, log *slog.Logger) *TagHandler {
	return &TagHandler{catalog: catalog, log: log}
}

// GetTags returns all tags, most used first
func (h *TagHandler) GetTags(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
