package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"model-execution-service/internal/adapters/primary/http/dto"
)

func (h *Handler) GetModelSchema(c *gin.Context) {
	slug := c.Param("slug")

	schema, err := h.engine.GetModelSchema(c.Request.Context(), slug)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ModelSchemaResponse{
		Slug:        slug,
		InputSchema: schema,
	})
}
