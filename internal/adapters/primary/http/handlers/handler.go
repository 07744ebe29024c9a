package handlers

import (
	"model-execution-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *services.ExecutionEngine
}

func New(engine *services.ExecutionEngine) *Handler {
	return &Handler{
		engine: engine,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Executions
	r.POST("/executions", h.SubmitExecution)
	r.GET("/executions/:id", h.GetExecution)
	r.POST("/executions/:id/cancel", h.CancelExecution)

	// Models
	r.GET("/models/:slug/schema", h.GetModelSchema)
}
