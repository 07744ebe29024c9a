package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-execution-service/internal/adapters/primary/http/dto"
)

const headerConsumerID = "X-Consumer-ID"

var errMissingConsumerID = errors.New("missing " + headerConsumerID + " header")

// ============================================================================
// Executions
// ============================================================================

func (h *Handler) SubmitExecution(c *gin.Context) {
	consumerID, err := getConsumerID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req dto.SubmitExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	input := req.Input
	if input == nil {
		input = map[string]interface{}{}
	}

	handle, err := h.engine.SubmitJob(c.Request.Context(), consumerID, req.ModelSlug, input)
	if err != nil {
		log.WithError(err).WithField("model_slug", req.ModelSlug).Error("submit execution failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.ToSubmitExecutionResponse(handle))
}

func (h *Handler) GetExecution(c *gin.Context) {
	consumerID, executionID, ok := parseExecutionRequest(c)
	if !ok {
		return
	}

	status, err := h.engine.GetJobStatus(c.Request.Context(), executionID, consumerID)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExecutionStatusResponse(status))
}

func (h *Handler) CancelExecution(c *gin.Context) {
	consumerID, executionID, ok := parseExecutionRequest(c)
	if !ok {
		return
	}

	status, err := h.engine.CancelJob(c.Request.Context(), executionID, consumerID)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExecutionStatusResponse(status))
}

// ============================================================================
// Helpers
// ============================================================================

func getConsumerID(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader(headerConsumerID)
	if header == "" {
		return uuid.Nil, errMissingConsumerID
	}
	return uuid.Parse(header)
}

func parseExecutionRequest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	consumerID, err := getConsumerID(c)
	if err != nil {
		badRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	executionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid execution id")
		return uuid.Nil, uuid.Nil, false
	}
	return consumerID, executionID, true
}
