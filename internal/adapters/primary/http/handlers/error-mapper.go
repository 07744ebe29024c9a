package handlers

import (
	"errors"
	"net/http"

	"model-execution-service/internal/adapters/primary/http/dto"
	"model-execution-service/internal/core/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func mapDomainError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(de.Status, gin.H{"error": dto.ErrorBody{
			Code:    de.Code,
			Message: de.Message,
			Details: de.Details,
		}})
		return
	}

	log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": dto.ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": dto.ErrorBody{
		Code:    "INVALID_REQUEST",
		Message: message,
	}})
}
