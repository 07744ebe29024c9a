package dto

import (
	"time"

	"github.com/google/uuid"

	"model-execution-service/internal/core/services"
)

// ============================================================================
// Request DTOs
// ============================================================================

// SubmitExecutionRequest represents a request to run a published model
type SubmitExecutionRequest struct {
	ModelSlug string                 `json:"model_slug" binding:"required"`
	Input     map[string]interface{} `json:"input"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// SubmitExecutionResponse is returned once the job reached the remote service
type SubmitExecutionResponse struct {
	ExecutionID   uuid.UUID `json:"execution_id"`
	ExternalJobID *string   `json:"external_job_id,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExecutionStatusResponse represents the observed state of an execution
type ExecutionStatusResponse struct {
	ExecutionID     uuid.UUID   `json:"execution_id"`
	Status          string      `json:"status"`
	Output          interface{} `json:"output,omitempty"`
	Error           *string     `json:"error,omitempty"`
	ErrorCode       *string     `json:"error_code,omitempty"`
	ExecutionTimeMs *int64      `json:"execution_time_ms,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

// ModelSchemaResponse is the consumer-facing input schema of a model
type ModelSchemaResponse struct {
	Slug        string                 `json:"slug"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ErrorBody is the payload under the "error" key of every failed response
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ============================================================================
// Converters
// ============================================================================

func ToSubmitExecutionResponse(h *services.JobHandle) SubmitExecutionResponse {
	return SubmitExecutionResponse{
		ExecutionID:   h.ExecutionID,
		ExternalJobID: h.ExternalJobID,
		Status:        string(h.Status),
		CreatedAt:     h.CreatedAt,
	}
}

func ToExecutionStatusResponse(s *services.JobStatus) ExecutionStatusResponse {
	return ExecutionStatusResponse{
		ExecutionID:     s.ExecutionID,
		Status:          string(s.Status),
		Output:          s.Output,
		Error:           s.Error,
		ErrorCode:       s.ErrorCode,
		ExecutionTimeMs: s.ExecutionTimeMs,
		CompletedAt:     s.CompletedAt,
	}
}
