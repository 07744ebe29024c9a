package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Value Objects
// ============================================================================

// ExecutionStatus is the internal lifecycle state of an Execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusQueued    ExecutionStatus = "QUEUED"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusPending, ExecutionStatusQueued, ExecutionStatusRunning,
		ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions can happen.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// rank orders statuses along the lifecycle; transitions only move up.
func (s ExecutionStatus) rank() int {
	switch s {
	case ExecutionStatusPending:
		return 0
	case ExecutionStatusQueued:
		return 1
	case ExecutionStatusRunning:
		return 2
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return 3
	default:
		return -1
	}
}

// ============================================================================
// Entities
// ============================================================================

// Execution is one job run against a published model, owned by a consumer.
type Execution struct {
	ID               uuid.UUID              `json:"id"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ConsumerID       uuid.UUID              `json:"consumer_id"`
	PublishedModelID uuid.UUID              `json:"published_model_id"`
	EndpointID       uuid.UUID              `json:"endpoint_id"`
	Status           ExecutionStatus        `json:"status"`
	InputPayload     map[string]interface{} `json:"input_payload"`
	ExternalJobID    *string                `json:"external_job_id"`

	// Populated on terminal transition
	OutputPayload   interface{} `json:"output_payload"`
	ErrorMessage    *string     `json:"error_message"`
	ErrorCode       *string     `json:"error_code"`
	ExecutionTimeMs *int64      `json:"execution_time_ms"`
	CompletedAt     *time.Time  `json:"completed_at"`

	// Computed/joined fields
	RemoteEndpointID string `json:"remote_endpoint_id,omitempty"`
	ModelSlug        string `json:"model_slug,omitempty"`
}

// NewExecution creates a PENDING execution holding the already merged payload.
func NewExecution(consumerID uuid.UUID, model *PublishedModel, endpoint *Endpoint, payload map[string]interface{}) *Execution {
	now := time.Now()
	return &Execution{
		ID:               uuid.New(),
		CreatedAt:        now,
		UpdatedAt:        now,
		ConsumerID:       consumerID,
		PublishedModelID: model.ID,
		EndpointID:       endpoint.ID,
		Status:           ExecutionStatusPending,
		InputPayload:     payload,
		RemoteEndpointID: endpoint.ExternalEndpointID,
		ModelSlug:        model.Slug,
	}
}

// IsOwnedBy returns true if consumerID owns the execution
func (e *Execution) IsOwnedBy(consumerID uuid.UUID) bool {
	return e.ConsumerID == consumerID
}

// HasRemoteJob returns true once the remote provider accepted the job
func (e *Execution) HasRemoteJob() bool {
	return e.ExternalJobID != nil && *e.ExternalJobID != ""
}

// CanTransitionTo reports whether next is a forward move from the current status.
func (e *Execution) CanTransitionTo(next ExecutionStatus) bool {
	if e.Status.IsTerminal() || !next.IsValid() {
		return false
	}
	return next.rank() > e.Status.rank()
}

// MarkSubmitted records the remote job id and the first observed status.
func (e *Execution) MarkSubmitted(externalJobID string, status ExecutionStatus) {
	e.ExternalJobID = &externalJobID
	if e.CanTransitionTo(status) {
		e.Status = status
		if status.IsTerminal() {
			now := time.Now()
			e.CompletedAt = &now
		}
	}
	e.UpdatedAt = time.Now()
}

// MarkFailed moves the execution to FAILED with a code and message.
func (e *Execution) MarkFailed(code, message string) {
	now := time.Now()
	e.Status = ExecutionStatusFailed
	e.ErrorCode = &code
	e.ErrorMessage = &message
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// MarkCancelled moves the execution to CANCELLED.
func (e *Execution) MarkCancelled() {
	now := time.Now()
	e.Status = ExecutionStatusCancelled
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// ApplyObservation records a freshly observed remote state. Fields that were
// not observed are left untouched.
func (e *Execution) ApplyObservation(status ExecutionStatus, output interface{}, errMsg string, executionTimeMs *int64) {
	now := time.Now()
	e.Status = status
	if output != nil {
		e.OutputPayload = output
	}
	if errMsg != "" {
		code := CodeExecutionFailed
		e.ErrorMessage = &errMsg
		e.ErrorCode = &code
	}
	if executionTimeMs != nil {
		ms := *executionTimeMs
		e.ExecutionTimeMs = &ms
	}
	if status.IsTerminal() {
		e.CompletedAt = &now
	}
	e.UpdatedAt = now
}
