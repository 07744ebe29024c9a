package ports

import (
	"context"
	"math"

	"model-execution-service/internal/core/domain"
)

// ============================================================================
// Remote Execution Types
// ============================================================================

// RemoteJob is the provider's answer to a submission.
type RemoteJob struct {
	ID     string              `json:"id"`
	Status domain.RemoteStatus `json:"status"`
}

// RemoteJobStatus is the provider's view of a job.
type RemoteJobStatus struct {
	ID            string              `json:"id"`
	Status        domain.RemoteStatus `json:"status"`
	Output        interface{}         `json:"output,omitempty"`
	Error         string              `json:"error,omitempty"`
	ExecutionTime *float64            `json:"executionTime,omitempty"` // seconds
}

// ExecutionTimeMs converts the remote execution time to whole milliseconds.
func (s *RemoteJobStatus) ExecutionTimeMs() *int64 {
	if s == nil || s.ExecutionTime == nil {
		return nil
	}
	ms := int64(math.Round(*s.ExecutionTime * 1000))
	return &ms
}

// ============================================================================
// Remote Execution Client Interface
// ============================================================================

// RemoteExecutionClient talks to the external GPU job API. Failures are
// returned as *domain.Error of kind domain.KindRemote.
type RemoteExecutionClient interface {
	// Submit queues a job on the endpoint
	Submit(ctx context.Context, endpointID string, input map[string]interface{}) (*RemoteJob, error)

	// GetStatus polls a job
	GetStatus(ctx context.Context, endpointID, jobID string) (*RemoteJobStatus, error)

	// Cancel asks the provider to stop a job
	Cancel(ctx context.Context, endpointID, jobID string) error

	// SubmitSync runs a job and blocks until the provider resolves it
	SubmitSync(ctx context.Context, endpointID string, input map[string]interface{}) (*RemoteJobStatus, error)
}
