package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-execution-service/internal/core/domain"
	output "model-execution-service/internal/core/ports/output"
)

// ExecutionEngine drives jobs on the remote execution service and owns the
// lifecycle of their Execution records. It holds no state of its own; the
// store is the only point of serialization between concurrent calls.
type ExecutionEngine struct {
	store  output.JobStore
	remote output.RemoteExecutionClient
}

func NewExecutionEngine(store output.JobStore, remote output.RemoteExecutionClient) *ExecutionEngine {
	return &ExecutionEngine{
		store:  store,
		remote: remote,
	}
}

// JobHandle is returned by SubmitJob.
type JobHandle struct {
	ExecutionID   uuid.UUID
	ExternalJobID *string
	Status        domain.ExecutionStatus
	CreatedAt     time.Time
}

// JobStatus is the caller's view of an execution.
type JobStatus struct {
	ExecutionID     uuid.UUID
	Status          domain.ExecutionStatus
	Output          interface{}
	Error           *string
	ErrorCode       *string
	ExecutionTimeMs *int64
	CompletedAt     *time.Time
}

// SubmitJob resolves modelSlug, merges userInput with the model's override
// policy, records a PENDING execution and submits it to the remote service.
// A failed submission is recorded as FAILED and the original error returned.
func (s *ExecutionEngine) SubmitJob(
	ctx context.Context,
	consumerID uuid.UUID,
	modelSlug string,
	userInput map[string]interface{},
) (*JobHandle, error) {
	// 1-2. Resolve model and check publication
	model, err := s.resolvePublishedModel(ctx, modelSlug)
	if err != nil {
		return nil, err
	}

	// 3. Require an active endpoint
	endpoint, ok := model.ActiveEndpoint()
	if !ok {
		return nil, domain.NewEndpointNotActiveError(modelSlug)
	}

	// 4. Merge inputs
	payload := model.ConfigOverrides.Merge(userInput)

	// 5. Record the execution before anything leaves the process
	exec := domain.NewExecution(consumerID, model, endpoint, payload)
	if err := s.store.CreateExecution(ctx, exec); err != nil {
		return nil, err
	}

	// 6. Submit
	job, err := s.remote.Submit(ctx, endpoint.ExternalEndpointID, payload)
	if err != nil {
		// 7. Compensating write, then hand back the original error
		exec.MarkFailed(domain.CodeSubmissionFailed, err.Error())
		if uerr := s.store.UpdateExecution(context.WithoutCancel(ctx), exec); uerr != nil {
			log.WithError(uerr).WithField("execution_id", exec.ID).Error("record submission failure")
		}
		log.WithError(err).WithFields(log.Fields{
			"execution_id": exec.ID,
			"model_slug":   modelSlug,
		}).Warn("remote submission failed")
		return nil, err
	}

	exec.MarkSubmitted(job.ID, domain.MapRemoteStatus(job.Status))
	if err := s.store.UpdateExecution(ctx, exec); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"execution_id":    exec.ID,
		"external_job_id": job.ID,
		"model_slug":      modelSlug,
		"status":          exec.Status,
	}).Info("job submitted")

	return &JobHandle{
		ExecutionID:   exec.ID,
		ExternalJobID: exec.ExternalJobID,
		Status:        exec.Status,
		CreatedAt:     exec.CreatedAt,
	}, nil
}

// GetJobStatus returns the current state of an execution owned by consumerID.
// Terminal executions are answered from the record without contacting the
// remote service.
func (s *ExecutionEngine) GetJobStatus(ctx context.Context, executionID, consumerID uuid.UUID) (*JobStatus, error) {
	exec, err := s.loadOwnedExecution(ctx, executionID, consumerID)
	if err != nil {
		return nil, err
	}

	if exec.Status.IsTerminal() {
		return jobStatusFromRecord(exec), nil
	}

	if !exec.HasRemoteJob() {
		return &JobStatus{ExecutionID: exec.ID, Status: domain.ExecutionStatusPending}, nil
	}

	remote, err := s.remote.GetStatus(ctx, exec.RemoteEndpointID, *exec.ExternalJobID)
	if err != nil {
		return nil, err
	}

	observed := domain.MapRemoteStatus(remote.Status)
	executionTimeMs := remote.ExecutionTimeMs()

	if exec.CanTransitionTo(observed) {
		previous := exec.Status
		exec.ApplyObservation(observed, remote.Output, remote.Error, executionTimeMs)
		if err := s.store.UpdateExecution(ctx, exec); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"execution_id": exec.ID,
			"from":         previous,
			"to":           observed,
		}).Info("execution status changed")
	} else if observed != exec.Status {
		log.WithFields(log.Fields{
			"execution_id": exec.ID,
			"stored":       exec.Status,
			"observed":     observed,
		}).Debug("ignoring backward status observation")
	}

	result := &JobStatus{
		ExecutionID:     exec.ID,
		Status:          observed,
		Output:          remote.Output,
		ExecutionTimeMs: executionTimeMs,
	}
	if remote.Error != "" {
		msg := remote.Error
		code := domain.CodeExecutionFailed
		result.Error = &msg
		result.ErrorCode = &code
	}
	if observed.IsTerminal() {
		result.CompletedAt = exec.CompletedAt
	}
	return result, nil
}

// CancelJob marks a non-terminal execution CANCELLED. The remote cancel is
// best-effort; the record is cancelled even if the provider call fails.
func (s *ExecutionEngine) CancelJob(ctx context.Context, executionID, consumerID uuid.UUID) (*JobStatus, error) {
	exec, err := s.loadOwnedExecution(ctx, executionID, consumerID)
	if err != nil {
		return nil, err
	}

	if exec.Status.IsTerminal() {
		return nil, domain.NewExecutionNotCancellableError(exec.ID, exec.Status)
	}

	if exec.HasRemoteJob() {
		if err := s.remote.Cancel(ctx, exec.RemoteEndpointID, *exec.ExternalJobID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"execution_id":    exec.ID,
				"external_job_id": *exec.ExternalJobID,
			}).Warn("remote cancel failed, cancelling locally")
		}
	}

	exec.MarkCancelled()
	if err := s.store.UpdateExecution(ctx, exec); err != nil {
		return nil, err
	}

	return jobStatusFromRecord(exec), nil
}

// GetModelSchema returns the consumer-facing input schema of a published model.
func (s *ExecutionEngine) GetModelSchema(ctx context.Context, modelSlug string) (map[string]interface{}, error) {
	model, err := s.resolvePublishedModel(ctx, modelSlug)
	if err != nil {
		return nil, err
	}
	if model.BaseModel == nil {
		return nil, nil
	}
	return model.ConfigOverrides.TransformSchema(model.BaseModel.InputSchema), nil
}

func (s *ExecutionEngine) resolvePublishedModel(ctx context.Context, slug string) (*domain.PublishedModel, error) {
	model, err := s.store.FindModelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewModelNotFoundError(slug)
		}
		return nil, err
	}
	if !model.IsPublished() {
		return nil, domain.NewModelNotPublishedError(slug, model.Status)
	}
	return model, nil
}

func (s *ExecutionEngine) loadOwnedExecution(ctx context.Context, id, consumerID uuid.UUID) (*domain.Execution, error) {
	exec, err := s.store.FindExecutionByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewExecutionNotFoundError(id)
		}
		return nil, err
	}
	if !exec.IsOwnedBy(consumerID) {
		return nil, domain.NewExecutionNotOwnedError(id)
	}
	return exec, nil
}

func jobStatusFromRecord(exec *domain.Execution) *JobStatus {
	return &JobStatus{
		ExecutionID:     exec.ID,
		Status:          exec.Status,
		Output:          exec.OutputPayload,
		Error:           exec.ErrorMessage,
		ErrorCode:       exec.ErrorCode,
		ExecutionTimeMs: exec.ExecutionTimeMs,
		CompletedAt:     exec.CompletedAt,
	}
}
