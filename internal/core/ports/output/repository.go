package ports

import (
	"context"

	"github.com/google/uuid"

	"model-execution-service/internal/core/domain"
)

// JobStore is the persistence contract of the execution engine. Lookups
// return domain.ErrRecordNotFound when nothing matches.
type JobStore interface {
	// FindModelBySlug loads a published model with its base model and endpoint
	FindModelBySlug(ctx context.Context, slug string) (*domain.PublishedModel, error)

	// CreateExecution inserts a new execution record
	CreateExecution(ctx context.Context, exec *domain.Execution) error

	// FindExecutionByID retrieves an execution by ID
	FindExecutionByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error)

	// UpdateExecution replaces every mutable column of an execution
	UpdateExecution(ctx context.Context, exec *domain.Execution) error
}
