package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"model-execution-service/internal/core/domain"
	ports "model-execution-service/internal/core/ports/output"
)

// MockJobStore is a mock of JobStore.
type MockJobStore struct {
	mock.Mock
}

func (m *MockJobStore) FindModelBySlug(ctx context.Context, slug string) (*domain.PublishedModel, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublishedModel), args.Error(1)
}

func (m *MockJobStore) CreateExecution(ctx context.Context, exec *domain.Execution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

func (m *MockJobStore) FindExecutionByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Execution), args.Error(1)
}

func (m *MockJobStore) UpdateExecution(ctx context.Context, exec *domain.Execution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

// MockRemoteClient is a mock of RemoteExecutionClient.
type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Submit(ctx context.Context, endpointID string, input map[string]interface{}) (*ports.RemoteJob, error) {
	args := m.Called(ctx, endpointID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RemoteJob), args.Error(1)
}

func (m *MockRemoteClient) GetStatus(ctx context.Context, endpointID, jobID string) (*ports.RemoteJobStatus, error) {
	args := m.Called(ctx, endpointID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RemoteJobStatus), args.Error(1)
}

func (m *MockRemoteClient) Cancel(ctx context.Context, endpointID, jobID string) error {
	args := m.Called(ctx, endpointID, jobID)
	return args.Error(0)
}

func (m *MockRemoteClient) SubmitSync(ctx context.Context, endpointID string, input map[string]interface{}) (*ports.RemoteJobStatus, error) {
	args := m.Called(ctx, endpointID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RemoteJobStatus), args.Error(1)
}

// ============================================================================
// Fixtures
// ============================================================================

// PublishedModel returns a published model with an active endpoint.
func PublishedModel(slug string, overrides *domain.ConfigOverrides) *domain.PublishedModel {
	return &domain.PublishedModel{
		ID:              uuid.New(),
		DeveloperID:     uuid.New(),
		Slug:            slug,
		Title:           slug,
		Status:          domain.ModelStatusPublished,
		ConfigOverrides: overrides,
		BaseModel: &domain.BaseModel{
			ID:   uuid.New(),
			Name: "base-" + slug,
			Endpoint: &domain.Endpoint{
				ID:                 uuid.New(),
				ExternalEndpointID: "ep-" + slug,
				IsActive:           true,
			},
		},
	}
}

// Execution returns an execution in the given status owned by consumerID.
func Execution(consumerID uuid.UUID, status domain.ExecutionStatus, externalJobID string) *domain.Execution {
	exec := &domain.Execution{
		ID:               uuid.New(),
		ConsumerID:       consumerID,
		PublishedModelID: uuid.New(),
		EndpointID:       uuid.New(),
		Status:           status,
		InputPayload:     map[string]interface{}{"text": "hi"},
		RemoteEndpointID: "ep-test",
		ModelSlug:        "test",
	}
	if externalJobID != "" {
		exec.ExternalJobID = &externalJobID
	}
	return exec
}
