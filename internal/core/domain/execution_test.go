package domain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   ExecutionStatus
		terminal bool
	}{
		{ExecutionStatusPending, false},
		{ExecutionStatusQueued, false},
		{ExecutionStatusRunning, false},
		{ExecutionStatusCompleted, true},
		{ExecutionStatusFailed, true},
		{ExecutionStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
	assert.False(t, ExecutionStatus("BOGUS").IsValid())
}

func TestExecution_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ExecutionStatus
		allowed  bool
	}{
		{ExecutionStatusPending, ExecutionStatusQueued, true},
		{ExecutionStatusPending, ExecutionStatusCompleted, true},
		{ExecutionStatusQueued, ExecutionStatusRunning, true},
		{ExecutionStatusRunning, ExecutionStatusFailed, true},
		{ExecutionStatusRunning, ExecutionStatusQueued, false},
		{ExecutionStatusQueued, ExecutionStatusQueued, false},
		{ExecutionStatusCompleted, ExecutionStatusFailed, false},
		{ExecutionStatusCancelled, ExecutionStatusRunning, false},
		{ExecutionStatusQueued, ExecutionStatus("BOGUS"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			e := &Execution{Status: tt.from}
			assert.Equal(t, tt.allowed, e.CanTransitionTo(tt.to))
		})
	}
}

func TestNewExecution(t *testing.T) {
	consumer := uuid.New()
	endpoint := &Endpoint{ID: uuid.New(), ExternalEndpointID: "ep-1", IsActive: true}
	model := &PublishedModel{ID: uuid.New(), Slug: "tts", BaseModel: &BaseModel{Endpoint: endpoint}}
	payload := map[string]interface{}{"text": "hi"}

	e := NewExecution(consumer, model, endpoint, payload)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, ExecutionStatusPending, e.Status)
	assert.Equal(t, payload, e.InputPayload)
	assert.Equal(t, "ep-1", e.RemoteEndpointID)
	assert.Equal(t, "tts", e.ModelSlug)
	assert.True(t, e.IsOwnedBy(consumer))
	assert.False(t, e.IsOwnedBy(uuid.New()))
	assert.False(t, e.HasRemoteJob())
	assert.Nil(t, e.CompletedAt)
}

func TestExecution_MarkSubmitted(t *testing.T) {
	e := &Execution{Status: ExecutionStatusPending}
	e.MarkSubmitted("job-1", ExecutionStatusQueued)

	require.True(t, e.HasRemoteJob())
	assert.Equal(t, "job-1", *e.ExternalJobID)
	assert.Equal(t, ExecutionStatusQueued, e.Status)
	assert.Nil(t, e.CompletedAt)
}

func TestExecution_ApplyObservation_Terminal(t *testing.T) {
	e := &Execution{Status: ExecutionStatusRunning}
	ms := int64(1500)

	e.ApplyObservation(ExecutionStatusFailed, nil, "out of memory", &ms)

	assert.Equal(t, ExecutionStatusFailed, e.Status)
	require.NotNil(t, e.ErrorMessage)
	assert.Equal(t, "out of memory", *e.ErrorMessage)
	assert.Equal(t, CodeExecutionFailed, *e.ErrorCode)
	assert.Equal(t, int64(1500), *e.ExecutionTimeMs)
	assert.NotNil(t, e.CompletedAt)
}

func TestExecution_MarkFailed(t *testing.T) {
	e := &Execution{Status: ExecutionStatusPending}
	e.MarkFailed(CodeSubmissionFailed, "boom")

	assert.Equal(t, ExecutionStatusFailed, e.Status)
	assert.Equal(t, CodeSubmissionFailed, *e.ErrorCode)
	assert.Equal(t, "boom", *e.ErrorMessage)
	assert.NotNil(t, e.CompletedAt)
}

func TestMapRemoteStatus(t *testing.T) {
	tests := map[RemoteStatus]ExecutionStatus{
		RemoteStatusInQueue:     ExecutionStatusQueued,
		RemoteStatusInProgress:  ExecutionStatusRunning,
		RemoteStatusCompleted:   ExecutionStatusCompleted,
		RemoteStatusFailed:      ExecutionStatusFailed,
		RemoteStatusCancelled:   ExecutionStatusCancelled,
		RemoteStatusTimedOut:    ExecutionStatusFailed,
		RemoteStatus("WARMING"): ExecutionStatusQueued,
		RemoteStatus(""):        ExecutionStatusQueued,
	}
	for remote, expected := range tests {
		assert.Equal(t, expected, MapRemoteStatus(remote), "remote status %q", remote)
	}
}

func TestPublishedModel_ActiveEndpoint(t *testing.T) {
	active := &Endpoint{ID: uuid.New(), IsActive: true}

	m := &PublishedModel{BaseModel: &BaseModel{Endpoint: active}}
	ep, ok := m.ActiveEndpoint()
	assert.True(t, ok)
	assert.Equal(t, active, ep)

	m.BaseModel.Endpoint = &Endpoint{ID: uuid.New(), IsActive: false}
	_, ok = m.ActiveEndpoint()
	assert.False(t, ok)

	m.BaseModel = nil
	_, ok = m.ActiveEndpoint()
	assert.False(t, ok)
}

// ============================================================================
// Errors
// ============================================================================

func TestError_IsMatchesKind(t *testing.T) {
	id := uuid.New()
	err := NewExecutionNotCancellableError(id, ExecutionStatusFailed)

	assert.ErrorIs(t, err, ErrExecutionNotCancellable)
	assert.NotErrorIs(t, err, ErrExecutionNotFound)
	assert.Equal(t, KindExecutionNotCancellable, KindOf(err))
	assert.Equal(t, "FAILED", err.Details["status"])
	assert.Equal(t, id.String(), err.Details["execution_id"])
	assert.Equal(t, http.StatusConflict, err.Status)
}

func TestNewRemoteError(t *testing.T) {
	rateLimited := NewRemoteError(http.StatusTooManyRequests, "slow down", nil)
	assert.Equal(t, CodeRateLimited, rateLimited.Code)
	assert.Equal(t, http.StatusTooManyRequests, rateLimited.Status)
	assert.Equal(t, http.StatusTooManyRequests, RemoteStatusCode(rateLimited))

	serverErr := NewRemoteError(http.StatusServiceUnavailable, "", nil)
	assert.Equal(t, CodeRemoteExecution, serverErr.Code)
	assert.Equal(t, http.StatusBadGateway, serverErr.Status)
	assert.NotContains(t, serverErr.Details, "body")

	cause := errors.New("dial tcp: refused")
	transport := NewRemoteError(0, "", cause)
	assert.ErrorIs(t, transport, cause)
	assert.ErrorIs(t, transport, ErrRemote)
	assert.Equal(t, 0, RemoteStatusCode(transport))

	assert.Equal(t, 0, RemoteStatusCode(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
