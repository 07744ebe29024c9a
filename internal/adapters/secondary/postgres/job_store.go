package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-execution-service/internal/core/domain"
	ports "model-execution-service/internal/core/ports/output"
)

type jobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore creates a new execution job store
func NewJobStore(pool *pgxpool.Pool) ports.JobStore {
	return &jobStore{pool: pool}
}

// ============================================================================
// Model Chain
// ============================================================================

func (r *jobStore) FindModelBySlug(ctx context.Context, slug string) (*domain.PublishedModel, error) {
	query := `
		SELECT pm.id, pm.created_at, pm.updated_at, pm.developer_id, pm.slug, pm.title, pm.status,
			pm.config_overrides,
			bm.id, bm.name, bm.input_schema,
			e.id, e.external_endpoint_id, e.is_active
		FROM published_model pm
		LEFT JOIN base_model bm ON bm.id = pm.base_model_id
		LEFT JOIN endpoint e ON e.id = bm.endpoint_id
		WHERE pm.slug = $1
	`
	m := &domain.PublishedModel{}
	var (
		status         string
		overridesJSON  []byte
		baseID         *uuid.UUID
		baseName       *string
		schemaJSON     []byte
		endpointID     *uuid.UUID
		externalID     *string
		endpointActive *bool
	)

	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.DeveloperID, &m.Slug, &m.Title, &status,
		&overridesJSON,
		&baseID, &baseName, &schemaJSON,
		&endpointID, &externalID, &endpointActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get published_model by slug: %w", err)
	}
	m.Status = domain.ModelStatus(status)

	if len(overridesJSON) > 0 {
		var overrides domain.ConfigOverrides
		if err := json.Unmarshal(overridesJSON, &overrides); err != nil {
			return nil, fmt.Errorf("unmarshal config_overrides: %w", err)
		}
		m.ConfigOverrides = &overrides
	}

	if baseID != nil {
		m.BaseModel = &domain.BaseModel{ID: *baseID}
		if baseName != nil {
			m.BaseModel.Name = *baseName
		}
		if len(schemaJSON) > 0 {
			if err := json.Unmarshal(schemaJSON, &m.BaseModel.InputSchema); err != nil {
				return nil, fmt.Errorf("unmarshal input_schema: %w", err)
			}
		}
		if endpointID != nil {
			m.BaseModel.Endpoint = &domain.Endpoint{ID: *endpointID}
			if externalID != nil {
				m.BaseModel.Endpoint.ExternalEndpointID = *externalID
			}
			if endpointActive != nil {
				m.BaseModel.Endpoint.IsActive = *endpointActive
			}
		}
	}

	return m, nil
}

// ============================================================================
// Executions
// ============================================================================

func (r *jobStore) CreateExecution(ctx context.Context, exec *domain.Execution) error {
	inputJSON, err := json.Marshal(exec.InputPayload)
	if err != nil {
		return fmt.Errorf("marshal input_payload: %w", err)
	}

	query := `
		INSERT INTO execution (id, created_at, updated_at, consumer_id, published_model_id, endpoint_id,
			status, input_payload, external_job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		exec.ID,
		exec.CreatedAt,
		exec.UpdatedAt,
		exec.ConsumerID,
		exec.PublishedModelID,
		exec.EndpointID,
		string(exec.Status),
		inputJSON,
		exec.ExternalJobID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("execution %s already exists: %w", exec.ID, err)
		}
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func (r *jobStore) FindExecutionByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		SELECT x.id, x.created_at, x.updated_at, x.consumer_id, x.published_model_id, x.endpoint_id,
			x.status, x.input_payload, x.external_job_id, x.output_payload, x.error_message, x.error_code,
			x.execution_time_ms, x.completed_at,
			COALESCE(e.external_endpoint_id, ''), COALESCE(pm.slug, '')
		FROM execution x
		LEFT JOIN endpoint e ON e.id = x.endpoint_id
		LEFT JOIN published_model pm ON pm.id = x.published_model_id
		WHERE x.id = $1
	`
	exec, err := r.scanExecution(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get execution by id: %w", err)
	}
	return exec, nil
}

// UpdateExecution overwrites every mutable column. Concurrent pollers write
// the same observed values, so the last writer winning is harmless.
func (r *jobStore) UpdateExecution(ctx context.Context, exec *domain.Execution) error {
	var outputJSON []byte
	if exec.OutputPayload != nil {
		var err error
		outputJSON, err = json.Marshal(exec.OutputPayload)
		if err != nil {
			return fmt.Errorf("marshal output_payload: %w", err)
		}
	}

	query := `
		UPDATE execution
		SET status = $1, external_job_id = $2, output_payload = $3, error_message = $4, error_code = $5,
			execution_time_ms = $6, completed_at = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.pool.Exec(ctx, query,
		string(exec.Status),
		exec.ExternalJobID,
		outputJSON,
		exec.ErrorMessage,
		exec.ErrorCode,
		exec.ExecutionTimeMs,
		exec.CompletedAt,
		exec.UpdatedAt,
		exec.ID,
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *jobStore) scanExecution(row pgx.Row) (*domain.Execution, error) {
	exec := &domain.Execution{}
	var (
		status      string
		inputJSON   []byte
		outputJSON  []byte
		completedAt *time.Time
	)

	err := row.Scan(
		&exec.ID, &exec.CreatedAt, &exec.UpdatedAt, &exec.ConsumerID, &exec.PublishedModelID, &exec.EndpointID,
		&status, &inputJSON, &exec.ExternalJobID, &outputJSON, &exec.ErrorMessage, &exec.ErrorCode,
		&exec.ExecutionTimeMs, &completedAt,
		&exec.RemoteEndpointID, &exec.ModelSlug,
	)
	if err != nil {
		return nil, err
	}

	exec.Status = domain.ExecutionStatus(status)
	exec.CompletedAt = completedAt

	if len(inputJSON) > 0 {
		if err := json.Unmarshal(inputJSON, &exec.InputPayload); err != nil {
			return nil, fmt.Errorf("unmarshal input_payload: %w", err)
		}
	}
	if len(outputJSON) > 0 {
		if err := json.Unmarshal(outputJSON, &exec.OutputPayload); err != nil {
			return nil, fmt.Errorf("unmarshal output_payload: %w", err)
		}
	}
	return exec, nil
}
