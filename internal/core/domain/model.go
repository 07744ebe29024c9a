package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Value Objects
// ============================================================================

// ModelStatus is the publication status of a developer-published model.
type ModelStatus string

const (
	ModelStatusDraft     ModelStatus = "draft"
	ModelStatusPublished ModelStatus = "published"
	ModelStatusArchived  ModelStatus = "archived"
)

// IsValid checks if the status is valid
func (s ModelStatus) IsValid() bool {
	return s == ModelStatusDraft || s == ModelStatusPublished || s == ModelStatusArchived
}

// ConfigOverrides is the developer's policy layered onto consumer input.
// Every field is optional.
type ConfigOverrides struct {
	DefaultInputs map[string]interface{} `json:"defaultInputs,omitempty"`
	LockedInputs  map[string]interface{} `json:"lockedInputs,omitempty"`
	HiddenFields  []string               `json:"hiddenFields,omitempty"`
	PromptPrefix  *string                `json:"promptPrefix,omitempty"`
	PromptSuffix  *string                `json:"promptSuffix,omitempty"`
}

// ============================================================================
// Entities (read-only for the engine, owned by the catalog)
// ============================================================================

// Endpoint is a remote compute target.
type Endpoint struct {
	ID                 uuid.UUID `json:"id"`
	ExternalEndpointID string    `json:"external_endpoint_id"` // provider-side endpoint id
	IsActive           bool      `json:"is_active"`
}

// BaseModel is the capability definition a published model is built on.
type BaseModel struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	InputSchema map[string]interface{} `json:"input_schema"`
	Endpoint    *Endpoint              `json:"endpoint,omitempty"`
}

// PublishedModel is a developer-created configuration visible to consumers.
type PublishedModel struct {
	ID              uuid.UUID        `json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeveloperID     uuid.UUID        `json:"developer_id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Status          ModelStatus      `json:"status"`
	ConfigOverrides *ConfigOverrides `json:"config_overrides,omitempty"`

	// Related entities (loaded with the model)
	BaseModel *BaseModel `json:"base_model,omitempty"`
}

// IsPublished returns true if consumers may run the model
func (m *PublishedModel) IsPublished() bool {
	return m.Status == ModelStatusPublished
}

// ActiveEndpoint returns the resolved endpoint if it exists and is active.
func (m *PublishedModel) ActiveEndpoint() (*Endpoint, bool) {
	if m.BaseModel == nil || m.BaseModel.Endpoint == nil {
		return nil, false
	}
	if !m.BaseModel.Endpoint.IsActive {
		return m.BaseModel.Endpoint, false
	}
	return m.BaseModel.Endpoint, true
}
