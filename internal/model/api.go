package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// API error codes returned in the standard error envelope.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"
)

// ResponseMeta is attached to every API response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// APIResponse is the standard success envelope.
type APIResponse struct {
	Data any          `json:"data"`
	Meta ResponseMeta `json:"meta"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the standard error envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// MaxQuickDebateIdeas bounds one quick-debate request. Each idea costs a
// full (shortened) debate, so the cap protects the generation budget.
const MaxQuickDebateIdeas = 5

// DebateRequest starts a full debate for one idea.
type DebateRequest struct {
	IdeaID         uuid.UUID     `json:"idea_id"`
	ProjectID      uuid.UUID     `json:"project_id"`
	ProjectContext string        `json:"project_context,omitempty"`
	Config         *DebateConfig `json:"config,omitempty"`
}

// Validate checks required request fields.
func (r DebateRequest) Validate() error {
	if r.IdeaID == uuid.Nil {
		return fmt.Errorf("idea_id is required")
	}
	if r.ProjectID == uuid.Nil {
		return fmt.Errorf("project_id is required")
	}
	if r.Config != nil {
		return r.Config.Validate()
	}
	return nil
}

// QuickDebateRequest debates up to MaxQuickDebateIdeas ideas with
// shortened rounds and picks the strongest passed result.
type QuickDebateRequest struct {
	IdeaIDs        []uuid.UUID `json:"idea_ids"`
	ProjectID      uuid.UUID   `json:"project_id"`
	ProjectContext string      `json:"project_context,omitempty"`
}

// Validate checks required request fields and the idea cap.
func (r QuickDebateRequest) Validate() error {
	if len(r.IdeaIDs) == 0 {
		return fmt.Errorf("idea_ids is required")
	}
	if len(r.IdeaIDs) > MaxQuickDebateIdeas {
		return fmt.Errorf("at most %d ideas per quick debate, got %d", MaxQuickDebateIdeas, len(r.IdeaIDs))
	}
	if r.ProjectID == uuid.Nil {
		return fmt.Errorf("project_id is required")
	}
	return nil
}

// ValidationRequest records a human validation or rejection of one
// agent kind's critique within a project.
type ValidationRequest struct {
	AgentKind AgentKind `json:"agent_kind"`
	ProjectID uuid.UUID `json:"project_id"`
	Validated bool      `json:"validated"`
}

// Validate checks required request fields.
func (r ValidationRequest) Validate() error {
	if !ValidAgentKind(r.AgentKind) {
		return fmt.Errorf("agent_kind %q is not in the catalog", r.AgentKind)
	}
	if r.ProjectID == uuid.Nil {
		return fmt.Errorf("project_id is required")
	}
	return nil
}
