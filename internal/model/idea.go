package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdeaStatus is the lifecycle state of a candidate idea.
// The engine only ever moves an idea to IdeaStatusSelected; everything
// else is owned by the surrounding application.
type IdeaStatus string

const (
	IdeaStatusProposed IdeaStatus = "proposed"
	IdeaStatusSelected IdeaStatus = "selected"
	IdeaStatusRejected IdeaStatus = "rejected"
	IdeaStatusArchived IdeaStatus = "archived"
)

// Idea is a proposed unit of work under evaluation. Read-only to the
// debate core except for the status flip on a passed vote.
type Idea struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reasoning   string     `json:"reasoning"`
	Effort      int        `json:"effort"` // 1-3
	Impact      int        `json:"impact"` // 1-3
	SourceAgent AgentKind  `json:"source_agent,omitempty"`
	Status      IdeaStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Goal is a project objective, used only for prompt context.
type Goal struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContextEntry is a free-form piece of project context (tech stack notes,
// constraints, conventions), used only for prompt context.
type ContextEntry struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateIdea checks score ranges and required fields before a debate
// is allowed to start.
func ValidateIdea(idea Idea) error {
	if idea.ID == uuid.Nil {
		return fmt.Errorf("idea id is required")
	}
	if idea.ProjectID == uuid.Nil {
		return fmt.Errorf("idea project id is required")
	}
	if idea.Description == "" && idea.Title == "" {
		return fmt.Errorf("idea must have a title or description")
	}
	if idea.Effort < 1 || idea.Effort > 3 {
		return fmt.Errorf("idea effort must be in [1,3], got %d", idea.Effort)
	}
	if idea.Impact < 1 || idea.Impact > 3 {
		return fmt.Errorf("idea impact must be in [1,3], got %d", idea.Impact)
	}
	if idea.SourceAgent != "" && !ValidAgentKind(idea.SourceAgent) {
		return fmt.Errorf("idea source agent %q is not in the catalog", idea.SourceAgent)
	}
	return nil
}
