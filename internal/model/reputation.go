package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AgentReputation is the accuracy record for one (agent kind, project)
// pair. Created lazily on the first validation event.
type AgentReputation struct {
	AgentKind          AgentKind `json:"agent_kind"`
	ProjectID          uuid.UUID `json:"project_id"`
	TotalCritiques     int       `json:"total_critiques"`
	ValidatedCritiques int       `json:"validated_critiques"`
	RejectedCritiques  int       `json:"rejected_critiques"`
	Accuracy           float64   `json:"accuracy"`
	Score              int       `json:"score"` // 0-100; [50,100] under the current formula
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewAgentReputation returns the default record for a pair with no
// history: neutral accuracy, base score.
func NewAgentReputation(kind AgentKind, projectID uuid.UUID) AgentReputation {
	return AgentReputation{
		AgentKind: kind,
		ProjectID: projectID,
		Accuracy:  0.5,
		Score:     50,
	}
}

// Apply records one validation event and recomputes accuracy and score
// from the full counters. The recompute is total, never incremental, so
// replaying the same history always yields the same record.
func (r *AgentReputation) Apply(validated bool) {
	r.TotalCritiques++
	if validated {
		r.ValidatedCritiques++
	} else {
		r.RejectedCritiques++
	}
	r.Accuracy = float64(r.ValidatedCritiques) / float64(r.TotalCritiques)
	r.Score = reputationScore(r.Accuracy, r.TotalCritiques)
}

// VoteWeight derives the ballot weight for a known reputation record:
// 0.5 + score/200, bounding known agents to [0.5, 1.0].
func (r AgentReputation) VoteWeight() float64 {
	return 0.5 + float64(r.Score)/200
}

// reputationScore computes the 0-100 score: a 50-point base, up to 30
// points from accuracy, and up to 20 points from critique volume capped
// at 10 critiques.
func reputationScore(accuracy float64, total int) int {
	volume := math.Min(float64(total)/10, 1)
	return int(math.Round(50 + accuracy*30 + volume*20))
}
