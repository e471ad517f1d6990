package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DebateRole is an agent's fixed role within one debate session.
// Roles are assigned before round 1 and never change.
type DebateRole string

const (
	RoleProposer   DebateRole = "proposer"
	RoleChallenger DebateRole = "challenger"
	RoleMediator   DebateRole = "mediator"
	RoleVoter      DebateRole = "voter"
)

// TurnAction is the kind of contribution an agent made in one turn.
type TurnAction string

const (
	ActionPropose   TurnAction = "propose"
	ActionChallenge TurnAction = "challenge"
	ActionDefend    TurnAction = "defend"
	ActionMediate   TurnAction = "mediate"
	ActionConcede   TurnAction = "concede"
	ActionVote      TurnAction = "vote"
)

// ValidTurnAction reports whether a is one of the known actions.
func ValidTurnAction(a TurnAction) bool {
	switch a {
	case ActionPropose, ActionChallenge, ActionDefend, ActionMediate, ActionConcede, ActionVote:
		return true
	}
	return false
}

// DefaultAction returns the fallback action for a role, used when a
// generation response cannot be parsed. Round 1 proposers propose;
// afterwards they defend.
func DefaultAction(role DebateRole, round int) TurnAction {
	switch role {
	case RoleProposer:
		if round <= 1 {
			return ActionPropose
		}
		return ActionDefend
	case RoleChallenger:
		return ActionChallenge
	case RoleMediator:
		return ActionMediate
	case RoleVoter:
		return ActionVote
	default:
		return ActionDefend
	}
}

// DebateTurn is one agent action in one round. Immutable once appended;
// the ordered sequence across rounds is the session transcript.
type DebateTurn struct {
	Round       int        `json:"round"`
	Agent       AgentKind  `json:"agent"`
	Role        DebateRole `json:"role"`
	Action      TurnAction `json:"action"`
	Content     string     `json:"content"`
	TargetAgent AgentKind  `json:"target_agent,omitempty"`
	Confidence  int        `json:"confidence"` // 0-100
	CreatedAt   time.Time  `json:"created_at"`
}

// RoundOutcome tags how a round closed.
type RoundOutcome string

const (
	OutcomeOngoing      RoundOutcome = "ongoing"
	OutcomeConsensus    RoundOutcome = "consensus"
	OutcomeEscalate     RoundOutcome = "escalate"
	OutcomeVoteRequired RoundOutcome = "vote_required"
)

// DebateRound is one pass through the active roster. Never mutated after
// being closed and appended to the session.
type DebateRound struct {
	Number      int          `json:"number"`
	Proposer    AgentKind    `json:"proposer"`
	Challengers []AgentKind  `json:"challengers"`
	Mediator    AgentKind    `json:"mediator,omitempty"`
	Turns       []DebateTurn `json:"turns"`
	Outcome     RoundOutcome `json:"outcome"`
	Summary     string       `json:"summary"`
}

// AgentDebateState is the per-agent mutable record kept while a debate
// runs. It is discarded at completion; only the transcript survives.
type AgentDebateState struct {
	Kind            AgentKind  `json:"kind"`
	Role            DebateRole `json:"role"`
	Position        string     `json:"position"`
	Confidence      int        `json:"confidence"` // 0-100
	Arguments       []string   `json:"arguments"`
	Challenged      bool       `json:"challenged"`
	ChangedPosition bool       `json:"changed_position"`
}

// SessionStatus is the debate session lifecycle state.
type SessionStatus string

const (
	SessionPending     SessionStatus = "pending"
	SessionProposing   SessionStatus = "proposing"
	SessionChallenging SessionStatus = "challenging"
	SessionMediating   SessionStatus = "mediating"
	SessionVoting      SessionStatus = "voting"
	SessionConsensus   SessionStatus = "consensus"
	SessionDeadlock    SessionStatus = "deadlock"
	SessionCompleted   SessionStatus = "completed"
)

// statusRank orders session statuses for the monotonic-forward invariant.
// Terminal statuses (consensus, deadlock, completed) share the top rank
// band; a session never moves backward.
func statusRank(s SessionStatus) int {
	switch s {
	case SessionPending:
		return 0
	case SessionProposing:
		return 1
	case SessionChallenging:
		return 2
	case SessionMediating:
		return 3
	case SessionVoting:
		return 4
	case SessionConsensus, SessionDeadlock, SessionCompleted:
		return 5
	default:
		return -1
	}
}

// DebateConfig bounds a single debate session.
type DebateConfig struct {
	MinAgents          int     `json:"min_agents"`
	MaxAgents          int     `json:"max_agents"`
	MaxRounds          int     `json:"max_rounds"`
	ConsensusThreshold float64 `json:"consensus_threshold"`
}

// DefaultDebateConfig returns the standard debate bounds.
func DefaultDebateConfig() DebateConfig {
	return DebateConfig{
		MinAgents:          3,
		MaxAgents:          5,
		MaxRounds:          3,
		ConsensusThreshold: 0.7,
	}
}

// Validate checks config bounds.
func (c DebateConfig) Validate() error {
	if c.MinAgents < 1 {
		return fmt.Errorf("debate config: min agents must be at least 1")
	}
	if c.MaxAgents < c.MinAgents {
		return fmt.Errorf("debate config: max agents %d below min agents %d", c.MaxAgents, c.MinAgents)
	}
	if c.MaxAgents > len(Catalog) {
		return fmt.Errorf("debate config: max agents %d exceeds catalog size %d", c.MaxAgents, len(Catalog))
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("debate config: max rounds must be at least 1")
	}
	if c.ConsensusThreshold <= 0 || c.ConsensusThreshold > 1 {
		return fmt.Errorf("debate config: consensus threshold must be in (0,1]")
	}
	return nil
}

// DebateSession is the aggregate root for one idea's debate lifecycle.
// Persisted as a pending marker at debate start, mutated throughout the
// run, then persisted again as the terminal snapshot.
type DebateSession struct {
	ID             uuid.UUID                       `json:"id"`
	ProjectID      uuid.UUID                       `json:"project_id"`
	IdeaID         uuid.UUID                       `json:"idea_id"`
	Status         SessionStatus                   `json:"status"`
	Rounds         []DebateRound                   `json:"rounds"`
	AgentStates    map[AgentKind]*AgentDebateState `json:"agent_states,omitempty"`
	Config         DebateConfig                    `json:"config"`
	SelectedIdeaID *uuid.UUID                      `json:"selected_idea_id,omitempty"`
	Vote           *ParliamentaryVote              `json:"vote,omitempty"`
	TradeOffs      []TradeOffAnalysis              `json:"trade_offs"`
	ConsensusLevel float64                         `json:"consensus_level"`
	TokensUsed     int                             `json:"tokens_used"`
	StartedAt      time.Time                       `json:"started_at"`
	CompletedAt    *time.Time                      `json:"completed_at,omitempty"`
}

// Advance moves the session to a new status, enforcing the monotonic
// forward invariant. Moving to the current status is a no-op.
func (s *DebateSession) Advance(next SessionStatus) error {
	if statusRank(next) < 0 {
		return fmt.Errorf("session %s: unknown status %q", s.ID, next)
	}
	if statusRank(next) < statusRank(s.Status) {
		return fmt.Errorf("session %s: backward transition %s -> %s", s.ID, s.Status, next)
	}
	s.Status = next
	return nil
}

// Terminal reports whether the session has reached a terminal status.
func (s *DebateSession) Terminal() bool {
	switch s.Status {
	case SessionConsensus, SessionDeadlock, SessionCompleted:
		return true
	}
	return false
}

// Transcript flattens all closed rounds into the ordered turn sequence.
func (s *DebateSession) Transcript() []DebateTurn {
	var turns []DebateTurn
	for _, r := range s.Rounds {
		turns = append(turns, r.Turns...)
	}
	return turns
}
