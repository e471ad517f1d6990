package model

// BallotChoice is one agent's vote on an idea.
type BallotChoice string

const (
	VoteSupport BallotChoice = "support"
	VoteOppose  BallotChoice = "oppose"
	VoteAbstain BallotChoice = "abstain"
)

// AgentVote is one ballot in the parliamentary vote.
type AgentVote struct {
	Agent      AgentKind    `json:"agent"`
	Choice     BallotChoice `json:"choice"`
	Reasoning  string       `json:"reasoning"`
	Confidence int          `json:"confidence"` // 0-100
	Weight     float64      `json:"weight"`     // [0.5,1.0] for known agents, 1.0 otherwise
}

// ParliamentaryVote is the terminal, reputation-weighted ballot for one
// debate. Computed exactly once.
type ParliamentaryVote struct {
	Ballots         []AgentVote `json:"ballots"`
	SupportCount    int         `json:"support_count"`
	OpposeCount     int         `json:"oppose_count"`
	AbstainCount    int         `json:"abstain_count"`
	WeightedSupport float64     `json:"weighted_support"`
	WeightedOppose  float64     `json:"weighted_oppose"`
	Passed          bool        `json:"passed"`
	Margin          float64     `json:"margin"`
}

// TallyVotes aggregates ballots into a ParliamentaryVote.
// Weighted sums add each ballot's weight under its choice; passage is
// strict — a tie fails.
func TallyVotes(ballots []AgentVote) ParliamentaryVote {
	v := ParliamentaryVote{Ballots: ballots}
	for _, b := range ballots {
		switch b.Choice {
		case VoteSupport:
			v.SupportCount++
			v.WeightedSupport += b.Weight
		case VoteOppose:
			v.OpposeCount++
			v.WeightedOppose += b.Weight
		default:
			v.AbstainCount++
		}
	}
	v.Passed = v.WeightedSupport > v.WeightedOppose
	v.Margin = v.WeightedSupport - v.WeightedOppose
	return v
}
