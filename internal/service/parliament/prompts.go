package parliament

import (
	"fmt"
	"strings"

	"github.com/ashita-ai/gikai/internal/model"
)

// Prompt assembly. Turn prompts carry the idea, recent transcript, and
// the other agents' current positions so each agent argues against real
// state rather than in a vacuum. All prompts demand a single JSON object
// back; parsing stays defensive regardless.

// transcriptWindow is how many recent turns a turn prompt includes.
const transcriptWindow = 10

func systemPrompt(persona model.AgentPersona, role model.DebateRole) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a specialist reviewer in a structured engineering debate.\n", persona.Kind)
	b.WriteString(persona.Persona)
	b.WriteString("\n\n")
	switch role {
	case model.RoleProposer:
		b.WriteString("Your role is PROPOSER: argue for the idea, then defend it against challenges.")
	case model.RoleChallenger:
		b.WriteString("Your role is CHALLENGER: find concrete weaknesses and argue against weak points. Concede when a defense is sound.")
	case model.RoleMediator:
		b.WriteString("Your role is MEDIATOR: identify agreement between the other agents and steer the debate toward resolution.")
	case model.RoleVoter:
		b.WriteString("Your role is VOTER: weigh the full debate and state your final position.")
	}
	return b.String()
}

func turnPrompt(idea model.Idea, projectContext string, round int, transcript []model.DebateTurn, states map[model.AgentKind]*model.AgentDebateState, self model.AgentKind) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Round %d of a debate over the following idea.\n\n", round)
	writeIdea(&b, idea)

	if projectContext != "" {
		b.WriteString("\nProject context:\n")
		b.WriteString(projectContext)
		b.WriteString("\n")
	}

	if len(transcript) > 0 {
		window := transcript
		if len(window) > transcriptWindow {
			window = window[len(window)-transcriptWindow:]
		}
		b.WriteString("\nRecent debate turns:\n")
		for _, t := range window {
			fmt.Fprintf(&b, "- [round %d] %s (%s, %s): %s\n", t.Round, t.Agent, t.Role, t.Action, t.Content)
		}
	}

	var others []string
	for kind, st := range states {
		if kind == self || st.Position == "" {
			continue
		}
		others = append(others, fmt.Sprintf("- %s (confidence %d): %s", kind, st.Confidence, st.Position))
	}
	if len(others) > 0 {
		b.WriteString("\nCurrent positions of the other agents:\n")
		b.WriteString(strings.Join(others, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"action": "propose|challenge|defend|mediate|concede", "content": "your argument", "confidence": 0-100, "target_agent": "agent you are addressing, or empty", "position_change": true|false}`)
	return b.String()
}

func consensusPrompt(idea model.Idea, states map[model.AgentKind]*model.AgentDebateState, roster Roster) string {
	var b strings.Builder
	b.WriteString("You are assessing whether a debate has converged.\n\n")
	writeIdea(&b, idea)
	b.WriteString("\nCurrent agent positions:\n")
	for _, kind := range roster.Agents {
		st, ok := states[kind]
		if !ok || st.Position == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s, confidence %d): %s\n", kind, st.Role, st.Confidence, st.Position)
	}
	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"consensus_reached": true|false, "consensus_level": 0.0-1.0, "recommendation": "continue_debate|proceed_to_vote"}`)
	return b.String()
}

func votePrompt(idea model.Idea, summary string, tradeOffs []model.TradeOffAnalysis) string {
	var b strings.Builder
	b.WriteString("The debate is over. Cast your final vote on this idea.\n\n")
	writeIdea(&b, idea)

	if summary != "" {
		b.WriteString("\nDebate summary:\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	if len(tradeOffs) > 0 {
		b.WriteString("\nIdentified trade-offs:\n")
		for _, to := range tradeOffs {
			fmt.Fprintf(&b, "- %s (%s): %s argued %q; %s argued %q\n",
				to.Dimension, to.Importance,
				to.ProposerAgent, to.ProposerCase,
				to.ChallengerAgent, to.ChallengerCase)
		}
	}

	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"vote": "support|oppose|abstain", "reasoning": "why", "confidence": 0-100}`)
	return b.String()
}

func writeIdea(b *strings.Builder, idea model.Idea) {
	fmt.Fprintf(b, "Idea: %s\n", idea.Title)
	if idea.Category != "" {
		fmt.Fprintf(b, "Category: %s\n", idea.Category)
	}
	if idea.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", idea.Description)
	}
	if idea.Reasoning != "" {
		fmt.Fprintf(b, "Rationale: %s\n", idea.Reasoning)
	}
	fmt.Fprintf(b, "Effort: %d/3, Impact: %d/3\n", idea.Effort, idea.Impact)
}

// debateSummary renders the closed rounds into the short text the voting
// prompt carries.
func debateSummary(rounds []model.DebateRound) string {
	var b strings.Builder
	for _, r := range rounds {
		fmt.Fprintf(&b, "Round %d (%s): %s\n", r.Number, r.Outcome, r.Summary)
		for _, t := range r.Turns {
			fmt.Fprintf(&b, "  %s [%s]: %s\n", t.Agent, t.Action, t.Content)
		}
	}
	return b.String()
}
