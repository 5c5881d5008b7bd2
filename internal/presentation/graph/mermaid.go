package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/turnstile/pkg/domain"
)

// maxLabel bounds message text shown on an arrow.
const maxLabel = 60

// GenerateMermaid produces a Mermaid sequence diagram of a transcript:
// the game master hands each context to an agent and the agent answers.
// Rejected moves get a note, and the final status closes the diagram.
func GenerateMermaid(t *domain.Transcript) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")
	sb.WriteString("    participant GM as Game Master\n")
	for _, p := range t.Players {
		fmt.Fprintf(&sb, "    participant %s as %s\n", participantID(p.ID), label(p.Role))
	}

	round := -1
	for _, turn := range t.Turns {
		if turn.Round != round {
			round = turn.Round
			fmt.Fprintf(&sb, "    Note over GM: Round %d\n", round)
		}
		agent := participantID(turn.AgentID)
		fmt.Fprintf(&sb, "    GM->>%s: %s\n", agent, label(lastLine(turn.Context)))
		fmt.Fprintf(&sb, "    %s-->>GM: %s\n", agent, label(turn.Response))
		if turn.Violation {
			fmt.Fprintf(&sb, "    Note right of %s: invalid move\n", agent)
		}
	}

	if n, ok := t.Keys[domain.KeyViolationCount]; ok {
		fmt.Fprintf(&sb, "    Note over GM: %s (%v violations)\n", t.Status, n)
	} else {
		fmt.Fprintf(&sb, "    Note over GM: %s\n", t.Status)
	}
	return sb.String()
}

func participantID(id int) string {
	return fmt.Sprintf("P%d", id)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// label makes text safe for a Mermaid message.
func label(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer(";", ",", "#", "", ":", " -").Replace(s)
	if r := []rune(s); len(r) > maxLabel {
		s = string(r[:maxLabel-3]) + "..."
	}
	if s == "" {
		return "(empty)"
	}
	return s
}
