package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/muesli/termenv"
)

// TranscriptMarkdown formats a transcript as a markdown document: players,
// turns, game master events and logged keys.
func TranscriptMarkdown(t *domain.Transcript) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t.Game)
	fmt.Fprintf(&b, "- **Session:** `%s`\n", t.SessionID)
	fmt.Fprintf(&b, "- **Environment:** `%s`\n", t.EnvID)
	if t.Experiment != "" {
		fmt.Fprintf(&b, "- **Experiment:** %s\n", t.Experiment)
	}
	fmt.Fprintf(&b, "- **Seed:** %d\n", t.Seed)
	fmt.Fprintf(&b, "- **Status:** %s\n", t.Status)
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", t.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !t.EndedAt.IsZero() {
		fmt.Fprintf(&b, "- **Duration:** %s\n", t.EndedAt.Sub(t.StartedAt).Round(time.Millisecond))
	}

	if len(t.Players) > 0 {
		b.WriteString("\n## Players\n\n| ID | Role | Responder |\n|---|---|---|\n")
		for _, p := range t.Players {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", p.ID, cell(p.Role), cell(p.Responder))
		}
	}

	if len(t.Turns) > 0 {
		b.WriteString("\n## Turns\n\n| Round | Agent | Response | Violation |\n|---|---|---|---|\n")
		for _, turn := range t.Turns {
			flag := ""
			if turn.Violation {
				flag = "yes"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", turn.Round, roleOf(t, turn.AgentID), cell(turn.Response), flag)
		}
	}

	if len(t.Events) > 0 {
		b.WriteString("\n## Game master\n\n")
		for _, e := range t.Events {
			fmt.Fprintf(&b, "- to %s: %s\n", roleOf(t, e.RecipientID), e.Message)
		}
	}

	if len(t.Keys) > 0 {
		b.WriteString("\n## Keys\n\n| Key | Value |\n|---|---|\n")
		keys := make([]string, 0, len(t.Keys))
		for k := range t.Keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, cell(fmt.Sprint(t.Keys[k])))
		}
	}
	return b.String()
}

// PrintTranscript writes the transcript to w, through glamour when pretty is set.
func PrintTranscript(w io.Writer, t *domain.Transcript, pretty bool) error {
	md := TranscriptMarkdown(t)
	if pretty {
		out, err := NewRenderer()(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// Summary is one colored line describing a finished session.
func Summary(sessionID string, m domain.Metrics, violations int) string {
	p := termenv.ColorProfile()
	var verdict termenv.Style
	switch {
	case m.Aborted > 0:
		verdict = termenv.String("aborted").Foreground(p.Color("#fb7185"))
	case m.Success > 0:
		verdict = termenv.String("success").Foreground(p.Color("#4ade80"))
	case m.Lose > 0:
		verdict = termenv.String("lose").Foreground(p.Color("#facc15"))
	default:
		verdict = termenv.String("draw")
	}
	return fmt.Sprintf("%s %s (violations: %d)", sessionID, verdict, violations)
}

func roleOf(t *domain.Transcript, id int) string {
	if id == domain.Broadcast {
		return "all"
	}
	for _, p := range t.Players {
		if p.ID == id && p.Role != "" {
			return p.Role
		}
	}
	return fmt.Sprintf("Player %d", id)
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
