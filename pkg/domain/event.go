package domain

import "time"

// EventKind defines the category of an event in the log.
type EventKind string

const (
	KindNarration   EventKind = "narration"    // Text authored by the game (prompts, board states)
	KindAgentAction EventKind = "agent_action" // An action submitted by an agent
	KindSystem      EventKind = "system"       // Bookkeeping messages (errors, end of game)
)

const (
	// Broadcast as a RecipientID makes the event visible to every agent.
	Broadcast = -1

	// GameID is the SenderID used for events authored by the game itself.
	GameID = -1
)

// Event is a single immutable entry of the shared event log.
type Event struct {
	Seq         int       `json:"seq"`
	SenderID    int       `json:"sender_id"`
	RecipientID int       `json:"recipient_id"`
	Message     string    `json:"message"`
	Kind        EventKind `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
}

// VisibleTo reports whether the agent may observe this event.
func (e Event) VisibleTo(agentID int) bool {
	return e.RecipientID == Broadcast || e.RecipientID == agentID
}

// EventLog is the append-only, ordered record shared by an environment and its agents.
// It is not safe for concurrent use; a session drives it from a single goroutine.
type EventLog struct {
	events []Event
	now    func() time.Time
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{now: time.Now}
}

// Append adds a new event to the tail of the log and returns it.
func (l *EventLog) Append(sender, recipient int, kind EventKind, message string) Event {
	if l.now == nil {
		l.now = time.Now
	}
	e := Event{
		Seq:         len(l.events),
		SenderID:    sender,
		RecipientID: recipient,
		Message:     message,
		Kind:        kind,
		Timestamp:   l.now().UTC(),
	}
	l.events = append(l.events, e)
	return e
}

// Len returns the number of events appended so far.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Since returns a copy of the events at or after the given offset.
func (l *EventLog) Since(offset int) []Event {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-offset)
	copy(out, l.events[offset:])
	return out
}

// Visible filters a window of events down to what the agent may observe.
func Visible(agentID int, events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.VisibleTo(agentID) {
			out = append(out, e)
		}
	}
	return out
}
