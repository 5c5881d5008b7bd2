package domain

// Roles used in agent context blocks.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StandardGamePrompt is prepended to the first observation an agent receives.
const StandardGamePrompt = "You are a competitive game player. Make sure you read the game instructions carefully, and always follow the required format."

// InvalidMoveMarker is the substring environments use to flag a rejected action.
const InvalidMoveMarker = "attempted an invalid move"

// Message is the context block exchanged with an agent.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
