package models

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageType selects which history of a project a message belongs to.
type MessageType string

const (
	MessageTypeChat     MessageType = "chat"
	MessageTypeResearch MessageType = "research"
)

// ChatMessage is one entry of an append-only conversation.
type ChatMessage struct {
	ID        int       `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
}

// ChatAnswer is the reply of the quick-chat agent.
type ChatAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ResearchReport is the reply of the deep-research agent.
type ResearchReport struct {
	Report string `json:"report"`
}

type MethodologySuggestion struct {
	Action    string   `json:"action"`
	Reasoning string   `json:"reasoning"`
	Citations []string `json:"citations"`
}

// Analysis is the gap analysis produced for a project's documents.
type Analysis struct {
	ResearchGaps           []string                `json:"research_gaps"`
	MethodologySuggestions []MethodologySuggestion `json:"methodology_suggestions"`
	CommonApproaches       []string                `json:"common_approaches"`
	MissingEvaluations     []string                `json:"missing_evaluations"`
	UnexploredScenarios    []string                `json:"unexplored_scenarios"`
}

// StatusMessage is the {"message": "..."} acknowledgement some endpoints
// return.
type StatusMessage struct {
	Message string `json:"message"`
}
