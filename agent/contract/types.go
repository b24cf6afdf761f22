package contract

import "time"

// PersonaType categorizes a persona's role in the conversation flow.
type PersonaType string

const (
	PersonaTypePrimary    PersonaType = "primary"
	PersonaTypeSpecialist PersonaType = "specialist"
	PersonaTypeHandoff    PersonaType = "handoff"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Persona   string    `json:"persona,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolCall is a structured tool invocation request emitted by the model.
// Arguments is the raw JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult captures one tool call attempt. Message, when set, is a
// human-readable reply that takes precedence over model-generated text
// for the turn.
type ToolResult struct {
	Tool     string         `json:"tool"`
	Success  bool           `json:"success"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// ModelOutput is the model collaborator's response for one turn: candidate
// reply text plus zero or more tool call requests.
type ModelOutput struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Classification holds the most recent intent/sentiment labels for a turn.
// Empty fields mean "no update".
type Classification struct {
	Intent    string `json:"intent,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
}

// TurnResult is what the orchestrator returns to the channel adapter for
// one processed turn.
type TurnResult struct {
	Reply       string       `json:"reply"`
	PersonaID   string       `json:"persona_id"`
	Transferred bool         `json:"transferred"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// BusinessInfo is external business data folded into persona instructions.
// It is read-only from the orchestrator's point of view.
type BusinessInfo struct {
	Name  string `json:"name"`
	Tone  string `json:"tone"`
	Hours string `json:"hours"`
}
