package types

// Chat roles understood by the inference server.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a conversation sent to the inference server.
type ChatMessage struct {
	// Role tag of the turn (system, user, assistant).
	// example: user
	Role string `json:"role" example:"user"`
	// Content of the turn.
	// example: Review this function for readability.
	Content string `json:"content" example:"Review this function for readability."`
}

// TestCase is one generated test case extracted from a model reply.
// The model is asked for these fields but nothing enforces the shape;
// unknown fields are ignored and values keep whatever JSON type the
// model produced.
type TestCase struct {
	// Identifier of the case within the generated set.
	// example: 1
	ID any `json:"id,omitempty"`
	// Whether the case should be hidden from end users.
	// example: false
	Hidden any `json:"hidden,omitempty"`
	// Input fed to the program under test.
	Input any `json:"input,omitempty"`
	// Expected program output for Input.
	Expected any `json:"expected_output,omitempty"`
}
