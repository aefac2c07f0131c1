package ollama

import "reviewd/pkg/types"

// chatRequest is the payload for POST /api/chat.
type chatRequest struct {
	Model    string              `json:"model"`
	Messages []types.ChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

// chatResponse is the subset of the /api/chat reply we consume.
// The server sends more fields (timings, token counts); they are ignored.
type chatResponse struct {
	Model   string            `json:"model"`
	Message types.ChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error,omitempty"`
}
