// Package assist builds review and test-generation prompts and relays them
// to an inference backend. It is structured into small files by concern:
//
//   - service.go: core Service type, constructor, generic generation.
//   - review.go: code-review suggestion prompts and operations.
//   - testcases.go: test-case generation, extraction, printing.
//
// External packages should treat this package as the orchestration layer and
// use public methods only.
package assist

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"reviewd/pkg/types"
)

// Completer is the inference backend surface the service needs.
// *ollama.Client satisfies it.
type Completer interface {
	Chat(ctx context.Context, messages []types.ChatMessage) (string, error)
}

// Service exposes the user-facing operations. Stateless between calls; safe
// for concurrent use as long as the backend is.
type Service struct {
	llm Completer
	out io.Writer
	log zerolog.Logger
}

// New constructs a Service. A nil out defaults to stdout.
func New(llm Completer, out io.Writer, log zerolog.Logger) *Service {
	if out == nil {
		out = os.Stdout
	}
	return &Service{llm: llm, out: out, log: log}
}

// Generate relays a free-form prompt as a single user turn.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	return s.llm.Chat(ctx, []types.ChatMessage{{Role: types.RoleUser, Content: prompt}})
}

// Ready reports whether the backend is reachable. Backends without a Ping
// are assumed ready.
func (s *Service) Ready(ctx context.Context) bool {
	if p, ok := s.llm.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx) == nil
	}
	return true
}
