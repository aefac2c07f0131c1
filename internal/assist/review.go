package assist

import (
	"context"
	"fmt"
	"time"

	"reviewd/pkg/types"
)

// reviewMessages builds the two-turn conversation for a review request.
// Inputs are embedded verbatim; no validation happens here.
func reviewMessages(code, focus, language string) []types.ChatMessage {
	system := fmt.Sprintf("You are an experienced %s developer performing a code review. Be specific and concise.", language)
	user := fmt.Sprintf(
		"Review the following %s code and suggest improvements. Focus on %s.\n\nCode:\n%s",
		language, focus, code,
	)
	return []types.ChatMessage{
		{Role: types.RoleSystem, Content: system},
		{Role: types.RoleUser, Content: user},
	}
}

// CodeSuggestions asks the backend for review suggestions and returns the
// raw reply.
func (s *Service) CodeSuggestions(ctx context.Context, code, focus, language string) (string, error) {
	start := time.Now()
	reply, err := s.llm.Chat(ctx, reviewMessages(code, focus, language))
	if err != nil {
		s.log.Error().Err(err).Str("language", language).Msg("review failed")
		return "", fmt.Errorf("generating suggestions: %w", err)
	}
	s.log.Debug().Str("language", language).Str("focus", focus).Dur("dur", time.Since(start)).Msg("review ok")
	return reply, nil
}

// PrintCodeSuggestions writes the suggestion text to the service output.
func (s *Service) PrintCodeSuggestions(ctx context.Context, code, focus, language string) error {
	reply, err := s.CodeSuggestions(ctx, code, focus, language)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, reply)
	return err
}
