package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"reviewd/internal/extract"
	"reviewd/pkg/types"
)

// testCasesPrompt builds the single-turn instruction for test-case
// generation. The count is formatted into the text verbatim, including zero
// or negative values; interpretation is left to the model.
func testCasesPrompt(question, format string, count int) string {
	return fmt.Sprintf(
		"Generate %s test cases for the programming problem below.\n"+
			"Respond with a JSON object containing a single key %q whose value is an array of test cases.\n"+
			"Each test case must follow this format:\n%s\n\nProblem:\n%s",
		strconv.Itoa(count), extract.TestCasesKey, format, question,
	)
}

// TestCases asks the backend for a set of test cases and extracts the JSON
// array from the reply. An upstream failure is an error; an extraction
// failure is not — the response then carries the raw reply, nil cases, and
// the extraction detail, since the reply text may still be useful.
func (s *Service) TestCases(ctx context.Context, question, format string, count int) (types.TestCasesResponse, error) {
	start := time.Now()
	prompt := testCasesPrompt(question, format, count)
	reply, err := s.llm.Chat(ctx, []types.ChatMessage{{Role: types.RoleUser, Content: prompt}})
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("testcases failed")
		return types.TestCasesResponse{}, fmt.Errorf("generating test cases: %w", err)
	}

	resp := types.TestCasesResponse{Raw: reply}
	cases, err := extract.TestCases(reply)
	if err != nil {
		s.log.Warn().Err(err).Msg("test case extraction failed")
		resp.ExtractError = err.Error()
		return resp, nil
	}
	resp.Cases = cases
	s.log.Debug().Int("count", count).Int("extracted", len(cases)).Dur("dur", time.Since(start)).Msg("testcases ok")
	return resp, nil
}

// PrintTestCases writes the full reply followed by the extracted array (or
// "null" when extraction failed) to the service output.
func (s *Service) PrintTestCases(ctx context.Context, question, format string, count int) error {
	resp, err := s.TestCases(ctx, question, format, count)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(s.out, resp.Raw); err != nil {
		return err
	}
	if resp.Cases == nil {
		_, err := fmt.Fprintln(s.out, "null")
		return err
	}
	b, err := json.MarshalIndent(resp.Cases, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(b))
	return err
}
