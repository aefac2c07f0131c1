// Package extract locates JSON arrays embedded in free-form model replies.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reviewd/pkg/types"
)

// TestCasesKey is the key model replies are asked to emit cases under.
const TestCasesKey = "test"

// ErrKeyNotFound means the quoted key never appears in the text.
var ErrKeyNotFound = errors.New("key not found")

// ErrNoArray means the key appears but no '[' follows it.
var ErrNoArray = errors.New("no array after key")

// ErrUnbalanced means the array's brackets never close before the text ends.
var ErrUnbalanced = errors.New("unbalanced brackets")

// Array returns the JSON array that follows `"key":` in text. Replies often
// mention the key in prose before the JSON, so occurrences not followed by
// an array are skipped and the search continues. Brackets are balanced with
// awareness of string literals and escapes, so nested arrays and brackets
// inside strings are handled. The returned slice is validated as JSON before
// being handed back.
func Array(text, key string) (string, error) {
	quoted := `"` + key + `"`
	found := false
	for rest := text; ; {
		idx := strings.Index(rest, quoted)
		if idx < 0 {
			if found {
				return "", fmt.Errorf("%w: %q", ErrNoArray, key)
			}
			return "", fmt.Errorf("%w: %q", ErrKeyNotFound, key)
		}
		found = true
		rest = rest[idx+len(quoted):]

		// Skip whitespace and an optional colon between the key and the array.
		i := 0
		for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\n' || rest[i] == '\r' || rest[i] == ':') {
			i++
		}
		if i >= len(rest) || rest[i] != '[' {
			continue
		}

		raw, err := balancedArray(rest[i:])
		if err != nil {
			return "", err
		}
		var probe []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return "", fmt.Errorf("parsing extracted array: %w", err)
		}
		return raw, nil
	}
}

// balancedArray returns the prefix of s covering one complete bracketed
// array. s must start with '['.
func balancedArray(s string) (string, error) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", ErrUnbalanced
}

// TestCases extracts the array under TestCasesKey and unmarshals it.
// Field shape is not enforced; elements that are not objects fail the
// unmarshal and surface as a parse error.
func TestCases(text string) ([]types.TestCase, error) {
	raw, err := Array(text, TestCasesKey)
	if err != nil {
		return nil, err
	}
	var cases []types.TestCase
	if err := json.Unmarshal([]byte(raw), &cases); err != nil {
		return nil, fmt.Errorf("parsing test cases: %w", err)
	}
	return cases, nil
}
