package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidResponse marks model output with no parseable JSON anywhere in
// it. Distinct from shape-validation failures, which happen after extraction.
var ErrInvalidResponse = errors.New("invalid JSON response from AI")

// Shape is the JSON value the caller expects at the top level.
type Shape int

const (
	ShapeObject Shape = iota
	ShapeArray
)

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFenceRe  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ExtractJSON digs a JSON payload out of raw model output. The model is told
// to return bare JSON but routinely wraps it in commentary or code fences, so
// extraction tries, in order: the whole string, a ```json fence, any fence,
// and finally the first balanced {...} or [...] matching the expected shape.
func ExtractJSON(content string, shape Shape) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	for _, re := range []*regexp.Regexp{jsonFenceRe, anyFenceRe} {
		if m := re.FindStringSubmatch(content); m != nil {
			candidate := strings.TrimSpace(m[1])
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), nil
			}
		}
	}

	if candidate := balancedSlice(content, shape); candidate != "" {
		return json.RawMessage(candidate), nil
	}

	return nil, ErrInvalidResponse
}

// balancedSlice returns the first delimiter-balanced substring that parses as
// JSON, or "".
func balancedSlice(s string, shape Shape) string {
	opener, closer := byte('{'), byte('}')
	if shape == ShapeArray {
		opener, closer = '[', ']'
	}

	for start := strings.IndexByte(s, opener); start != -1; {
		depth := 0
		end := -1
		for i := start; i < len(s); i++ {
			switch s[i] {
			case opener:
				depth++
			case closer:
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end != -1 {
				break
			}
		}
		if end == -1 {
			return ""
		}

		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}

		next := strings.IndexByte(s[start+1:], opener)
		if next == -1 {
			return ""
		}
		start += 1 + next
	}

	return ""
}
