package syllabus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexical-app/lexical/internal/domain"
)

// ErrNotArray marks model output that parsed as JSON but is not the expected
// array of date blocks.
var ErrNotArray = errors.New("AI response is not a valid JSON array")

var requiredBlockFields = []string{
	"startDate", "endDate", "startTime", "endTime", "location", "assignments",
}

// ValidateBlocks checks the extracted payload is an array of date blocks
// carrying the documented fields and only known tags. Validation is shape
// only: dates, ordering and tag semantics are the prompt's contract and are
// not re-derived here.
func ValidateBlocks(raw json.RawMessage) ([]domain.AssignmentBlock, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, ErrNotArray
	}

	blocks := make([]domain.AssignmentBlock, 0, len(elements))
	for i, el := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(el, &fields); err != nil {
			return nil, fmt.Errorf("invalid assignment block at index %d: not an object", i)
		}
		for _, key := range requiredBlockFields {
			if _, ok := fields[key]; !ok {
				return nil, fmt.Errorf("invalid assignment block at index %d: missing field %q", i, key)
			}
		}

		var block domain.AssignmentBlock
		if err := json.Unmarshal(el, &block); err != nil {
			return nil, fmt.Errorf("invalid assignment block at index %d: %v", i, err)
		}

		for j, item := range block.Assignments {
			if item.Title == "" {
				return nil, fmt.Errorf("invalid assignment block at index %d: assignment %d has no title", i, j)
			}
			if !item.Tag.Valid() {
				return nil, fmt.Errorf("invalid assignment block at index %d: unknown tag %q", i, item.Tag)
			}
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}
