// Package calendar expands extracted assignment blocks into a per-day index
// for calendar lookup.
package calendar

import (
	"time"

	"github.com/lexical-app/lexical/internal/domain"
)

const dayKeyLayout = "2006-01-02"

// DayIndex maps a YYYY-MM-DD key to the single assignment block for that
// day.
type DayIndex map[string]domain.AssignmentBlock

// Expand flattens date-range blocks into one entry per calendar day. Range
// blocks keep their endDate annotation only on the first day; same-day
// blocks are merged, except that an incoming block is skipped when an
// assignment with the same title as its first item is already present.
// That first-title-only duplicate check is deliberate compatibility with
// the behavior this replaces, not a general de-duplication. Blocks without
// a startDate cannot be placed and are dropped without failing the batch.
func Expand(blocks []domain.AssignmentBlock) DayIndex {
	index := make(DayIndex)

	for _, block := range blocks {
		if block.StartDate == nil {
			continue
		}
		start, err := time.Parse(dayKeyLayout, *block.StartDate)
		if err != nil {
			continue
		}

		end := start
		if block.EndDate != nil {
			if parsed, err := time.Parse(dayKeyLayout, *block.EndDate); err == nil {
				end = parsed
			}
		}

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			key := day.Format(dayKeyLayout)

			existing, ok := index[key]
			if !ok {
				entry := block
				dayCopy := key
				entry.StartDate = &dayCopy
				// Keep the range boundary only where the range begins.
				if key == *block.StartDate && block.EndDate != nil {
					entry.EndDate = block.EndDate
				} else {
					entry.EndDate = nil
				}
				entry.Assignments = append([]domain.AssignmentItem(nil), block.Assignments...)
				index[key] = entry
				continue
			}

			if len(block.Assignments) == 0 {
				continue
			}
			if containsTitle(existing.Assignments, block.Assignments[0].Title) {
				continue
			}
			existing.Assignments = append(existing.Assignments, block.Assignments...)
			index[key] = existing
		}
	}

	return index
}

// Lookup returns the block for the given day, if any. Unmapped days are a
// normal miss, never an error.
func (d DayIndex) Lookup(day time.Time) (domain.AssignmentBlock, bool) {
	block, ok := d[day.Format(dayKeyLayout)]
	return block, ok
}

// LookupKey is Lookup for a pre-formatted YYYY-MM-DD key.
func (d DayIndex) LookupKey(key string) (domain.AssignmentBlock, bool) {
	block, ok := d[key]
	return block, ok
}

func containsTitle(items []domain.AssignmentItem, title string) bool {
	for _, item := range items {
		if item.Title == title {
			return true
		}
	}
	return false
}
