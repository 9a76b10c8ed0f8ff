package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexical-app/lexical/internal/domain"
)

func strp(s string) *string { return &s }

func block(start, end string, titles ...string) domain.AssignmentBlock {
	b := domain.AssignmentBlock{StartDate: strp(start)}
	if end != "" {
		b.EndDate = strp(end)
	}
	for _, title := range titles {
		b.Assignments = append(b.Assignments, domain.AssignmentItem{Title: title, Tag: domain.TagRead})
	}
	return b
}

func TestExpand_RangeYieldsOneEntryPerDay(t *testing.T) {
	index := Expand([]domain.AssignmentBlock{
		block("2024-09-02", "2024-09-04", "Oral arguments"),
	})

	require.Len(t, index, 3)
	for _, key := range []string{"2024-09-02", "2024-09-03", "2024-09-04"} {
		entry, ok := index.LookupKey(key)
		require.True(t, ok, "missing day %s", key)
		assert.Equal(t, key, *entry.StartDate)
	}

	// The range boundary survives only on the first day.
	first, _ := index.LookupKey("2024-09-02")
	require.NotNil(t, first.EndDate)
	assert.Equal(t, "2024-09-04", *first.EndDate)

	middle, _ := index.LookupKey("2024-09-03")
	assert.Nil(t, middle.EndDate)
}

func TestExpand_Idempotent(t *testing.T) {
	index := Expand([]domain.AssignmentBlock{
		block("2024-09-02", "2024-09-04", "Oral arguments"),
	})

	// Re-expanding the already-expanded entries changes nothing.
	var flat []domain.AssignmentBlock
	for _, key := range []string{"2024-09-02", "2024-09-03", "2024-09-04"} {
		entry, _ := index.LookupKey(key)
		flat = append(flat, entry)
	}
	again := Expand(flat)

	assert.Equal(t, index, again)
}

func TestExpand_MergesSameDayPreservingOrder(t *testing.T) {
	index := Expand([]domain.AssignmentBlock{
		block("2024-09-05", "", "Read chapter 3"),
		block("2024-09-05", "", "Draft brief"),
	})

	entry, ok := index.LookupKey("2024-09-05")
	require.True(t, ok)
	require.Len(t, entry.Assignments, 2)
	assert.Equal(t, "Read chapter 3", entry.Assignments[0].Title)
	assert.Equal(t, "Draft brief", entry.Assignments[1].Title)
}

func TestExpand_FirstTitleDuplicateSuppression(t *testing.T) {
	// The duplicate check keys on the incoming block's first title only: a
	// block whose first title is already present is skipped wholesale, even
	// if it carries new items behind it.
	index := Expand([]domain.AssignmentBlock{
		block("2024-09-05", "", "Read chapter 3"),
		block("2024-09-05", "", "Read chapter 3", "Draft brief"),
	})

	entry, _ := index.LookupKey("2024-09-05")
	require.Len(t, entry.Assignments, 1)
	assert.Equal(t, "Read chapter 3", entry.Assignments[0].Title)
}

func TestExpand_DropsNilStartDate(t *testing.T) {
	index := Expand([]domain.AssignmentBlock{
		{Assignments: []domain.AssignmentItem{{Title: "floating item", Tag: domain.TagOther}}},
		block("2024-09-02", "", "Read chapter 1"),
	})

	assert.Len(t, index, 1)
	_, ok := index.LookupKey("2024-09-02")
	assert.True(t, ok)
}

func TestExpand_MergeDoesNotMutateEarlierBlocks(t *testing.T) {
	original := block("2024-09-05", "", "Read chapter 3")
	Expand([]domain.AssignmentBlock{
		original,
		block("2024-09-05", "", "Draft brief"),
	})

	require.Len(t, original.Assignments, 1)
}

func TestLookup_UnmappedDay(t *testing.T) {
	index := Expand(nil)
	_, ok := index.Lookup(time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
