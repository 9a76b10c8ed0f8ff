// Package annotate holds per-session reader state: PDF highlights, the tag
// vocabulary, notes pinned to highlights, and the most recent syllabus
// extraction. Nothing here outlives the process.
package annotate

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexical-app/lexical/internal/calendar"
	"github.com/lexical-app/lexical/internal/domain"
)

var (
	ErrHighlightNotFound = errors.New("Highlight not found")
	ErrTagNotFound       = errors.New("Tag not found")
	ErrDuplicateTagName  = errors.New("A tag with this name already exists")
	ErrEmptyTagName      = errors.New("Tag name is required")
)

// Session is one reader's in-memory annotation state. All methods are safe
// for concurrent use.
type Session struct {
	ID string

	mu         sync.Mutex
	highlights []domain.Highlight
	tags       []domain.Tag
	notes      map[string][]domain.Note
	days       calendar.DayIndex
	now        func() time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:    id,
		notes: make(map[string][]domain.Note),
		days:  make(calendar.DayIndex),
		now:   time.Now,
	}
}

// AddHighlight stores a new highlight, assigning its id and timestamp. Rects
// are captured at the highlight's base scale and never change afterwards.
func (s *Session) AddHighlight(h domain.Highlight) domain.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = uuid.NewString()
	if h.Timestamp == 0 {
		h.Timestamp = s.now().UnixMilli()
	}
	if h.BaseScale <= 0 {
		h.BaseScale = 1.0
	}
	h.Rects = append([]domain.Rect(nil), h.Rects...)
	h.Tags = []string{}

	s.highlights = append(s.highlights, h)
	return h
}

// Highlights returns every highlight with rects rescaled for display at
// the given scale. A non-positive scale returns the stored geometry.
func (s *Session) Highlights(scale float64) []domain.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Highlight, 0, len(s.highlights))
	for _, h := range s.highlights {
		out = append(out, rescale(h, scale))
	}
	return out
}

// Highlight returns one highlight at its stored scale.
func (s *Session) Highlight(id string) (domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(id)
	if i < 0 {
		return domain.Highlight{}, ErrHighlightNotFound
	}
	return rescale(s.highlights[i], 0), nil
}

// SetColor changes a highlight's color.
func (s *Session) SetColor(id, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(id)
	if i < 0 {
		return ErrHighlightNotFound
	}
	s.highlights[i].Color = color
	return nil
}

// SetTitle changes a highlight's title.
func (s *Session) SetTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(id)
	if i < 0 {
		return ErrHighlightNotFound
	}
	s.highlights[i].Title = title
	return nil
}

// DeleteHighlight removes a highlight together with its notes.
func (s *Session) DeleteHighlight(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(id)
	if i < 0 {
		return ErrHighlightNotFound
	}
	s.highlights = append(s.highlights[:i], s.highlights[i+1:]...)
	delete(s.notes, id)
	return nil
}

// CreateTag adds a tag to the session vocabulary. Names are unique
// case-insensitively.
func (s *Session) CreateTag(name, color string) (domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, ErrEmptyTagName
	}
	for _, t := range s.tags {
		if strings.EqualFold(t.Name, name) {
			return domain.Tag{}, ErrDuplicateTagName
		}
	}

	tag := domain.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: s.now(),
	}
	s.tags = append(s.tags, tag)
	return tag, nil
}

// Tags returns the session's tag vocabulary in creation order.
func (s *Session) Tags() []domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Tag(nil), s.tags...)
}

// UpdateTag renames or recolors a tag. The new name must not collide with
// any other tag, but keeping (or case-shifting) the tag's own name is fine.
func (s *Session) UpdateTag(id, name, color string) (domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, ErrEmptyTagName
	}

	i := s.findTag(id)
	if i < 0 {
		return domain.Tag{}, ErrTagNotFound
	}
	for j, t := range s.tags {
		if j != i && strings.EqualFold(t.Name, name) {
			return domain.Tag{}, ErrDuplicateTagName
		}
	}

	s.tags[i].Name = name
	s.tags[i].Color = color
	return s.tags[i], nil
}

// DeleteTag removes a tag and strips it from every highlight that carries it.
func (s *Session) DeleteTag(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findTag(id)
	if i < 0 {
		return ErrTagNotFound
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)

	for hi := range s.highlights {
		s.highlights[hi].Tags = removeString(s.highlights[hi].Tags, id)
	}
	return nil
}

// AssignTag attaches a tag to a highlight. Assigning an already-attached tag
// is a no-op, not an error.
func (s *Session) AssignTag(highlightID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(highlightID)
	if i < 0 {
		return ErrHighlightNotFound
	}
	if s.findTag(tagID) < 0 {
		return ErrTagNotFound
	}
	for _, existing := range s.highlights[i].Tags {
		if existing == tagID {
			return nil
		}
	}
	s.highlights[i].Tags = append(s.highlights[i].Tags, tagID)
	return nil
}

// UnassignTag detaches a tag from a highlight. Unassigning a tag that is not
// attached is a no-op.
func (s *Session) UnassignTag(highlightID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findHighlight(highlightID)
	if i < 0 {
		return ErrHighlightNotFound
	}
	s.highlights[i].Tags = removeString(s.highlights[i].Tags, tagID)
	return nil
}

// AttachNote appends a note to a highlight's thread.
func (s *Session) AttachNote(highlightID, role, content string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findHighlight(highlightID) < 0 {
		return domain.Note{}, ErrHighlightNotFound
	}

	note := domain.Note{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.notes[highlightID] = append(s.notes[highlightID], note)
	return note, nil
}

// Notes returns a highlight's note thread in append order.
func (s *Session) Notes(highlightID string) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findHighlight(highlightID) < 0 {
		return nil, ErrHighlightNotFound
	}
	return append([]domain.Note(nil), s.notes[highlightID]...), nil
}

// SetAssignments replaces the session's calendar with a fresh expansion of
// the given blocks. Each upload replaces the previous extraction wholesale.
func (s *Session) SetAssignments(blocks []domain.AssignmentBlock) {
	index := calendar.Expand(blocks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = index
}

// CalendarDay returns the assignment block mapped to a YYYY-MM-DD key.
func (s *Session) CalendarDay(key string) (domain.AssignmentBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days.LookupKey(key)
}

func (s *Session) findHighlight(id string) int {
	for i, h := range s.highlights {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) findTag(id string) int {
	for i, t := range s.tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// rescale returns a display copy of h with every rect edge multiplied by
// scale/baseScale. The stored rects stay at base scale.
func rescale(h domain.Highlight, scale float64) domain.Highlight {
	factor := 1.0
	if scale > 0 && h.BaseScale > 0 {
		factor = scale / h.BaseScale
	}

	rects := make([]domain.Rect, len(h.Rects))
	for i, r := range h.Rects {
		rects[i] = domain.Rect{
			Left:   r.Left * factor,
			Top:    r.Top * factor,
			Right:  r.Right * factor,
			Bottom: r.Bottom * factor,
		}
	}
	h.Rects = rects
	h.Tags = append([]string(nil), h.Tags...)
	return h
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
