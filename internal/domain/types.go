package domain

import "time"

// AssignmentTag classifies one syllabus item.
type AssignmentTag string

const (
	TagRead       AssignmentTag = "read"
	TagWrite      AssignmentTag = "write"
	TagOral       AssignmentTag = "oral"
	TagEvaluation AssignmentTag = "evaluation"
	TagOther      AssignmentTag = "other"
)

// Valid reports whether t is one of the five allowed tags.
func (t AssignmentTag) Valid() bool {
	switch t {
	case TagRead, TagWrite, TagOral, TagEvaluation, TagOther:
		return true
	}
	return false
}

// AssignmentItem is a single titled task within a calendar entry.
type AssignmentItem struct {
	Title string        `json:"title"`
	Tag   AssignmentTag `json:"tag"`
}

// AssignmentBlock is one calendar date (or date range) worth of assignments
// as extracted from a syllabus. Dates are YYYY-MM-DD, times HH:MM; nil means
// the syllabus gave no value.
type AssignmentBlock struct {
	StartDate   *string          `json:"startDate"`
	EndDate     *string          `json:"endDate"`
	StartTime   *string          `json:"startTime"`
	EndTime     *string          `json:"endTime"`
	Location    *string          `json:"location"`
	Assignments []AssignmentItem `json:"assignments"`
}

// NodeType is the rendering shape of a flowchart node.
type NodeType string

const (
	NodeStart    NodeType = "start"
	NodeProcess  NodeType = "process"
	NodeDecision NodeType = "decision"
	NodeEnd      NodeType = "end"
	NodeInput    NodeType = "input"
	NodeOutput   NodeType = "output"
)

// FlowchartNode is one node of an LLM-generated flowchart. X/Y are top-left
// coordinates assigned by the layout adapter; absent until laid out.
type FlowchartNode struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// FlowchartEdge connects two nodes by id.
type FlowchartEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Flowchart is the node/edge graph returned by generate and refine calls.
type Flowchart struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Nodes       []FlowchartNode `json:"nodes"`
	Edges       []FlowchartEdge `json:"edges"`
}

// Rect is a selection bounding box relative to the rendered page, captured at
// the highlight's base scale.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Highlight is a user annotation over PDF text. Rects are immutable once
// captured; only Color, Title and Tags may change.
type Highlight struct {
	ID         string   `json:"id"`
	PageNumber int      `json:"pageNumber"`
	Color      string   `json:"color"`
	Text       string   `json:"text"`
	Title      string   `json:"title"`
	Rects      []Rect   `json:"rects"`
	BaseScale  float64  `json:"baseScale"`
	Timestamp  int64    `json:"timestamp"`
	Tags       []string `json:"tags"`
}

// Tag is a user-defined label; names are unique case-insensitively.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Note is a chat message pinned to a highlight. Append-only; notes vanish
// with their highlight.
type Note struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usage mirrors the upstream provider's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
