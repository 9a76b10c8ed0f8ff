// Package flowchart generates and refines LLM-designed flowcharts and lays
// them out for rendering.
package flowchart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/domain"
	"github.com/lexical-app/lexical/internal/llm"
)

// Input limits enforced before any model call.
const (
	MaxPromptLen     = 1000
	MaxRefinementLen = 500
)

// ErrInvalidStructure marks model output that parsed as JSON but is missing
// the flowchart fields.
var ErrInvalidStructure = errors.New("Invalid flowchart structure")

const generateSystemPrompt = `You are an expert flowchart designer. Given a user's description, create a comprehensive flowchart that visualizes the process, workflow, or concept they describe.

Return your response as a valid JSON object with this exact structure:

{
  "title": "Brief title for the flowchart",
  "description": "Short description of what the flowchart represents",
  "nodes": [
    {
      "id": "unique_id",
      "type": "start|process|decision|end|input|output",
      "label": "Node text content"
    }
  ],
  "edges": [
    {
      "id": "unique_edge_id",
      "source": "source_node_id",
      "target": "target_node_id",
      "label": "optional edge label"
    }
  ]
}

Node types:
- "start": Beginning of process (oval shape)
- "process": Action or process step (rectangle)
- "decision": Decision point with yes/no branches (diamond)
- "input": Data input (parallelogram)
- "output": Data output (parallelogram)
- "end": End of process (oval shape)

Guidelines:
1. Always start with a "start" node and end with an "end" node
2. Use meaningful, concise labels (max 50 characters)
3. For decision nodes, create edges with "Yes" and "No" labels
4. Create a logical flow that's easy to follow
5. Include 5-15 nodes for optimal clarity
6. Use unique IDs for all nodes and edges
7. Make sure all edges connect valid source and target nodes

Return only the JSON object, no additional text or explanation.`

// Result is one successful generate or refine call, laid out and ready to
// render.
type Result struct {
	Data  domain.Flowchart
	Usage domain.Usage
}

// Service owns the flowchart prompts and the retrying calls to the model.
type Service struct {
	gen    llm.Generator
	retry  *llm.Retryer
	logger *zap.Logger
}

// New returns a Service backed by the given generator.
func New(gen llm.Generator, logger *zap.Logger) *Service {
	return &Service{
		gen:    gen,
		retry:  llm.NewRetryer(logger),
		logger: logger,
	}
}

// Generate asks the model for a fresh flowchart from a natural-language
// description.
func (s *Service) Generate(ctx context.Context, prompt string) (*Result, error) {
	return s.request(ctx, prompt, llm.Options{
		System:      generateSystemPrompt,
		MaxTokens:   2000,
		Temperature: 0.3,
	})
}

// Refine sends the current graph back with a change request and returns the
// updated version.
func (s *Service) Refine(ctx context.Context, current domain.Flowchart, request string) (*Result, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal current flowchart: %w", err)
	}

	prompt := fmt.Sprintf(`You are refining an existing flowchart based on user feedback.

Current flowchart:
%s

User's refinement request: "%s"

Please modify the flowchart according to the user's request and return the updated version in the same JSON format. Maintain the same structure but make the requested changes.

Return only the JSON object, no additional text or explanation.`, currentJSON, request)

	return s.request(ctx, prompt, llm.Options{MaxTokens: 2000, Temperature: 0.3})
}

func (s *Service) request(ctx context.Context, prompt string, opts llm.Options) (*Result, error) {
	res, err := s.retry.Do(ctx, func(ctx context.Context) (*llm.Result, error) {
		return s.gen.Generate(ctx, prompt, opts)
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.ExtractJSON(res.Content, llm.ShapeObject)
	if err != nil {
		s.logger.Error("unparseable flowchart response",
			zap.Error(err),
			zap.String("raw_content", res.Content))
		return nil, err
	}

	var data domain.Flowchart
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Error("flowchart response failed to decode",
			zap.Error(err),
			zap.String("raw_content", res.Content))
		return nil, llm.ErrInvalidResponse
	}

	if data.Nodes == nil || data.Edges == nil || data.Title == "" {
		return nil, ErrInvalidStructure
	}

	Layout(&data)

	return &Result{Data: data, Usage: res.Usage}, nil
}
