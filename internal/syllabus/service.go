// Package syllabus turns an uploaded syllabus PDF into a validated list of
// dated assignment blocks by way of the LLM.
package syllabus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/domain"
	"github.com/lexical-app/lexical/internal/llm"
)

// MaxUploadSize caps syllabus uploads at 10MB.
const MaxUploadSize = 10 << 20

// ErrNoText marks a PDF with nothing extractable, usually a scanned image.
var ErrNoText = errors.New("No text content found in PDF. The file might be image-based or corrupted.")

// ErrParseFailed marks model output that never yielded a valid assignment
// array.
var ErrParseFailed = errors.New("Failed to parse AI response. The response may not be valid JSON.")

// Extraction is one successful syllabus run.
type Extraction struct {
	Blocks []domain.AssignmentBlock
	Usage  domain.Usage
}

// Service owns the extraction prompt and the retrying call to the model.
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

// ExtractFromPDF pulls the text out of a PDF upload and runs extraction on
// it.
func (s *Service) ExtractFromPDF(ctx context.Context, data []byte) (*Extraction, error) {
	text, err := extractText(data)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse PDF: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	return s.ExtractAssignments(ctx, text)
}

// ExtractAssignments sends the syllabus text to the model and validates the
// returned assignment array.
func (s *Service) ExtractAssignments(ctx context.Context, text string) (*Extraction, error) {
	prompt := extractionPrompt + text

	res, err := s.retry.Do(ctx, func(ctx context.Context) (*llm.Result, error) {
		return s.gen.Generate(ctx, prompt, llm.Options{MaxTokens: 3000, Temperature: 0.1})
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.ExtractJSON(res.Content, llm.ShapeArray)
	if err != nil {
		s.logger.Error("unparseable extraction response",
			zap.Error(err),
			zap.String("raw_content", res.Content))
		return nil, ErrParseFailed
	}

	blocks, err := ValidateBlocks(raw)
	if err != nil {
		s.logger.Error("extraction response failed shape validation",
			zap.Error(err),
			zap.String("raw_content", res.Content))
		return nil, err
	}

	return &Extraction{Blocks: blocks, Usage: res.Usage}, nil
}

func extractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return buf.String(), nil
}
