package api

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/domain"
	"github.com/lexical-app/lexical/internal/llm"
	"github.com/lexical-app/lexical/internal/syllabus"
)

// flowSeq is a monotonically increasing token attached to every flowchart
// response. A client juggling overlapping generate/refine calls keeps only
// the response with the highest token and discards the rest.
var flowSeq atomic.Int64

func (s *Server) processSyllabus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, syllabus.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No PDF file uploaded")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	ext, err := s.syllabus.ExtractFromPDF(r.Context(), data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    ext.Blocks,
		"usage":   ext.Usage,
	})
}

type generateRequest struct {
	Prompt  string `json:"prompt"`
	Options struct {
		MaxTokens   int     `json:"maxTokens"`
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required and must be a string")
		return
	}

	res, err := s.retry.Do(r.Context(), func(ctx context.Context) (*llm.Result, error) {
		return s.gen.Generate(ctx, req.Prompt, llm.Options{
			MaxTokens:   req.Options.MaxTokens,
			Temperature: req.Options.Temperature,
		})
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": res.Content,
		"usage":   res.Usage,
	})
}

type flowchartGenerateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) generateFlowchart(w http.ResponseWriter, r *http.Request) {
	var req flowchartGenerateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required and must be a string")
		return
	}
	if len(req.Prompt) > 1000 {
		writeError(w, http.StatusBadRequest, "Prompt must be less than 1000 characters")
		return
	}

	res, err := s.flow.Generate(r.Context(), req.Prompt)
	if err != nil {
		s.logger.Error("flowchart generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    res.Data,
		"usage":   res.Usage,
		"seq":     flowSeq.Add(1),
	})
}

type flowchartRefineRequest struct {
	CurrentFlowchart  *domain.Flowchart `json:"currentFlowchart"`
	RefinementRequest string            `json:"refinementRequest"`
}

func (s *Server) refineFlowchart(w http.ResponseWriter, r *http.Request) {
	var req flowchartRefineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentFlowchart == nil || req.RefinementRequest == "" {
		writeError(w, http.StatusBadRequest, "Current flowchart and refinement request are required")
		return
	}
	if len(req.RefinementRequest) > 500 {
		writeError(w, http.StatusBadRequest, "Refinement request must be less than 500 characters")
		return
	}

	res, err := s.flow.Refine(r.Context(), *req.CurrentFlowchart, req.RefinementRequest)
	if err != nil {
		s.logger.Error("flowchart refinement failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    res.Data,
		"usage":   res.Usage,
		"seq":     flowSeq.Add(1),
	})
}
