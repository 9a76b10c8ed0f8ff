package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lexical-app/lexical/internal/annotate"
	"github.com/lexical-app/lexical/internal/domain"
)

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// session resolves the {id} path value, writing a 404 on a miss.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*annotate.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// writeStoreError maps annotation-store errors onto the HTTP taxonomy:
// unknown ids are 404, rejected input is 400.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, annotate.ErrHighlightNotFound),
		errors.Is(err, annotate.ErrTagNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, annotate.ErrDuplicateTagName),
		errors.Is(err, annotate.ErrEmptyTagName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"sessionId": sess.ID,
	})
}

func (s *Server) addHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var h domain.Highlight
	if err := decodeBody(r, &h); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(h.Rects) == 0 {
		writeError(w, http.StatusBadRequest, "At least one rect is required")
		return
	}

	created := sess.AddHighlight(h)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

func (s *Server) listHighlights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	scale := 0.0
	if raw := r.URL.Query().Get("scale"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Scale must be a positive number")
			return
		}
		scale = parsed
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sess.Highlights(scale),
	})
}

type updateHighlightRequest struct {
	Color *string `json:"color"`
	Title *string `json:"title"`
}

func (s *Server) updateHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req updateHighlightRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hid := r.PathValue("hid")
	if req.Color != nil {
		if err := sess.SetColor(hid, *req.Color); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Title != nil {
		if err := sess.SetTitle(hid, *req.Title); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	h, err := sess.Highlight(hid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h,
	})
}

func (s *Server) deleteHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.DeleteHighlight(r.PathValue("hid")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req tagRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tag, err := sess.CreateTag(req.Name, req.Color)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    tag,
	})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sess.Tags(),
	})
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req tagRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tag, err := sess.UpdateTag(r.PathValue("tid"), req.Name, req.Color)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    tag,
	})
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.DeleteTag(r.PathValue("tid")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) assignTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.AssignTag(r.PathValue("hid"), r.PathValue("tid")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) unassignTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.UnassignTag(r.PathValue("hid"), r.PathValue("tid")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type noteRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Note content is required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	note, err := sess.AttachNote(r.PathValue("hid"), req.Role, req.Content)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    note,
	})
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	notes, err := sess.Notes(r.PathValue("hid"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    notes,
	})
}

type assignmentsRequest struct {
	Data []domain.AssignmentBlock `json:"data"`
}

func (s *Server) setAssignments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req assignmentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.SetAssignments(req.Data)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) calendarDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	// Unmapped days are an empty result, not an error.
	entry, found := sess.CalendarDay(r.PathValue("date"))
	resp := map[string]interface{}{
		"success": true,
		"data":    nil,
	}
	if found {
		resp["data"] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}
