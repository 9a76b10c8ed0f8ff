package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/domain"
	"github.com/lexical-app/lexical/internal/llm"
)

type fakeGenerator struct {
	content string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (*llm.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{Content: f.content, Usage: domain.Usage{TotalTokens: 9}}, nil
}

func newTestServer(t *testing.T, gen llm.Generator) *httptest.Server {
	t.Helper()
	srv := New(gen, zap.NewNop(), ":0")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues a request with a JSON body and decodes the JSON response.
func doJSON(t *testing.T, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{content: "hello there"})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/deepseek/generate",
		map[string]interface{}{"prompt": "say hello"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "hello there", body["content"])
}

func TestGenerate_MissingPrompt(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/deepseek/generate",
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Prompt is required and must be a string", body["error"])
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{err: &llm.APIError{StatusCode: 401, Message: "bad key"}})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/deepseek/generate",
		map[string]interface{}{"prompt": "say hello"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
}

func TestGenerateFlowchart(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{content: `{
		"title": "Coffee",
		"description": "brew",
		"nodes": [{"id": "a", "type": "start", "label": "Start"}],
		"edges": []
	}`})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/flowchart/generate",
		map[string]interface{}{"prompt": "how to make coffee"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["seq"])

	data := body["data"].(map[string]interface{})
	nodes := data["nodes"].([]interface{})
	require.Len(t, nodes, 1)
	// Layout ran: the node carries coordinates.
	assert.Contains(t, nodes[0].(map[string]interface{}), "x")
}

func TestGenerateFlowchart_PromptTooLong(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/flowchart/generate",
		map[string]interface{}{"prompt": strings.Repeat("x", 1001)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Prompt must be less than 1000 characters", body["error"])
}

func TestRefineFlowchart_MissingFields(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/flowchart/refine",
		map[string]interface{}{"refinementRequest": "add a step"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Current flowchart and refinement request are required", body["error"])
}

func TestProcessSyllabus_NoFile(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/deepseek/syllabus/process", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No PDF file uploaded", body["error"])
}

func TestProcessSyllabus_WrongMimetype(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "syllabus.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/deepseek/syllabus/process", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF files are allowed", body["error"])
}

func TestProcessSyllabus_CorruptPDF(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="syllabus.pdf"`)
	header.Set("Content-Type", "application/pdf")
	fw, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = fw.Write([]byte("claims to be a pdf but is not"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/deepseek/syllabus/process", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["error"], "Failed to parse PDF")
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	id, ok := body["sessionId"].(string)
	require.True(t, ok)
	return id
}

func TestSession_UnknownID(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	status, body := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/nope/highlights", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestSession_HighlightLifecycle(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/sessions/%s", ts.URL, id)

	status, body := doJSON(t, http.MethodPost, base+"/highlights", map[string]interface{}{
		"pageNumber": 1,
		"color":      "#ffeb3b",
		"text":       "promissory estoppel",
		"rects":      []map[string]float64{{"left": 10, "top": 10, "right": 50, "bottom": 30}},
		"baseScale":  1.0,
	})
	require.Equal(t, http.StatusCreated, status)
	hid := body["data"].(map[string]interface{})["id"].(string)

	// Doubling the scale doubles every rect edge.
	status, body = doJSON(t, http.MethodGet, base+"/highlights?scale=2.0", nil)
	require.Equal(t, http.StatusOK, status)
	highlights := body["data"].([]interface{})
	require.Len(t, highlights, 1)
	rect := highlights[0].(map[string]interface{})["rects"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 20.0, rect["left"])
	assert.Equal(t, 100.0, rect["right"])

	status, body = doJSON(t, http.MethodPatch, base+"/highlights/"+hid,
		map[string]interface{}{"color": "#4caf50", "title": "Estoppel"})
	require.Equal(t, http.StatusOK, status)
	updated := body["data"].(map[string]interface{})
	assert.Equal(t, "#4caf50", updated["color"])
	assert.Equal(t, "Estoppel", updated["title"])

	status, _ = doJSON(t, http.MethodDelete, base+"/highlights/"+hid, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodDelete, base+"/highlights/"+hid, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSession_TagLifecycle(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/sessions/%s", ts.URL, id)

	status, body := doJSON(t, http.MethodPost, base+"/tags",
		map[string]interface{}{"name": "Important", "color": "#f44336"})
	require.Equal(t, http.StatusCreated, status)
	tid := body["data"].(map[string]interface{})["id"].(string)

	// Case-varied duplicate rejected.
	status, body = doJSON(t, http.MethodPost, base+"/tags",
		map[string]interface{}{"name": "important", "color": "#2196f3"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "A tag with this name already exists", body["error"])

	status, body = doJSON(t, http.MethodPost, base+"/highlights", map[string]interface{}{
		"pageNumber": 1,
		"rects":      []map[string]float64{{"left": 1, "top": 1, "right": 2, "bottom": 2}},
	})
	require.Equal(t, http.StatusCreated, status)
	hid := body["data"].(map[string]interface{})["id"].(string)

	status, _ = doJSON(t, http.MethodPut, base+"/highlights/"+hid+"/tags/"+tid, nil)
	require.Equal(t, http.StatusOK, status)

	// Deleting the tag strips it from the highlight.
	status, _ = doJSON(t, http.MethodDelete, base+"/tags/"+tid, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, http.MethodGet, base+"/highlights", nil)
	require.Equal(t, http.StatusOK, status)
	tags := body["data"].([]interface{})[0].(map[string]interface{})["tags"].([]interface{})
	assert.Empty(t, tags)
}

func TestSession_NotesAndCalendar(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/sessions/%s", ts.URL, id)

	status, body := doJSON(t, http.MethodPost, base+"/highlights", map[string]interface{}{
		"pageNumber": 3,
		"rects":      []map[string]float64{{"left": 1, "top": 1, "right": 2, "bottom": 2}},
	})
	require.Equal(t, http.StatusCreated, status)
	hid := body["data"].(map[string]interface{})["id"].(string)

	status, _ = doJSON(t, http.MethodPost, base+"/highlights/"+hid+"/notes",
		map[string]interface{}{"content": "what does this mean?"})
	require.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, http.MethodGet, base+"/highlights/"+hid+"/notes", nil)
	require.Equal(t, http.StatusOK, status)
	notes := body["data"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, "user", notes[0].(map[string]interface{})["role"])

	status, _ = doJSON(t, http.MethodPut, base+"/assignments", map[string]interface{}{
		"data": []map[string]interface{}{{
			"startDate": "2024-09-02",
			"endDate":   "2024-09-03",
			"assignments": []map[string]string{
				{"title": "Read chapter 1", "tag": "read"},
			},
		}},
	})
	require.Equal(t, http.StatusOK, status)

	// The range expanded to both days.
	status, body = doJSON(t, http.MethodGet, base+"/calendar/2024-09-03", nil)
	require.Equal(t, http.StatusOK, status)
	day := body["data"].(map[string]interface{})
	assert.Equal(t, "2024-09-03", day["startDate"])

	// Unmapped day is a null result, not an error.
	status, body = doJSON(t, http.MethodGet, base+"/calendar/2024-12-25", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["data"])
}
