package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/config"
	"github.com/dgallion1/brandgest/internal/llm"
	"github.com/dgallion1/brandgest/internal/pathstore"
	"github.com/dgallion1/brandgest/internal/pipeline"
	"github.com/dgallion1/brandgest/internal/questionnaire"
	"github.com/dgallion1/brandgest/internal/strategy"
)

const testAPIKey = "test-key"

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, brief strategy.Brief, records []questionnaire.Record, onAnswer func()) (*strategy.Result, error) {
	answers := make([]strategy.Answer, 0, len(records))
	for _, r := range records {
		onAnswer()
		answers = append(answers, strategy.Answer{Question: r.Question, Answer: r.Answer})
	}
	return &strategy.Result{
		Answers:  answers,
		Report:   strategy.BuildReport(answers),
		Strategy: "Strategy for " + brief.BrandName,
	}, nil
}

type memArchive struct {
	mu      sync.Mutex
	records map[string][]pathstore.StrategyRecord
}

func (a *memArchive) List(_ context.Context, slug string, limit int) ([]pathstore.StrategyRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	recs := a.records[slug]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (a *memArchive) Delete(_ context.Context, slug, jobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, r := range a.records[slug] {
		if r.JobID == jobID {
			a.records[slug] = append(a.records[slug][:i], a.records[slug][i+1:]...)
			return nil
		}
	}
	return pathstore.ErrNotFound
}

func testConfig() config.Config {
	return config.Config{
		APIKey:         testAPIKey,
		AnthropicModel: "claude-test",
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"https://app.example.com"},
	}
}

func newTestServer(t *testing.T, archive StrategyArchive) *Server {
	t.Helper()
	orch := pipeline.NewOrchestrator(pipeline.Options{WorkerCount: 1, MaxQueueSize: 8, JobTTL: time.Hour},
		questionnaire.DefaultCatalog(), stubGenerator{}, nil, zap.NewNop())
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, archive, llm.NewStats(time.Hour), zap.NewNop(), testConfig())
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const questionnaireText = "The Brand Proposition\n" +
	"What products/service do you offer to solve this?\n" +
	"Anvils\n" +
	"How can we best reach them (main channels)?\n" +
	"Trade fairs\n"

func TestHealth_Public(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, do(t, s, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/strategy", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["questions"], 22)
	assert.Len(t, body["headers"], 4)
}

func TestExtract(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, multipartRequest(t, "/api/extract", nil, "answers.txt", questionnaireText))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["count"])
	records := body["records"].([]any)
	first := records[0].(map[string]any)
	assert.Equal(t, "What products/service do you offer to solve this?", first["question"])
	assert.Equal(t, "Anvils", first["answer"])
}

func TestExtract_UnsupportedType(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, multipartRequest(t, "/api/extract", nil, "answers.exe", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported file type")
}

func TestStrategyUpload_ListsEveryMissingField(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, multipartRequest(t, "/api/strategy", map[string]string{"brand_name": " "}, "", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []any{
		"Please upload one document.",
		"Please enter the brand name.",
		"Please enter the industry of your brand.",
	}, body["problems"])
}

func TestStrategyUpload_Completes(t *testing.T) {
	s := newTestServer(t, nil)
	fields := map[string]string{"brand_name": "Acme Anvils", "industry": "Hardware"}
	rec := do(t, s, multipartRequest(t, "/api/strategy", fields, "answers.txt", questionnaireText))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	body := decode(t, rec)
	jobID := body["job_id"].(string)
	pollURL := body["poll_url"].(string)
	assert.Equal(t, "/api/strategy/"+jobID, pollURL)

	var snap map[string]any
	require.Eventually(t, func() bool {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, pollURL, nil))
		snap = decode(t, rec)
		return snap["status"] == string(pipeline.StatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Acme Anvils", snap["brand_name"])
	result := snap["result"].(map[string]any)
	assert.Equal(t, "Strategy for Acme Anvils", result["strategy"])
	assert.True(t, strings.HasPrefix(result["report"].(string), "Q1- What products/service do you offer to solve this?\nAnvils\n\n"))
}

func TestStrategyForm(t *testing.T) {
	s := newTestServer(t, nil)
	payload := `{"brand_name":"Acme","industry":"Hardware","answers":{"How can we best reach them (main channels)?":"Trade fairs","Not a question":"x"}}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/strategy/form", strings.NewReader(payload)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	jobID := decode(t, rec)["job_id"].(string)
	require.Eventually(t, func() bool {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/strategy/"+jobID, nil))
		return decode(t, rec)["status"] == string(pipeline.StatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStrategyForm_NoAnswers(t *testing.T) {
	s := newTestServer(t, nil)
	payload := `{"brand_name":"Acme","industry":"Hardware","answers":{}}`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/strategy/form", strings.NewReader(payload)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"Please answer at least one question."}, decode(t, rec)["problems"])
}

func TestStrategyForm_InvalidJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/strategy/form", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrategyStatus_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/strategy/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchive_Disabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/brands/acme/strategies", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/brands/acme/strategies/j1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestArchive_ListAndDelete(t *testing.T) {
	archive := &memArchive{records: map[string][]pathstore.StrategyRecord{
		"acme-anvils": {{JobID: "j1", BrandName: "Acme Anvils"}, {JobID: "j2", BrandName: "Acme Anvils"}},
	}}
	s := newTestServer(t, archive)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/brands/Acme%20Anvils/strategies?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "acme-anvils", body["brand"])
	assert.Len(t, body["strategies"], 1)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/brands/acme-anvils/strategies/j1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/brands/acme-anvils/strategies/j1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLLMStats(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "claude-test", body["model"])
	assert.Contains(t, body, "stats")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"answers.docx":          "answers.docx",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\brief.pdf`: "brief.pdf",
		"":                      "unnamed",
		"..":                    "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
