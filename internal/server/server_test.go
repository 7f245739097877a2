package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/chunker"
	"docsearch/internal/config"
	"docsearch/internal/domain"
	"docsearch/internal/extract"
	"docsearch/internal/logging"
	"docsearch/internal/metrics"
	"docsearch/internal/service"
	"docsearch/internal/store"
	"docsearch/internal/store/memory"
)

const manual = "The pump must be primed before use. Open the valve slowly. " +
	"Check the pressure gauge every hour. Close the valve when the tank is full. " +
	"Replace the filter each month."

type fixture struct {
	srv   *Server
	svc   *service.SearchService
	store store.Store
}

func newFixture(t *testing.T, st store.Store, restore string) fixture {
	t.Helper()
	cfg := config.Default()
	log := logging.Discard()
	reg := prometheus.NewRegistry()
	proc := service.NewProcessor(extract.Auto{}, chunker.NewSentenceChunker(60, 10), nil, 0, log)
	svc := service.NewSearchService(
		service.WithLogger(log),
		service.WithStore(st),
		service.WithProcessor(proc),
		service.WithMetrics(metrics.New(reg)),
	)
	srv := New(svc, Options{
		Server:      cfg.Server,
		Search:      cfg.Search,
		UploadDir:   t.TempDir(),
		RestoreName: restore,
		Logger:      log,
		Gatherer:    reg,
	})
	return fixture{srv: srv, svc: svc, store: st}
}

func (f fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func newSearchRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Document Search")
	assert.Contains(t, rec.Body.String(), `accept=".pdf,.txt"`)
}

func TestSearch_BeforeUpload(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, body := f.do(t, newSearchRequest(`{"query":"valve"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestUploadThenSearch(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, body := f.do(t, uploadRequest(t, "file", "Pump Manual.txt", manual))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	doc := body["document"].(map[string]any)
	assert.Equal(t, "Pump_Manual.txt", doc["filename"])

	rec, body = f.do(t, newSearchRequest(`{"query":"valve","max_results":2}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "valve", body["query"])

	results := body["results"].([]any)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)
	assert.Equal(t, float64(len(results)), body["total_found"])
	first := results[0].(map[string]any)
	assert.Equal(t, float64(1), first["rank"])
	assert.Contains(t, strings.ToLower(first["text"].(string)), "valve")
	assert.Contains(t, []any{"High", "Medium", "Low"}, first["confidence"])
	assert.Nil(t, first["page_number"])

	names, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pump_Manual.txt"}, names)
}

func TestUpload_LegacyFieldName(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, _ := f.do(t, uploadRequest(t, "pdf", "notes.txt", manual))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{name: "wrong extension", req: uploadRequest(t, "file", "image.png", "data"), code: http.StatusBadRequest},
		{name: "empty file", req: uploadRequest(t, "file", "empty.txt", ""), code: http.StatusBadRequest},
		{name: "no text", req: uploadRequest(t, "file", "blank.txt", "   \n\t "), code: http.StatusUnprocessableEntity},
		{name: "no indexable terms", req: uploadRequest(t, "file", "notes.txt", "a b c. d e f. x y z."), code: http.StatusUnprocessableEntity},
		{name: "fake pdf", req: uploadRequest(t, "file", "fake.pdf", "not really a pdf"), code: http.StatusUnprocessableEntity},
		{name: "missing file", req: httptest.NewRequest(http.MethodPost, "/upload", nil), code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, tt.req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")
	rec, _ := f.do(t, uploadRequest(t, "file", "manual.txt", manual))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, body := range []string{
		`{"query":""}`,
		`{"query":"DROP TABLE chunks"}`,
		fmt.Sprintf(`{"query":%q}`, strings.Repeat("a", 501)),
		`{"query":"valve","max_results":0}`,
		`{"query":"valve","min_similarity":1.5}`,
		`not json`,
	} {
		rec, resp := f.do(t, newSearchRequest(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, false, resp["success"], body)
	}
}

func TestSearch_HighFloorFindsNothing(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")
	rec, _ := f.do(t, uploadRequest(t, "file", "manual.txt", manual))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, newSearchRequest(`{"query":"zebra","min_similarity":0.9}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total_found"])
	assert.Empty(t, body["results"])
}

func TestSearch_RestoresPersistedDocument(t *testing.T) {
	st := memory.NewStorage()
	first := newFixture(t, st, "")
	rec, _ := first.do(t, uploadRequest(t, "file", "manual.txt", manual))
	require.Equal(t, http.StatusOK, rec.Code)

	second := newFixture(t, st, "manual.txt")
	rec, body := second.do(t, newSearchRequest(`{"query":"filter"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["results"])
	assert.Equal(t, "manual.txt", second.svc.ActiveDocument().Filename)
}

func TestSearch_RestoreMissing(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "gone.pdf")

	rec, _ := f.do(t, newSearchRequest(`{"query":"filter"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatsTermsSimilar(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["indexed"])

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/terms", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, uploadRequest(t, "file", "manual.txt", manual))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, "manual.txt", stats["document"].(map[string]any)["filename"])
	assert.Greater(t, stats["vectorizer_features"], float64(0))

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/terms?n=4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["terms"], 4)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/terms?n=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/chunks/0/similar?n=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, len(body["similar"].([]any)), 2)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/chunks/x/similar", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, memory.NewStorage(), "")

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	_, _ = f.do(t, newSearchRequest(`{"query":"valve"}`))
	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docsearch_searches_total{result="error"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ValidationError("bad"), http.StatusBadRequest},
		{domain.ProcessingError("no text", nil), http.StatusUnprocessableEntity},
		{domain.SearchError("not indexed", domain.ErrNotIndexed), http.StatusConflict},
		{store.NotFound("x"), http.StatusNotFound},
		{domain.StorageError("disk", nil), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		code, msg := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.NotEmpty(t, msg)
	}
}
