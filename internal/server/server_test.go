package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/core/search"
	"github.com/laithdarras/universal-kg/internal/ingest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	cfg := config.Default()
	s := NewServer(core.NewEngine(cfg, nil, nil), cfg, nil)
	return s, s.SetupRouter()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func seed(t *testing.T, r http.Handler) model.BatchResult {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/triples", TriplesRequest{Triples: []model.Triple{
		{Subject: "AI", Relation: "is", Object: "field", Source: "src1", Confidence: 0.9},
		{Subject: "Artificial Intelligence", Relation: "is", Object: "field", Source: "src2", Confidence: 0.8},
		{Subject: "AI", Relation: "is", Object: "artificial intelligence", Source: "src3", Confidence: 0.5},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	return decode[model.BatchResult](t, w)
}

func TestRootAndHealth(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "Universal Knowledge Graph API", "version": "1.0.0"}`, w.Body.String())

	seed(t, r)
	w = doJSON(t, r, http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status": "ok", "nodes": 2, "edges": 1}`, w.Body.String())
}

func TestApplyTriples(t *testing.T) {
	_, r := newTestServer(t)
	res := seed(t, r)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Items, 3)
	assert.Equal(t, model.StatusSkipped, res.Items[2].Status)

	w := doJSON(t, r, http.MethodPost, "/api/triples", map[string]any{"nope": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphSnapshot(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nodes": [], "edges": []}`, w.Body.String())

	seed(t, r)
	w = doJSON(t, r, http.MethodGet, "/api/graph", nil)
	snap := decode[model.Snapshot](t, w)
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "AI", snap.Nodes[0].Label)
	assert.Equal(t, []string{"src1", "src2"}, snap.Edges[0].Sources)
}

func TestNodeAndEdgeExists(t *testing.T) {
	_, r := newTestServer(t)
	seed(t, r)
	snap := decode[model.Snapshot](t, doJSON(t, r, http.MethodGet, "/api/graph", nil))
	edge := snap.Edges[0]

	w := doJSON(t, r, http.MethodGet, "/api/nodes/"+edge.Source, nil)
	require.Equal(t, http.StatusOK, w.Code)
	n := decode[model.Node](t, w)
	assert.Equal(t, []string{"AI", "Artificial Intelligence"}, n.Aliases)

	w = doJSON(t, r, http.MethodGet, "/api/nodes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")

	q := url.Values{"source": {edge.Source}, "target": {edge.Target}, "relation": {"is"}}
	w = doJSON(t, r, http.MethodGet, "/api/edges/exists?"+q.Encode(), nil)
	assert.JSONEq(t, `{"exists": true}`, w.Body.String())

	q.Set("relation", "uses")
	w = doJSON(t, r, http.MethodGet, "/api/edges/exists?"+q.Encode(), nil)
	assert.JSONEq(t, `{"exists": false}`, w.Body.String())

	q.Set("target", "missing")
	w = doJSON(t, r, http.MethodGet, "/api/edges/exists?"+q.Encode(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/edges/exists?source=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQA(t *testing.T) {
	_, r := newTestServer(t)
	seed(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/qa", QARequest{Question: "What is AI?"})
	require.Equal(t, http.StatusOK, w.Code)
	ans := decode[model.Answer](t, w)
	assert.Equal(t, "AI is field.", ans.Answer)
	assert.Len(t, ans.CitedEdges, 1)

	w = doJSON(t, r, http.MethodPost, "/api/qa", QARequest{Question: "quantum gravity"})
	assert.JSONEq(t, `{"answer": "`+search.NoInformationAnswer+`", "cited_nodes": [], "cited_edges": []}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/qa", QARequest{Question: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid query")
}

func TestIngestText(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/ingest-text", IngestTextRequest{
		Text:   "Redis is a cache. Kafka depends on ZooKeeper.",
		Source: "notes",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get(headerApplied))
	assert.Equal(t, "0", w.Header().Get(headerSkipped))

	snap := decode[model.Snapshot](t, w)
	assert.Len(t, snap.Nodes, 4)
	require.Len(t, snap.Edges, 2)
	assert.Equal(t, []string{"notes#chunk_0"}, snap.Edges[0].Sources)

	w = doJSON(t, r, http.MethodPost, "/api/ingest-text", IngestTextRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestURLs(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>Go uses goroutines.</p>"))
	}))
	defer page.Close()

	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{URLs: []string{page.URL}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get(headerApplied))
	snap := decode[model.Snapshot](t, w)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, []string{page.URL + "#chunk_0"}, snap.Edges[0].Sources)

	w = doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest-file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIngestFile(t *testing.T) {
	s, r := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "stack.md", []byte("Kubernetes depends on etcd.")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get(headerApplied))
	snap := decode[model.Snapshot](t, w)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, []string{"stack.md#chunk_0"}, snap.Edges[0].Sources)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "photo.png", []byte("PNG")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "blank.txt", []byte("   ")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.Config.Server.MaxUploadBytes = 64
	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "big.txt", []byte(strings.Repeat("x", 1024))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest-file", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommunities(t *testing.T) {
	_, r := newTestServer(t)
	doJSON(t, r, http.MethodPost, "/api/triples", TriplesRequest{Triples: []model.Triple{
		{Subject: "alpha", Relation: "links", Object: "beta", Source: "s", Confidence: 0.5},
		{Subject: "beta", Relation: "links", Object: "gamma", Source: "s", Confidence: 0.5},
	}})

	w := doJSON(t, r, http.MethodGet, "/api/communities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Communities []model.Community `json:"communities"`
	}](t, w)
	require.Len(t, body.Communities, 1)
	assert.Len(t, body.Communities[0].Nodes, 3)
	assert.Equal(t, "3 related entities: alpha, beta, gamma.", body.Communities[0].Description)
}

func TestCORS(t *testing.T) {
	_, r := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/graph", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ValidatedOriginsBuild(t *testing.T) {
	for _, origins := range [][]string{{"*"}, {"https://kg.example.com"}, config.Default().Server.CORSOrigins} {
		cfg := config.Default()
		cfg.Server.CORSOrigins = origins
		require.NoError(t, cfg.Validate())
		assert.NotPanics(t, func() { CORS(origins) }, "origins=%v", origins)
	}

	for _, origins := range [][]string{{}, {"localhost:3000"}} {
		cfg := config.Default()
		cfg.Server.CORSOrigins = origins
		require.Error(t, cfg.Validate(), "origins=%v", origins)
		assert.Panics(t, func() { CORS(origins) }, "origins=%v", origins)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(model.ErrDegenerateTriple))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("upload: %w", ingest.ErrCorruptDocument)))
	assert.Equal(t, http.StatusNotFound, statusFor(model.ErrNotFound))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(errTooLarge))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
