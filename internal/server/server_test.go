package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/errors"
	reefio "github.com/matzehuels/reefrank/pkg/io"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/observability"
	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/seeding"
	"github.com/matzehuels/reefrank/pkg/store"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func domainDoc(t *testing.T) json.RawMessage {
	t.Helper()
	in := domain.Inputs{
		Name: "quad",
		Sites: []domain.Site{
			{ID: "a", Area: 1000, K: 80, Depth: 5, Zone: "green"},
			{ID: "b", Area: 800, K: 75, Depth: 6},
			{ID: "c", Area: 600, K: 90, Depth: 7},
			{ID: "d", Area: 400, K: 70, Depth: 8},
		},
		Connectivity: [][]float64{
			{0, 0.3, 0, 0.1},
			{0, 0, 0.4, 0},
			{0.2, 0, 0, 0.3},
			{0, 0.1, 0, 0},
		},
		WaveStress: [][][]float64{{{0.1, 0.2}, {0.3, 0.1}, {0.2, 0.2}, {0.4, 0.3}}},
		HeatStress: [][][]float64{{{0.1, 0.3}, {0.2, 0.2}, {0.5, 0.1}, {0.3, 0.4}}},
		CoralCover: [][]float64{{0.2, 0.1, 0.3, 0.1}},
		CoralTypes: []string{"tabular"},
	}
	var buf bytes.Buffer
	require.NoError(t, reefio.WriteDomain(in, &buf))
	return buf.Bytes()
}

type fixture struct {
	srv   *Server
	store store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	st, err := store.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := quietLogger()
	srv := New(Config{
		Runner: pipeline.NewRunner(fc, nil, logger),
		Logger: logger,
		Store:  st,
	})
	return &fixture{srv: srv, store: st}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.Code {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestHealth(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		Build  struct {
			Version string `json:"version"`
			Go      string `json:"go"`
		} `json:"build"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
	assert.NotEmpty(t, body.Build.Go)
}

func TestCentrality(t *testing.T) {
	f := newFixture(t)
	req := centralityRequest{Matrix: [][]float64{{0, 0.5, 0}, {0, 0, 0.5}, {0, 0, 0}}}

	rec := f.do(t, http.MethodPost, "/v1/centrality", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		In          []float64 `json:"in"`
		Predecessor []int     `json:"predecessor"`
		Cached      bool      `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []int{-1, 0, 1}, got.Predecessor)
	assert.InDeltaSlice(t, []float64{0, 0.5, 0}, got.In, 1e-12)
	assert.False(t, got.Cached)

	rec = f.do(t, http.MethodPost, "/v1/centrality", req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Cached)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"malformed body", "/v1/centrality", `{"matrix":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/centrality", `{"weights": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"non-square matrix", "/v1/centrality", centralityRequest{Matrix: [][]float64{{0, 1}, {1}}}, http.StatusUnprocessableEntity, errors.ErrCodeInvalidData},
		{"bad cutoff", "/v1/centrality", centralityRequest{Matrix: [][]float64{{0}}, Cutoff: 2}, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"rank without domain", "/v1/rank", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"over capacity", "/v1/allocate", allocateRequest{
			TotalArea: []float64{100, 100}, Selected: []int{0, 1}, Available: []float64{50, 30}, Seeded: []float64{100},
		}, http.StatusUnprocessableEntity, errors.ErrCodeInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestRank(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"domain": domainDoc(t),
		"scenario": map[string]any{
			"name":        "api",
			"algorithm":   "topsis",
			"seed_sites":  2,
			"shade_sites": 2,
			"seed_weights": map[string]float64{"in_connectivity": 1, "heat_stress": 0.5},
			"seeded_area":  map[string]float64{"tabular": 50},
		},
		"allocate": true,
	}

	rec := f.do(t, http.MethodPost, "/v1/rank", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "quad", res.Domain)
	assert.Equal(t, "topsis", res.Algorithm)
	assert.Equal(t, "api", res.Scenario.Name)
	assert.Equal(t, mcda.Weights{InConnectivity: 1, HeatStress: 0.5}, res.Scenario.SeedWeights)
	assert.Equal(t, mcda.DefaultWeights(), res.Scenario.ShadeWeights)
	require.Len(t, res.Slots, 1)
	require.Len(t, res.Slots[0], 2)
	for _, rep := range res.Slots[0] {
		require.NotNil(t, rep.Allocation)
		areas, ok := rep.Allocation.ByType("tabular")
		require.True(t, ok)
		var total float64
		for _, a := range areas {
			total += a
		}
		assert.InDelta(t, 50, total, 1e-9)
	}

	// The default scenario is untouched by request overrides.
	assert.Equal(t, "default", f.srv.Scenario().Name)

	rec = f.do(t, http.MethodGet, "/v1/runs/"+res.RunID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.store.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, stored.RunID)

	rec = f.do(t, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs []store.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "api", list.Runs[0].Scenario)
}

func TestRankInvalidScenario(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/rank", map[string]any{
		"domain":   domainDoc(t),
		"scenario": map[string]any{"risk_tolerance": 2},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errorCode(t, rec))
}

func TestRuns(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeRunNotFound, errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/v1/runs?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bare := New(Config{Logger: quietLogger()})
	rec = httptest.NewRecorder()
	bare.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAllocate(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodPost, "/v1/allocate", allocateRequest{
		TotalArea: []float64{100, 100},
		Selected:  []int{0, 1},
		Available: []float64{50, 30},
		Seeded:    []float64{40},
		Types:     []string{"tabular"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a seeding.Allocation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	areas, ok := a.ByType("tabular")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{25, 15}, areas, 1e-12)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.SetHTTPHooks(observability.NewPrometheusHooks(reg))
	t.Cleanup(observability.Reset)

	srv := New(Config{Logger: quietLogger(), Gatherer: reg})
	for _, path := range []string{"/healthz", "/v1/runs/abc"} {
		srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `reefrank_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, out, `reefrank_http_requests_total{method="GET",route="/v1/runs/{id}",status="404"} 1`)
}

func TestWatchScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(`name = "first"`), 0o644))

	srv := New(Config{Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.WatchScenario(ctx, path) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Keep rewriting until the watcher has picked up a change, since the
	// watch may be registered after the first write.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("name = \"second\"\nalgorithm = \"vikor\"\n"), 0o644)
		return srv.Scenario().Name == "second"
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, "vikor", srv.Scenario().Algorithm)

	require.NoError(t, os.WriteFile(path, []byte(`risk_tolerance = 7`), 0o644))
	time.Sleep(3 * reloadDelay)
	assert.Equal(t, "second", srv.Scenario().Name, "invalid file keeps the previous scenario")
}
