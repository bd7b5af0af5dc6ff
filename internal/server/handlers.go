package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/reefrank/pkg/buildinfo"
	"github.com/matzehuels/reefrank/pkg/connectivity"
	"github.com/matzehuels/reefrank/pkg/errors"
	reefio "github.com/matzehuels/reefrank/pkg/io"
	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/seeding"
)

type centralityRequest struct {
	Matrix [][]float64 `json:"matrix"`
	Cutoff float64     `json:"cutoff"`
}

type centralityResponse struct {
	*connectivity.Centrality
	Cached bool `json:"cached"`
}

type rankRequest struct {
	Domain json.RawMessage `json:"domain"`

	// Scenario fields override the server's default scenario.
	Scenario json.RawMessage `json:"scenario,omitempty"`

	Allocate        bool `json:"allocate,omitempty"`
	ContinueOnError bool `json:"continue_on_error,omitempty"`
}

type allocateRequest struct {
	TotalArea []float64 `json:"total_area"`
	Selected  []int     `json:"selected"`
	Available []float64 `json:"available"`
	Seeded    []float64 `json:"seeded"`
	Types     []string  `json:"types,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) getScenario(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Scenario())
}

func (s *Server) centrality(w http.ResponseWriter, r *http.Request) {
	var req centralityRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := connectivity.NewMatrix(req.Matrix, req.Cutoff)
	if err != nil {
		s.writeError(w, err)
		return
	}
	c, hit, err := connectivity.BuildCached(r.Context(), s.cfg.Runner.Cache, s.cfg.Runner.Keyer, m)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, centralityResponse{Centrality: c, Cached: hit})
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Domain) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request has no domain"))
		return
	}
	in, err := reefio.ReadDomain(bytes.NewReader(req.Domain))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sc := s.Scenario().Clone()
	if len(req.Scenario) > 0 {
		if sc, err = sc.Override(req.Scenario); err != nil {
			s.writeError(w, err)
			return
		}
	}

	ctx := r.Context()
	d, err := s.cfg.Runner.LoadDomain(ctx, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.cfg.Runner.Run(ctx, d, sc, pipeline.Options{
		Workers:         s.cfg.Workers,
		Timeout:         s.cfg.RunTimeout,
		Allocate:        req.Allocate,
		ContinueOnError: req.ContinueOnError,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.cfg.Store != nil {
		if err := s.cfg.Store.SaveRun(ctx, res); err != nil {
			s.cfg.Logger.Warn("failed to store run", "run", res.RunID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, err := seeding.Allocate(req.TotalArea, req.Selected, req.Available, req.Seeded)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Types != nil {
		if err := a.WithTypes(req.Types); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no run store configured"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := s.cfg.Store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.lookupRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) lookupRun(ctx context.Context, id string) (*pipeline.Result, error) {
	if res, hit, err := s.cfg.Runner.CachedRun(ctx, id); err == nil && hit {
		return res, nil
	}
	if s.cfg.Store == nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	return s.cfg.Store.GetRun(ctx, id)
}

// decode reads a JSON body into v and reports malformed bodies itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return false
	}
	return true
}

type errorBody struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "error", err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
	}
	writeJSON(w, status, errorBody{Code: code, Error: errors.UserMessage(err)})
}

func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidData:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRunNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
