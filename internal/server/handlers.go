package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/paradoxlab/reversal/pkg/buildinfo"
	"github.com/paradoxlab/reversal/pkg/census"
	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/observability"
	"github.com/paradoxlab/reversal/pkg/pipeline"
)

// maxRequestBody caps tree request bodies at 1 MiB. Options payloads are
// small; anything larger is malformed or hostile.
const maxRequestBody = 1 << 20

// healthResponse is the GET /healthz payload.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// treeResponse is the POST /api/v1/trees payload. Artifact bytes are
// base64-encoded by encoding/json.
type treeResponse struct {
	RunID     string            `json:"run_id"`
	TreeHash  string            `json:"tree_hash"`
	Depth     int               `json:"depth"`
	Census    *census.Census    `json:"census,omitempty"`
	Artifacts map[string][]byte `json:"artifacts"`
	Stats     treeStats         `json:"stats"`
	Cached    treeCacheInfo     `json:"cached"`
}

type treeStats struct {
	ColumnCount int           `json:"column_count"`
	BuildTime   time.Duration `json:"build_time_ns"`
	CensusTime  time.Duration `json:"census_time_ns"`
	RenderTime  time.Duration `json:"render_time_ns"`
}

type treeCacheInfo struct {
	Build  bool `json:"build"`
	Census bool `json:"census"`
	Render bool `json:"render"`
}

// errorResponse is the payload for all error statuses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
	})
}

// handleTrees runs the full pipeline for the posted options.
func (s *Server) handleTrees(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, http.StatusBadRequest,
			apperrors.Wrap(err, apperrors.CodeInvalidScenario, "decode request"))
		return
	}
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, statusForCode(apperrors.GetCode(err)), err)
		return
	}

	writeJSON(w, http.StatusOK, treeResponse{
		RunID:     result.RunID.String(),
		TreeHash:  result.TreeHash,
		Depth:     result.Tree.Depth(),
		Census:    result.Census,
		Artifacts: result.Artifacts,
		Stats: treeStats{
			ColumnCount: result.Stats.ColumnCount,
			BuildTime:   result.Stats.BuildTime,
			CensusTime:  result.Stats.CensusTime,
			RenderTime:  result.Stats.RenderTime,
		},
		Cached: treeCacheInfo{
			Build:  result.CacheInfo.BuildHit,
			Census: result.CacheInfo.CensusHit,
			Render: result.CacheInfo.RenderHit,
		},
	})
}

// handleFigure renders a single layer figure and returns it as raw SVG.
func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, http.StatusBadRequest,
			apperrors.Wrap(err, apperrors.CodeInvalidScenario, "decode request"))
		return
	}
	opts.Logger = s.logger
	opts.Formats = []string{pipeline.FormatSVG}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, statusForCode(apperrors.GetCode(err)), err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[pipeline.FormatSVG])
}

// statusForCode maps application error codes to HTTP statuses.
func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidColumn, apperrors.CodeInvalidLayer,
		apperrors.CodeInvalidDepth, apperrors.CodeInvalidConstants,
		apperrors.CodeInvalidFormat, apperrors.CodeInvalidScenario:
		return http.StatusBadRequest
	case apperrors.CodeNotFound, apperrors.CodeFileNotFound:
		return http.StatusNotFound
	case apperrors.CodePrecisionLoss:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, status, errorResponse{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
