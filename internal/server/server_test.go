package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(pipeline.NewRunner(nil, nil, nil), nil, "")
}

func postTrees(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trees", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.Version == "" {
		t.Error("version is empty")
	}
}

func TestTrees(t *testing.T) {
	s := newTestServer(t)

	rec := postTrees(t, s, pipeline.Options{
		Root: &simpson.Layer{
			Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
			Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
		},
		Depth:   3,
		Formats: []string{"json", "txt", "dot"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp treeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("run_id is empty")
	}
	if resp.TreeHash == "" {
		t.Error("tree_hash is empty")
	}
	if resp.Depth != 3 {
		t.Errorf("depth = %d, want 3", resp.Depth)
	}
	if resp.Stats.ColumnCount != 14 {
		t.Errorf("column_count = %d, want 14", resp.Stats.ColumnCount)
	}
	if resp.Census == nil {
		t.Error("census missing for txt format")
	}
	for _, format := range []string{"json", "txt", "dot"} {
		if len(resp.Artifacts[format]) == 0 {
			t.Errorf("artifact %q is empty", format)
		}
	}
	if !strings.HasPrefix(string(resp.Artifacts["dot"]), "digraph") {
		t.Errorf("dot artifact does not start with digraph: %q", resp.Artifacts["dot"][:20])
	}
}

func TestTreesSkipsCensus(t *testing.T) {
	s := newTestServer(t)

	rec := postTrees(t, s, pipeline.Options{
		Root: &simpson.Layer{
			Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
			Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
		},
		Depth:   2,
		Formats: []string{"json"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp treeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Census != nil {
		t.Error("census computed for json-only request")
	}
}

func TestTreesErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		opts pipeline.Options
		want int
		code string
	}{
		{
			name: "missing root",
			opts: pipeline.Options{Depth: 3, Formats: []string{"json"}},
			want: http.StatusBadRequest,
			code: "INVALID_LAYER",
		},
		{
			name: "depth out of range",
			opts: pipeline.Options{
				Root: &simpson.Layer{
					Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
					Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
				},
				Depth:   99,
				Formats: []string{"json"},
			},
			want: http.StatusBadRequest,
			code: "INVALID_DEPTH",
		},
		{
			name: "unknown format",
			opts: pipeline.Options{
				Root: &simpson.Layer{
					Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
					Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
				},
				Depth:   2,
				Formats: []string{"gif"},
			},
			want: http.StatusBadRequest,
			code: "INVALID_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postTrees(t, s, tt.opts)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if resp.Message == "" {
				t.Error("message is empty")
			}
		})
	}
}

func TestFigure(t *testing.T) {
	s := newTestServer(t)

	data, err := json.Marshal(pipeline.Options{
		Root: &simpson.Layer{
			Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
			Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
		},
		Depth: 3,
		Layer: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/figures", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want image/svg+xml", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("response is not SVG")
	}
}

func TestTreesMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trees", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
