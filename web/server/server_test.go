package server

import (
	"bufio"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/df07/go-csg-raytracer/pkg/scene"
)

func newTestServer() *Server {
	return NewServer(0, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %q", resp.Status)
	}
	if resp.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", resp.Workers)
	}
}

func TestScenes(t *testing.T) {
	rec := get(t, newTestServer(), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp scene.ScenesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp.Groups) == 0 || resp.Groups[0].Name != "Built-in Scenes" {
		t.Fatalf("Expected built-in scenes first, got %+v", resp.Groups)
	}

	ids := map[string]bool{}
	for _, info := range resp.Groups[0].Scenes {
		ids[info.ID] = true
	}
	for _, want := range []string{"five-balls", "csg-showcase", "hollow-cube"} {
		if !ids[want] {
			t.Errorf("Missing built-in scene %q", want)
		}
	}
}

func TestSceneConfig(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, "/api/scene-config?scene=five-balls")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SceneConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Name != "Five Balls" {
		t.Errorf("Expected name 'Five Balls', got %q", resp.Name)
	}
	if resp.PrimitiveCount != 5 {
		t.Errorf("Expected 5 primitives, got %d", resp.PrimitiveCount)
	}
	if resp.Defaults != scene.DefaultSamplingConfig() {
		t.Errorf("Expected default sampling config, got %+v", resp.Defaults)
	}
	if limit := resp.Limits["width"]; limit.Min != minImageSize || limit.Max != maxImageSize {
		t.Errorf("Unexpected width limit %+v", limit)
	}

	if rec := get(t, s, "/api/scene-config?scene=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scene, got %d", rec.Code)
	}
}

func TestRender(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name          string
		query         string
		contentType   string
		width, height int
	}{
		{"png", "scene=five-balls&width=32&height=24&samples=2", "image/png", 32, 24},
		{"bmp", "scene=csg-showcase&width=20&height=16&samples=1&format=bmp", "image/bmp", 20, 16},
		{"thumbnail", "width=40&height=20&samples=1&passes=2&thumb=16", "image/png", 16, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/render?"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Expected content type %s, got %s", tt.contentType, got)
			}
			if rec.Header().Get("X-Render-Samples") == "" {
				t.Error("Missing X-Render-Samples header")
			}

			var w, h int
			if tt.contentType == "image/bmp" {
				img, err := bmp.Decode(rec.Body)
				if err != nil {
					t.Fatalf("Invalid BMP: %v", err)
				}
				w, h = img.Bounds().Dx(), img.Bounds().Dy()
			} else {
				img, err := png.Decode(rec.Body)
				if err != nil {
					t.Fatalf("Invalid PNG: %v", err)
				}
				w, h = img.Bounds().Dx(), img.Bounds().Dy()
			}
			if w != tt.width || h != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, w, h)
			}
		})
	}
}

func TestRender_BadRequests(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown scene", "scene=missing", "unknown scene"},
		{"width not a number", "width=abc", "invalid width"},
		{"width too small", "width=8", "width must be between 16 and 2000"},
		{"height too large", "height=5000", "height must be between 16 and 2000"},
		{"zero samples", "samples=0", "samples must be between 1 and 10000"},
		{"bad format", "format=gif", "unsupported image format"},
		{"bad threshold", "adaptiveThreshold=2", "adaptiveThreshold must be between 0 and 0.5"},
		{"NaN threshold", "adaptiveThreshold=NaN", "invalid adaptiveThreshold"},
		{"NaN min samples", "adaptiveMinSamples=nan", "invalid adaptiveMinSamples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/render?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("Expected error containing %q, got %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestInspect(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, "/api/inspect?scene=five-balls&width=64&height=48&x=32&y=24")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Hit {
		t.Fatal("Expected the center pixel to hit the middle ball")
	}
	if resp.Path != "union/0:sphere" {
		t.Errorf("Expected path union/0:sphere, got %q", resp.Path)
	}
	if resp.Attributes["COLOR"] == "" || resp.Attributes["MATERIAL"] == "" {
		t.Errorf("Expected resolved color and material, got %v", resp.Attributes)
	}
	if len(resp.Intervals) != 1 {
		t.Errorf("Expected 1 interval, got %d", len(resp.Intervals))
	}
	if resp.PixelX != 32 || resp.PixelY != 24 || resp.Scene != "five-balls" {
		t.Errorf("Unexpected echo of request: %+v", resp)
	}

	// The top-left corner looks past every ball
	rec = get(t, s, "/api/inspect?scene=five-balls&width=64&height=48&x=0&y=0")
	resp = InspectResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Hit || len(resp.Intervals) != 0 {
		t.Errorf("Expected a miss, got %+v", resp)
	}
}

func TestInspect_BadRequests(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name  string
		query string
	}{
		{"missing x", "width=64&height=48&y=3"},
		{"x out of bounds", "width=64&height=48&x=64&y=3"},
		{"negative y", "width=64&height=48&x=1&y=-1"},
		{"unknown scene", "scene=missing&x=1&y=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(t, s, "/api/inspect?"+tt.query); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

// readEvents splits a Server-Sent Events body into (event, data) pairs
func readEvents(t *testing.T, body string) [][2]string {
	t.Helper()
	var events [][2]string
	var event string
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		} else if v, ok := strings.CutPrefix(line, "data: "); ok {
			events = append(events, [2]string{event, v})
		}
	}
	return events
}

func TestRenderStream(t *testing.T) {
	s := newTestServer()

	q := url.Values{}
	q.Set("scene", "five-balls")
	q.Set("width", "80")
	q.Set("height", "40")
	q.Set("samples", "4")
	q.Set("passes", "2")
	rec := get(t, s, "/api/render/stream?"+q.Encode())

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", got)
	}

	counts := map[string]int{}
	var passes []PassUpdate
	events := readEvents(t, rec.Body.String())
	for _, ev := range events {
		counts[ev[0]]++
		if ev[0] == "passComplete" {
			var update PassUpdate
			if err := json.Unmarshal([]byte(ev[1]), &update); err != nil {
				t.Fatalf("Invalid pass update: %v", err)
			}
			passes = append(passes, update)
		}
	}

	if len(passes) != 2 {
		t.Fatalf("Expected 2 passes, got %d (%v)", len(passes), counts)
	}
	if !passes[1].IsComplete || passes[0].IsComplete {
		t.Errorf("Only the last pass should be complete: %+v", passes)
	}
	if passes[1].MaxSamples != 4 || passes[1].PrimitiveCount != 5 {
		t.Errorf("Unexpected final pass %+v", passes[1])
	}
	if counts["tile"] == 0 {
		t.Error("Expected tile events")
	}
	if last := events[len(events)-1]; last[0] != "complete" {
		t.Errorf("Expected the stream to end with complete, got %s", last[0])
	}
	if counts["error"] != 0 {
		t.Errorf("Unexpected error events: %v", counts)
	}
}

func TestRenderStream_InvalidRequest(t *testing.T) {
	rec := get(t, newTestServer(), "/api/render/stream?scene=missing")

	events := readEvents(t, rec.Body.String())
	if len(events) != 1 || events[0][0] != "error" {
		t.Fatalf("Expected a single error event, got %v", events)
	}
	if !strings.Contains(events[0][1], "unknown scene") {
		t.Errorf("Unexpected error %q", events[0][1])
	}
}

func TestParseIntParam(t *testing.T) {
	values := url.Values{"n": {"12"}, "bad": {"x"}}

	if v, err := parseIntParam(values, "n", 1, 0, 20); err != nil || v != 12 {
		t.Errorf("Expected 12, got %d (%v)", v, err)
	}
	if v, err := parseIntParam(values, "missing", 7, 0, 20); err != nil || v != 7 {
		t.Errorf("Expected default 7, got %d (%v)", v, err)
	}
	if _, err := parseIntParam(values, "n", 1, 0, 10); err == nil {
		t.Error("Expected range error")
	}
	if _, err := parseIntParam(values, "bad", 1, 0, 10); err == nil {
		t.Error("Expected parse error")
	}
}

func TestParseFloatParam(t *testing.T) {
	values := url.Values{"f": {"0.25"}}

	if v, err := parseFloatParam(values, "f", 1, 0, 1); err != nil || v != 0.25 {
		t.Errorf("Expected 0.25, got %g (%v)", v, err)
	}
	if v, err := parseFloatParam(values, "missing", 0.5, 0, 1); err != nil || v != 0.5 {
		t.Errorf("Expected default 0.5, got %g (%v)", v, err)
	}
	if _, err := parseFloatParam(values, "f", 1, 0.5, 1); err == nil {
		t.Error("Expected range error")
	}
	if _, err := parseFloatParam(url.Values{"f": {"NaN"}}, "f", 1, 0, 1); err == nil {
		t.Error("Expected NaN to be rejected")
	}
}
