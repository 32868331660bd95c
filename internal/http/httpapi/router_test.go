package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"wallpaper/internal/domain"
	"wallpaper/internal/http/handlers"
	"wallpaper/internal/metrics"
	"wallpaper/internal/orchestrator"
)

const waitTimeout = 2 * time.Second

// gateGenerator holds each cycle until the test sends the prompt text.
type gateGenerator struct {
	prompts chan string
}

func (g *gateGenerator) GeneratePromptText(ctx context.Context, category string, opts domain.PromptOptions) (string, error) {
	select {
	case text := <-g.prompts:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gateGenerator) GenerateImage(ctx context.Context, prompt string, aspect domain.AspectRatio) (domain.ImageHandle, error) {
	return domain.ImageHandle{MIMEType: "image/png", Data: []byte("png:" + prompt + ":" + string(aspect))}, nil
}

type fixture struct {
	t       *testing.T
	gen     *gateGenerator
	orch    *orchestrator.Orchestrator
	handler http.Handler
}

func newFixture(t *testing.T, rateLimit int) *fixture {
	t.Helper()
	gen := &gateGenerator{prompts: make(chan string)}
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New returned error: %v", err)
	}
	orch, err := orchestrator.New(orchestrator.Options{Generator: gen, Metrics: collector})
	if err != nil {
		t.Fatalf("orchestrator.New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = orch.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-orch.Done()
	})

	logger := zerolog.Nop()
	app := handlers.NewApp(orch, &logger)
	app.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	h := NewRouter(app, Config{
		CORSOrigins:     []string{"http://localhost:5173"},
		RateLimitPerMin: rateLimit,
		Metrics:         metrics.Handler(reg),
		Logger:          logger,
	})
	return &fixture{t: t, gen: gen, orch: orch, handler: h}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// finishCycle lets the pending cycle complete and waits until it is committed.
func (f *fixture) finishCycle(text string) {
	f.t.Helper()
	before := f.orch.Snapshot().Version
	select {
	case f.gen.prompts <- text:
	case <-time.After(waitTimeout):
		f.t.Fatal("no cycle waiting for a prompt")
	}
	deadline := time.Now().Add(waitTimeout)
	for {
		s := f.orch.Snapshot()
		if !s.IsLoading && s.Version > before {
			return
		}
		if time.Now().After(deadline) {
			f.t.Fatal("cycle did not finish")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stateBody struct {
	Current *struct {
		ID       string `json:"id"`
		Prompt   string `json:"prompt"`
		ImageURL string `json:"image_url"`
	} `json:"current"`
	IsLoading        bool `json:"is_loading"`
	IsPaused         bool `json:"is_paused"`
	CountdownSeconds int  `json:"countdown_seconds"`
	Error            *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	Selection domain.GenerationRequestParams `json:"selection"`
	History   []struct {
		ID           string `json:"id"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"history"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndOptions(t *testing.T) {
	f := newFixture(t, 0)
	if rec := f.do(http.MethodGet, "/v1/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec := f.do(http.MethodGet, "/v1/options", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("options status = %d", rec.Code)
	}
	opts := decode[struct {
		Categories   []string `json:"categories"`
		DetailLevels []struct {
			Level int    `json:"level"`
			Label string `json:"label"`
		} `json:"detail_levels"`
		CycleSeconds int `json:"cycle_seconds"`
	}](t, rec)
	if len(opts.Categories) != 6 || opts.Categories[2] != "Sci-Fi" {
		t.Fatalf("categories = %v", opts.Categories)
	}
	if len(opts.DetailLevels) != 5 || opts.DetailLevels[4].Label != "Intricate" || opts.CycleSeconds != 60 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestControlsWhileLoadingReturnConflict(t *testing.T) {
	f := newFixture(t, 0)
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/v1/pause", ""},
		{http.MethodPost, "/v1/regenerate", ""},
		{http.MethodPatch, "/v1/selection", `{"category":"Animals"}`},
		{http.MethodPost, "/v1/history/whatever/select", ""},
		{http.MethodGet, "/v1/wallpaper/download", ""},
	} {
		rec := f.do(tc.method, tc.path, tc.body)
		if rec.Code != http.StatusConflict {
			t.Fatalf("%s %s status = %d, want 409", tc.method, tc.path, rec.Code)
		}
		if body := decode[errorBody](t, rec); body.Error.Code != "loading" {
			t.Fatalf("%s %s error code = %q", tc.method, tc.path, body.Error.Code)
		}
	}
	if rec := f.do(http.MethodGet, "/v1/wallpaper/image", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("image before first cycle status = %d, want 404", rec.Code)
	}
}

func TestStateAndImagesAfterCycle(t *testing.T) {
	f := newFixture(t, 0)
	f.finishCycle(`A  city/of\lights?`)

	state := decode[stateBody](t, f.do(http.MethodGet, "/v1/state", ""))
	if state.Current == nil || state.Current.Prompt != `A  city/of\lights?` || state.IsLoading {
		t.Fatalf("state = %+v", state)
	}
	if len(state.History) != 1 || state.History[0].ThumbnailURL != "/v1/history/"+state.Current.ID+"/image" {
		t.Fatalf("history = %+v", state.History)
	}

	img := f.do(http.MethodGet, "/v1/wallpaper/image", "")
	if img.Code != http.StatusOK || img.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d, type = %q", img.Code, img.Header().Get("Content-Type"))
	}
	if !strings.HasSuffix(img.Body.String(), ":16:9") {
		t.Fatalf("image body = %q", img.Body.String())
	}

	dl := f.do(http.MethodGet, "/v1/wallpaper/download", "")
	want := `attachment; filename="A_city_of_lights_20240101120000.png"`
	if dl.Code != http.StatusOK || dl.Header().Get("Content-Disposition") != want {
		t.Fatalf("download status = %d, disposition = %q", dl.Code, dl.Header().Get("Content-Disposition"))
	}

	thumb := f.do(http.MethodGet, state.History[0].ThumbnailURL, "")
	if thumb.Code != http.StatusOK || thumb.Body.String() != img.Body.String() {
		t.Fatalf("thumbnail status = %d", thumb.Code)
	}
	req := httptest.NewRequest(http.MethodGet, state.History[0].ThumbnailURL, nil)
	req.Header.Set("If-None-Match", thumb.Header().Get("ETag"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("conditional thumbnail status = %d, want 304", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/v1/history/missing/image", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing thumbnail status = %d", rec.Code)
	}
}

func TestSelectionEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	f.finishCycle("first")

	for _, body := range []string{"", "{}", `{"size":"Tablet"}`, `{"detail_level":9}`, `{"colour":"red"}`, `not json`} {
		rec := f.do(http.MethodPatch, "/v1/selection", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("PATCH %q status = %d, want 400", body, rec.Code)
		}
	}

	rec := f.do(http.MethodPatch, "/v1/selection", `{"category":"cityscapes","size":"Phone","detail_level":1}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("PATCH status = %d, body %s", rec.Code, rec.Body.String())
	}
	state := decode[stateBody](t, rec)
	if !state.IsLoading || state.Selection.Category != "Cityscapes" || state.Selection.Size != domain.SizePhone || state.Selection.DetailLevel != 1 {
		t.Fatalf("state = %+v", state)
	}
	f.finishCycle("second")
	if img := f.do(http.MethodGet, "/v1/wallpaper/image", ""); !strings.HasSuffix(img.Body.String(), ":9:16") {
		t.Fatalf("phone selection should request portrait: %q", img.Body.String())
	}
}

func TestPauseAndHistorySelection(t *testing.T) {
	f := newFixture(t, 0)
	f.finishCycle("first")
	firstID := f.orch.Snapshot().Current.ID

	if rec := f.do(http.MethodPost, "/v1/regenerate", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("regenerate status = %d", rec.Code)
	}
	f.finishCycle("second")

	rec := f.do(http.MethodPost, "/v1/history/"+firstID+"/select", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}
	state := decode[stateBody](t, rec)
	if state.Current == nil || state.Current.ID != firstID || !state.IsPaused || len(state.History) != 2 {
		t.Fatalf("state = %+v", state)
	}
	if rec := f.do(http.MethodPost, "/v1/history/unknown/select", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown select status = %d", rec.Code)
	}

	state = decode[stateBody](t, f.do(http.MethodPost, "/v1/pause", ""))
	if state.IsPaused {
		t.Fatal("pause toggle should resume")
	}
}

func TestControlsAreRateLimited(t *testing.T) {
	f := newFixture(t, 1)
	f.finishCycle("first")
	if rec := f.do(http.MethodPost, "/v1/pause", ""); rec.Code != http.StatusOK {
		t.Fatalf("first pause status = %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/v1/pause", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second pause status = %d, want 429", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/v1/state", ""); rec.Code != http.StatusOK {
		t.Fatalf("state should not be rate limited, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	f.finishCycle("measured")
	rec := f.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `wallpaper_cycles_started_total{trigger="startup"} 1`) {
		t.Fatalf("metrics status = %d body:\n%s", rec.Code, rec.Body.String())
	}
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t, 0)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /v1/events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan stateBody, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var s stateBody
				if json.Unmarshal([]byte(data), &s) == nil {
					events <- s
				}
			}
		}
	}()

	next := func() stateBody {
		select {
		case s, ok := <-events:
			if !ok {
				t.Fatal("event stream closed")
			}
			return s
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for event")
		}
		return stateBody{}
	}

	if first := next(); !first.IsLoading {
		t.Fatalf("first event = %+v", first)
	}
	f.gen.prompts <- "streamed"
	for {
		s := next()
		if !s.IsLoading && s.Current != nil {
			if s.Current.Prompt != "streamed" {
				t.Fatalf("event current = %+v", s.Current)
			}
			return
		}
	}
}
