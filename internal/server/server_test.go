package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"logpanel/internal/auth"
	"logpanel/internal/dashboard"
	"logpanel/internal/demo"
	"logpanel/internal/filter"
	"logpanel/internal/logger"
	"logpanel/internal/model"
	"logpanel/internal/panel"
	"logpanel/internal/store"
)

var testNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*Options)) (*Server, *store.Store) {
	t.Helper()
	logs := store.New(100)
	ctrl := panel.New(logs, filter.New(), panel.DefaultConfig())
	t.Cleanup(ctrl.Detach)

	opts := Options{
		Controller: ctrl,
		RateLimit:  600,
		Burst:      50,
		Location:   time.UTC,
		Logger:     logger.Discard(),
		Now:        func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts), logs
}

func do(t *testing.T, s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seed(logs *store.Store) {
	logs.Info("Server started", &model.CreateOptions{Category: "System", Source: "Main"})
	logs.Warn("disk almost full", &model.CreateOptions{Category: "System", Source: "Monitor"})
	logs.Error("login failed", &model.CreateOptions{Category: "Auth", Source: "Login"})
}

func TestListLogsFilters(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)

	rec := do(t, s, http.MethodGet, "/api/logs?level=warn,error&category=System", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Logs  []model.LogEntry `json:"logs"`
		Count int              `json:"count"`
		Total int              `json:"total"`
	}
	decode(t, rec, &got)
	if got.Count != 1 || got.Total != 3 || got.Logs[0].Message != "disk almost full" {
		t.Fatalf("unexpected response: %#v", got)
	}

	rec = do(t, s, http.MethodGet, "/api/logs?latest=2", "")
	decode(t, rec, &got)
	if got.Count != 2 || got.Logs[1].Message != "login failed" {
		t.Fatalf("latest should keep the newest entries: %#v", got)
	}

	if rec := do(t, s, http.MethodGet, "/api/logs?level=fatal", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown level, got %d", rec.Code)
	}
}

func TestCreateLogs(t *testing.T) {
	s, logs := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/logs", `{"level":"warn","message":"slow query","category":"DB"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var entry model.LogEntry
	decode(t, rec, &entry)
	if entry.ID == "" || entry.Level != model.LevelWarn || entry.Source != model.DefaultSource {
		t.Fatalf("unexpected created entry: %#v", entry)
	}

	rec = do(t, s, http.MethodPost, "/api/logs", `[{"level":"info","message":"a"},{"level":"info"}]`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var batch struct {
		Count    int      `json:"count"`
		Warnings []string `json:"warnings"`
	}
	decode(t, rec, &batch)
	if batch.Count != 1 || len(batch.Warnings) != 1 {
		t.Fatalf("unexpected batch response: %#v", batch)
	}
	if logs.LogCount() != 2 {
		t.Fatalf("expected 2 buffered entries, got %d", logs.LogCount())
	}

	if rec := do(t, s, http.MethodPost, "/api/logs", `{"level":"info"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for record without message, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/logs", `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}
}

func TestCreateLogsRateLimited(t *testing.T) {
	s, _ := newTestServer(t, func(o *Options) {
		o.RateLimit = 1
		o.Burst = 1
	})

	body := `{"level":"info","message":"x"}`
	if rec := do(t, s, http.MethodPost, "/api/logs", body); rec.Code != http.StatusCreated {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/logs", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate limit exceeded") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateLogsBodyTooLarge(t *testing.T) {
	s, logs := newTestServer(t, func(o *Options) { o.MaxBodyBytes = 16 })

	rec := do(t, s, http.MethodPost, "/api/logs", `{"level":"info","message":"well over sixteen bytes"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if logs.LogCount() != 0 {
		t.Fatalf("oversized body should not add entries, got %d", logs.LogCount())
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	rl := newRateLimiter(60, 1)
	rl.now = func() time.Time { return now }

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	if rl.size() != 2 {
		t.Fatalf("expected 2 limiters, got %d", rl.size())
	}

	now = now.Add(limiterTTL / 2)
	rl.get("10.0.0.2")
	now = now.Add(limiterTTL * 3 / 4)
	rl.get("10.0.0.3")
	if rl.size() != 2 {
		t.Fatalf("expected idle client swept, got %d limiters", rl.size())
	}

	now = now.Add(2 * limiterTTL)
	rl.get("10.0.0.3")
	if rl.size() != 1 {
		t.Fatalf("expected only the active client, got %d limiters", rl.size())
	}
}

func TestRemoveAndClearLogs(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)
	id := logs.Logs()[0].ID

	if rec := do(t, s, http.MethodDelete, "/api/logs/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/logs/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("removing twice should 404, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/logs", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if logs.LogCount() != 0 {
		t.Fatalf("buffer should be empty")
	}
}

func TestStatsAndOptions(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)

	var stats map[string]int
	decode(t, do(t, s, http.MethodGet, "/api/logs/stats", ""), &stats)
	if stats["total"] != 3 || stats["warn"] != 1 || stats["debug"] != 0 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	var options struct {
		Categories []string `json:"categories"`
		Sources    []string `json:"sources"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/logs/options", ""), &options)
	if strings.Join(options.Categories, ",") != "Auth,System" || len(options.Sources) != 3 {
		t.Fatalf("unexpected options: %#v", options)
	}
}

func TestExportDownload(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)

	rec := do(t, s, http.MethodGet, "/api/logs/export?format=csv&levels=error", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="logs_2025-10-01_12-00-00.csv"` {
		t.Fatalf("unexpected disposition: %s", got)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], `"login failed"`) {
		t.Fatalf("unexpected csv: %q", rec.Body.String())
	}

	if rec := do(t, s, http.MethodGet, "/api/logs/export?format=xml", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestExportFilteredUsesPanelFilter(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)
	s.ctrl.Filter().SetKeywordFilter("disk")

	rec := do(t, s, http.MethodGet, "/api/logs/export?format=json&filtered=true", "")
	var entries []model.LogEntry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].Message != "disk almost full" {
		t.Fatalf("unexpected filtered export: %#v", entries)
	}
}

func TestPanelEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/panel", `{"action":"toggle","config":{"width":600}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var state panel.State
	decode(t, rec, &state)
	if !state.Open || state.Config.Width != 600 {
		t.Fatalf("unexpected state: %#v", state)
	}

	if rec := do(t, s, http.MethodPost, "/api/panel", `{"action":"explode"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/panel", `{"config":{"maxLogs":0}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid max logs, got %d", rec.Code)
	}
}

func TestMenu(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var got struct {
		Groups []struct {
			Category string `json:"category"`
		} `json:"groups"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/menu?category=true", ""), &got)
	if len(got.Groups) == 0 {
		t.Fatalf("expected grouped menu")
	}
}

func TestDashboardRequiresToken(t *testing.T) {
	svc := auth.New(auth.WithDelay(0), auth.WithSecret([]byte("test-secret")), auth.WithLogger(logger.Discard()))
	s, _ := newTestServer(t, func(o *Options) {
		o.Auth = svc
		o.RequireAuth = true
		o.Dashboard = dashboard.New(dashboard.WithLogger(logger.Discard()))
	})

	if rec := do(t, s, http.MethodGet, "/api/dashboard", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/login", `{"email":"a@b.c","password":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp auth.Response
	decode(t, rec, &resp)

	rec = do(t, s, http.MethodGet, "/api/dashboard", "", "Authorization", "Bearer "+resp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
	var view dashboard.View
	decode(t, rec, &view)
	if len(view.Stats) != 4 {
		t.Fatalf("unexpected dashboard view: %#v", view)
	}

	if rec := do(t, s, http.MethodPost, "/api/login", `{"email":"","password":""}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("empty form should be rejected, got %d", rec.Code)
	}
}

func TestDemoEndpoints(t *testing.T) {
	s, logs := newTestServer(t, nil)
	d := demo.New(logs, demo.WithLogger(logger.Discard()), demo.WithPanel(s.ctrl))
	t.Cleanup(d.Close)
	s.opts.Demo = d
	s.engine = s.routes()

	if rec := do(t, s, http.MethodPost, "/api/demo/samples/system", ""); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if logs.LogCount() == 0 {
		t.Fatal("sample logs should be generated")
	}
	if rec := do(t, s, http.MethodPost, "/api/demo/samples/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sample, got %d", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/demo/mode", `{"mode":"advanced"}`)
	var state demo.State
	decode(t, rec, &state)
	if state.CurrentMode != demo.ModeAdvanced || s.ctrl.Config().MaxLogs != 500 {
		t.Fatalf("unexpected demo state: %#v", state)
	}
	if rec := do(t, s, http.MethodPost, "/api/demo/mode", `{"mode":"chaos"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, logs := newTestServer(t, nil)
	seed(logs)
	do(t, s, http.MethodPost, "/api/logs", `{"level":"error","message":"x"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`logpanel_logs_added_total{level="error"} 1`,
		"logpanel_buffer_entries 4",
		`logpanel_http_requests_total{method="POST",path="/api/logs",status="201"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
