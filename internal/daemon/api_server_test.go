package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cine/internal/api"
	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/deps"
	"cine/internal/importer"
	"cine/internal/logging"
	"cine/internal/sessions"
	"cine/internal/testsupport"
)

type catalogStub struct {
	series []*catalog.Series
}

func (s *catalogStub) List(context.Context, ...catalog.Status) ([]*catalog.Series, error) {
	return s.series, nil
}

func (s *catalogStub) Stats(context.Context) (map[catalog.Status]int, error) {
	return map[catalog.Status]int{catalog.StatusReady: len(s.series)}, nil
}

func (s *catalogStub) GetByID(context.Context, int64) (*catalog.Series, error) {
	if len(s.series) == 0 {
		return nil, nil
	}
	return s.series[0], nil
}

type serverFixture struct {
	cfg   *config.Config
	store *catalog.Store
	d     *Daemon
	srv   *apiServer
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.API.Enabled = true
	store := testsupport.MustOpenCatalog(t, cfg)
	logger := logging.NewNop()
	registry := sessions.NewRegistry(cfg, store, logger, nil)
	d, err := New(cfg, store, importer.New(cfg, store, logger), registry, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(registry.CloseAll)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	if srv == nil {
		t.Fatal("expected api server when enabled")
	}
	return &serverFixture{cfg: cfg, store: store, d: d, srv: srv}
}

func (f *serverFixture) readySeries(t *testing.T, name string, frames int) *catalog.Series {
	t.Helper()
	frameDir := filepath.Join(f.cfg.Paths.CacheDir, name)
	testsupport.WriteFrames(t, frameDir, frames)
	return testsupport.ReadySeries(t, f.store, filepath.Join(f.cfg.Paths.ImportDir, name+".dcm"), frameDir, frames)
}

func TestAPIServerHandleSeries(t *testing.T) {
	stub := &catalogStub{series: []*catalog.Series{{ID: 1, Title: "Chest CT", Status: catalog.StatusReady}}}
	srv := &apiServer{seriesSvc: api.NewSeriesService(stub)}

	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	w := httptest.NewRecorder()
	srv.handleSeries(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.SeriesListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(resp.Series))
	}
	if resp.Series[0].Title != "Chest CT" {
		t.Fatalf("unexpected title: %q", resp.Series[0].Title)
	}
}

func TestAPIServerSeriesItemNotFound(t *testing.T) {
	srv := &apiServer{seriesSvc: api.NewSeriesService(&catalogStub{})}

	req := httptest.NewRequest(http.MethodGet, "/api/series/42", nil)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	srv.handleSeriesItem(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestNewAPIServerDisabled(t *testing.T) {
	cfgVal := config.Default()
	srv, err := newAPIServer(&cfgVal, &Daemon{}, logging.NewNop())
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil server while API is disabled")
	}

	cfgVal.API.Enabled = true
	cfgVal.API.Bind = "   "
	srv, err = newAPIServer(&cfgVal, &Daemon{}, logging.NewNop())
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil server without a bind address")
	}
}

func TestStatusPayloadMapsFields(t *testing.T) {
	status := Status{
		Running:       true,
		PID:           123,
		Started:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		CatalogDBPath: "/var/lib/cine/catalog.db",
		LockFilePath:  "/var/lib/cine/cine.lock",
		SocketPath:    "/var/lib/cine/cine.sock",
		APIBind:       "127.0.0.1:7717",
		CatalogStats:  map[catalog.Status]int{catalog.StatusReady: 2},
		Dependencies:  []deps.Status{{Name: "DICOM helper", Command: "dicom_tool", Available: true}},
	}

	payload := StatusPayload(status)
	if !payload.Running || payload.PID != 123 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Started != "2025-06-01T10:00:00.000Z" {
		t.Fatalf("started = %q", payload.Started)
	}
	if payload.CatalogStats["ready"] != 2 {
		t.Fatalf("stats = %v", payload.CatalogStats)
	}
	if len(payload.Dependencies) != 1 || payload.Dependencies[0].Name != "DICOM helper" {
		t.Fatalf("dependencies = %+v", payload.Dependencies)
	}
	if payload.SocketPath != "/var/lib/cine/cine.sock" {
		t.Fatalf("socket path = %q", payload.SocketPath)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status?token=secret", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", w.Code)
	}

	passthrough := authMiddleware("", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w = httptest.NewRecorder()
	passthrough(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through without configured token, got %d", w.Code)
	}
}

func TestAPIServerSessionEndpoints(t *testing.T) {
	f := newServerFixture(t)
	mux := f.srv.server.Handler
	series := f.readySeries(t, "ct", 3)

	// Open a session over the API.
	body := strings.NewReader(fmt.Sprintf(`{"seriesId":%d}`, series.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var opened api.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	if opened.Session.SeriesID != series.ID {
		t.Fatalf("session series = %d, want %d", opened.Session.SeriesID, series.ID)
	}

	// The session shows up in the listing.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list sessions: expected 200, got %d", w.Code)
	}
	var listed api.SessionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode session list: %v", err)
	}
	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != opened.Session.ID {
		t.Fatalf("unexpected session list: %+v", listed.Sessions)
	}

	// Snapshot via the state endpoint.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+opened.Session.ID+"/state", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d", w.Code)
	}
	var state api.StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.State.TotalSlices != 3 {
		t.Fatalf("total slices = %d, want 3", state.State.TotalSlices)
	}

	// A goto command moves the current slice.
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+opened.Session.ID+"/commands",
		strings.NewReader(`{"name":"goto","frame":2}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("command: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode command state: %v", err)
	}
	if state.State.CurrentSlice != 2 {
		t.Fatalf("current slice = %d, want 2", state.State.CurrentSlice)
	}

	// Raw frame bytes come back with the loader payload.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+opened.Session.ID+"/frames/1", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("frame: expected 200, got %d", w.Code)
	}
	if w.Body.String() != "frame-1" {
		t.Fatalf("frame payload = %q", w.Body.String())
	}

	// Close the session and confirm it is gone.
	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+opened.Session.ID, nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("close: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+opened.Session.ID+"/state", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("state after close: expected 404, got %d", w.Code)
	}
}

func TestAPIServerRejectsBadCommands(t *testing.T) {
	f := newServerFixture(t)
	mux := f.srv.server.Handler
	series := f.readySeries(t, "mr", 2)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(fmt.Sprintf(`{"seriesId":%d}`, series.ID)))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d", w.Code)
	}
	var opened api.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+opened.Session.ID+"/commands",
		strings.NewReader(`{"name":"warp"}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown command: expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"seriesId":0}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("open without series: expected 400, got %d", w.Code)
	}
}
