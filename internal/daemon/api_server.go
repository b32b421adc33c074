package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"cine/internal/api"
	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/logging"
	"cine/internal/services"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	seriesSvc *api.SeriesService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	if !cfg.API.Enabled {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logger,
		daemon:    d,
		seriesSvc: api.NewSeriesService(d.Store()),
	}

	token := strings.TrimSpace(cfg.API.Token)
	mux := http.NewServeMux()
	handle := func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, authMiddleware(token, handler))
	}
	handle("GET /api/status", srv.handleStatus)
	handle("GET /api/series", srv.handleSeries)
	handle("GET /api/series/{id}", srv.handleSeriesItem)
	handle("GET /api/sessions", srv.handleSessions)
	handle("POST /api/sessions", srv.handleSessionOpen)
	handle("DELETE /api/sessions/{id}", srv.handleSessionClose)
	handle("GET /api/sessions/{id}/state", srv.handleSessionState)
	handle("POST /api/sessions/{id}/commands", srv.handleSessionCommand)
	handle("GET /api/sessions/{id}/frames/{index}", srv.handleSessionFrame)
	handle("GET /api/sessions/{id}/events", srv.handleSessionEvents)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// StatusPayload converts daemon status into its API representation. The IPC
// server reuses it so both surfaces report identical shapes.
func StatusPayload(status Status) api.DaemonStatus {
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		Started:       api.FormatTime(status.Started),
		CatalogDBPath: status.CatalogDBPath,
		LockFilePath:  status.LockFilePath,
		SocketPath:    status.SocketPath,
		APIBind:       status.APIBind,
		MediaWatching: status.MediaWatching,
		CatalogStats:  api.MergeCatalogStats(status.CatalogStats),
		Sessions:      api.FromSessions(status.Sessions),
		Dependencies:  deps,
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusPayload(s.daemon.Status(r.Context())))
}

func (s *apiServer) handleSeries(w http.ResponseWriter, r *http.Request) {
	if s.seriesSvc == nil {
		s.writeJSON(w, http.StatusOK, api.SeriesListResponse{Series: nil})
		return
	}
	var statuses []catalog.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, catalog.Status(trimmed))
	}

	items, err := s.seriesSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SeriesListResponse{Series: items})
}

func (s *apiServer) handleSeriesItem(w http.ResponseWriter, r *http.Request) {
	if s.seriesSvc == nil {
		s.writeError(w, http.StatusNotFound, "series not found")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}
	series, err := s.seriesSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	if series == nil {
		s.writeError(w, http.StatusNotFound, "series not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SeriesResponse{Series: *series})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: api.FromSessions(s.daemon.Sessions())})
}

func (s *apiServer) handleSessionOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SeriesID int64 `json:"seriesId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SeriesID <= 0 {
		s.writeError(w, http.StatusBadRequest, "seriesId is required")
		return
	}
	session, err := s.daemon.OpenSession(r.Context(), req.SeriesID)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *apiServer) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.CloseSession(r.PathValue("id")); err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleSessionState(w http.ResponseWriter, r *http.Request) {
	session, err := s.daemon.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateResponse{State: api.FromSnapshot(session.Engine().Snapshot())})
}

func (s *apiServer) handleSessionCommand(w http.ResponseWriter, r *http.Request) {
	session, err := s.daemon.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	var cmd api.PlaybackCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := api.ApplyCommand(session.Engine(), cmd)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StateResponse{State: state})
}

func (s *apiServer) handleSessionFrame(w http.ResponseWriter, r *http.Request) {
	session, err := s.daemon.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid frame index")
		return
	}
	data, err := session.Engine().Frame(r.Context(), index)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
