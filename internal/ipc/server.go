package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"cine/internal/api"
	"cine/internal/catalog"
	"cine/internal/daemon"
	"cine/internal/logging"
	"cine/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the IPC socket at path and registers the RPC service. Any
// stale socket file from a previous run is removed first.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires a daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("clear stale socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Cine", newService(ctx, d, logger)); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc handlers: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("socket accept failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "ipc_accept_failed"),
				logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
				logging.String(logging.FieldErrorHint, "check socket permissions, restart the daemon if needed"))
			continue
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
}

// Close stops accepting connections, waits for in-flight requests, and
// removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("socket cleanup failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun cine stop"))
	}
}

// service implements the RPC method set. Every exported method follows the
// net/rpc convention: request by value, response by pointer.
type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func newService(ctx context.Context, d *daemon.Daemon, logger *slog.Logger) *service {
	return &service{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "ipc"),
		ctx:    ctx,
	}
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	payload := daemon.StatusPayload(s.daemon.Status(s.ctx))
	resp.Running = payload.Running
	resp.PID = payload.PID
	resp.Started = payload.Started
	resp.CatalogDBPath = payload.CatalogDBPath
	resp.LockPath = payload.LockFilePath
	resp.SocketPath = payload.SocketPath
	resp.APIBind = payload.APIBind
	resp.MediaWatching = payload.MediaWatching
	resp.CatalogStats = payload.CatalogStats
	resp.Sessions = payload.Sessions
	resp.Dependencies = payload.Dependencies
	return nil
}

func (s *service) SeriesList(req SeriesListRequest, resp *SeriesListResponse) error {
	var statuses []catalog.Status
	for _, raw := range req.Statuses {
		if status, ok := catalog.ParseStatus(raw); ok {
			statuses = append(statuses, status)
		}
	}
	series, err := s.daemon.ListSeries(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Series = api.FromSeriesList(series)
	return nil
}

func (s *service) SeriesDescribe(req SeriesDescribeRequest, resp *SeriesDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid series id %d", req.ID)
	}
	series, err := s.daemon.GetSeries(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if series == nil {
		return fmt.Errorf("series %d not found", req.ID)
	}
	resp.Series = api.FromSeries(series)
	return nil
}

func (s *service) SeriesImport(req SeriesImportRequest, resp *SeriesImportResponse) error {
	if len(req.Paths) == 0 {
		return errors.New("series import requires at least one path")
	}
	s.logger.Debug("series import requested", logging.Int("path_count", len(req.Paths)))
	result, err := api.ImportPaths(s.ctx, s.daemon, req.Paths)
	if err != nil {
		return err
	}
	resp.ImportedCount = result.ImportedCount
	resp.Items = result.Items
	s.logger.Info("series import finished",
		logging.String(logging.FieldEventType, "series_import"),
		logging.Int("imported_count", result.ImportedCount))
	return nil
}

func (s *service) SeriesRemove(req SeriesRemoveRequest, resp *SeriesRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("series remove requires at least one id")
	}
	s.logger.Debug("series remove requested", logging.Int("id_count", len(req.IDs)))
	result, err := api.RemoveSeriesByID(s.ctx, s.daemon.Store(), s.daemon.SeriesInUse, req.KeepFrames, req.IDs)
	if err != nil {
		return err
	}
	resp.RemovedCount = result.RemovedCount
	resp.Items = result.Items
	s.logger.Info("series removed",
		logging.String(logging.FieldEventType, "series_remove"),
		logging.Int64("removed_count", result.RemovedCount))
	return nil
}

func (s *service) SeriesReimport(req SeriesReimportRequest, resp *SeriesReimportResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid series id %d", req.ID)
	}
	s.logger.Debug("series reimport requested", logging.Int64(logging.FieldSeriesID, req.ID))
	series, err := s.daemon.Reimport(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Series = api.FromSeries(series)
	return nil
}

func (s *service) SeriesScan(_ SeriesScanRequest, resp *SeriesScanResponse) error {
	s.logger.Debug("inbox scan requested")
	imported, err := s.daemon.ScanInbox(s.ctx)
	if err != nil {
		return err
	}
	resp.Imported = api.FromSeriesList(imported)
	s.logger.Info("inbox scan finished",
		logging.String(logging.FieldEventType, "inbox_scan"),
		logging.Int("imported_count", len(imported)))
	return nil
}

func (s *service) SessionOpen(req SessionOpenRequest, resp *SessionOpenResponse) error {
	if req.SeriesID <= 0 {
		return fmt.Errorf("invalid series id %d", req.SeriesID)
	}
	session, err := s.daemon.OpenSession(s.ctx, req.SeriesID)
	if err != nil {
		return err
	}
	resp.Session = api.FromSession(session)
	return nil
}

func (s *service) SessionClose(req SessionCloseRequest, resp *SessionCloseResponse) error {
	if err := s.daemon.CloseSession(req.ID); err != nil {
		return err
	}
	resp.Closed = true
	return nil
}

func (s *service) SessionList(_ SessionListRequest, resp *SessionListResponse) error {
	resp.Sessions = api.FromSessions(s.daemon.Sessions())
	return nil
}

func (s *service) SessionState(req SessionStateRequest, resp *SessionStateResponse) error {
	session, err := s.daemon.Session(req.ID)
	if err != nil {
		return err
	}
	resp.State = api.FromSnapshot(session.Engine().Snapshot())
	return nil
}

func (s *service) SessionEvents(req SessionEventsRequest, resp *SessionEventsResponse) error {
	session, err := s.daemon.Session(req.ID)
	if err != nil {
		return err
	}

	wait := time.Duration(req.WaitMillis) * time.Millisecond
	ctx := s.ctx
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}

	events, next, err := session.Events(ctx, req.Since, req.Limit, wait > 0)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Events = make([]SessionEvent, 0, len(events))
	for _, entry := range events {
		dto := api.FromEvent(entry.Event)
		resp.Events = append(resp.Events, SessionEvent{
			Sequence: entry.Sequence,
			Type:     dto.Type,
			Index:    dto.Index,
			Edge:     dto.Edge,
		})
	}
	resp.Next = next
	return nil
}

func (s *service) SessionFrame(req SessionFrameRequest, resp *SessionFrameResponse) error {
	session, err := s.daemon.Session(req.ID)
	if err != nil {
		return err
	}
	data, err := session.Engine().Frame(s.ctx, req.Index)
	if err != nil {
		return err
	}
	resp.Index = req.Index
	resp.Data = data
	return nil
}

func (s *service) Command(req CommandRequest, resp *CommandResponse) error {
	session, err := s.daemon.Session(req.SessionID)
	if err != nil {
		return err
	}
	state, err := api.ApplyCommand(session.Engine(), req.Command)
	if err != nil {
		return err
	}
	resp.State = state
	return nil
}

func (s *service) Input(req InputRequest, resp *InputResponse) error {
	session, err := s.daemon.Session(req.SessionID)
	if err != nil {
		return err
	}
	if err := api.ApplyInput(session.Engine(), req.Event); err != nil {
		return err
	}
	resp.State = api.FromSnapshot(session.Engine().Snapshot())
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}

	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if req.Follow && wait <= 0 {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}

	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	switch {
	case err == nil:
		resp.Lines = result.Lines
		resp.Offset = result.Offset
		return nil
	case errors.Is(err, context.Canceled):
		resp.Offset = result.Offset
		return nil
	default:
		return err
	}
}
