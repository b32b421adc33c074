package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/deps"
	"cine/internal/importer"
	"cine/internal/logging"
	"cine/internal/preflight"
	"cine/internal/sessions"
)

// Daemon coordinates the long-running cine process and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	importer *importer.Importer
	sessions *sessions.Registry
	logPath  string

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	monitor *mediaMonitor

	mu      sync.Mutex
	started time.Time

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Started       time.Time
	CatalogDBPath string
	LockFilePath  string
	SocketPath    string
	APIBind       string
	MediaWatching bool
	CatalogStats  map[catalog.Status]int
	Sessions      []*sessions.Session
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, imp *importer.Importer, registry *sessions.Registry, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || imp == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, importer, sessions, and logger")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		importer: imp,
		sessions: registry,
		logPath:  filepath.Join(cfg.Paths.LogDir, "cine.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and brings up the daemon surfaces.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cine daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	api, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.abortStart()
		return fmt.Errorf("configure api server: %w", err)
	}
	d.api = api
	if err := d.api.start(d.ctx); err != nil {
		d.api = nil
		d.abortStart()
		return fmt.Errorf("start api server: %w", err)
	}

	monitor := newMediaMonitor(d.cfg, d.logger, d.scanInbox)
	if monitor != nil {
		if err := monitor.Start(d.ctx); err != nil {
			d.logger.Warn("media monitor failed to start", logging.Error(err))
			monitor = nil
		}
	}

	for _, dep := range preflight.CheckSystemDeps(d.ctx, d.cfg) {
		if dep.Available || dep.Optional {
			continue
		}
		d.logger.Warn("required dependency unavailable",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "imports will fail until the binary is installed"),
		)
	}

	d.mu.Lock()
	d.monitor = monitor
	d.started = time.Now().UTC()
	d.mu.Unlock()

	d.running.Store(true)
	d.logger.Info("cine daemon started", logging.String("lock", d.lockPath))

	// Catch files dropped into the inbox while the daemon was down.
	go d.startupScan(d.ctx)
	return nil
}

func (d *Daemon) abortStart() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
}

func (d *Daemon) startupScan(ctx context.Context) {
	imported, err := d.importer.ScanInbox(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("startup inbox scan failed", logging.Error(err))
		return
	}
	if len(imported) > 0 {
		d.logger.Info("startup inbox scan imported series", logging.Int("imported", len(imported)))
	}
}

// Stop closes open sessions, shuts down the surfaces, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Lock()
	monitor := d.monitor
	d.monitor = nil
	d.mu.Unlock()
	if monitor != nil {
		monitor.Stop()
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	d.sessions.CloseAll()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("cine daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListSeries returns catalog series filtered by optional statuses.
func (d *Daemon) ListSeries(ctx context.Context, statuses []catalog.Status) ([]*catalog.Series, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetSeries returns a single catalog series, nil when absent.
func (d *Daemon) GetSeries(ctx context.Context, id int64) (*catalog.Series, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// CatalogStats returns per-status series counts.
func (d *Daemon) CatalogStats(ctx context.Context) (map[catalog.Status]int, error) {
	if d.store == nil {
		return nil, errors.New("catalog store unavailable")
	}
	return d.store.Stats(ctx)
}

// Store exposes the catalog store for API service construction.
func (d *Daemon) Store() *catalog.Store {
	return d.store
}

// Import runs the import pipeline on a single source file.
func (d *Daemon) Import(ctx context.Context, sourcePath string) (*catalog.Series, error) {
	if d.importer == nil {
		return nil, errors.New("importer unavailable")
	}
	return d.importer.Import(ctx, sourcePath)
}

// Reimport restarts the import pipeline for an existing series.
func (d *Daemon) Reimport(ctx context.Context, id int64) (*catalog.Series, error) {
	if d.importer == nil {
		return nil, errors.New("importer unavailable")
	}
	return d.importer.Reimport(ctx, id)
}

// ScanInbox imports every candidate file in the import directory.
func (d *Daemon) ScanInbox(ctx context.Context) ([]*catalog.Series, error) {
	if d.importer == nil {
		return nil, errors.New("importer unavailable")
	}
	return d.importer.ScanInbox(ctx)
}

// SeriesInUse reports whether any open session plays the given series.
func (d *Daemon) SeriesInUse(seriesID int64) bool {
	if d.sessions == nil {
		return false
	}
	for _, session := range d.sessions.List() {
		if session.SeriesID == seriesID {
			return true
		}
	}
	return false
}

// OpenSession opens a playback session for a ready series.
func (d *Daemon) OpenSession(ctx context.Context, seriesID int64) (*sessions.Session, error) {
	if d.sessions == nil {
		return nil, errors.New("session registry unavailable")
	}
	return d.sessions.Open(ctx, seriesID)
}

// CloseSession detaches the session's engine and removes it.
func (d *Daemon) CloseSession(id string) error {
	if d.sessions == nil {
		return errors.New("session registry unavailable")
	}
	return d.sessions.Close(id)
}

// Session looks up an open session by identifier.
func (d *Daemon) Session(id string) (*sessions.Session, error) {
	if d.sessions == nil {
		return nil, errors.New("session registry unavailable")
	}
	return d.sessions.Get(id)
}

// Sessions lists open sessions ordered by open time.
func (d *Daemon) Sessions() []*sessions.Session {
	if d.sessions == nil {
		return nil
	}
	return d.sessions.List()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Started returns when the daemon started, zero before Start.
func (d *Daemon) Started() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// MediaWatching reports whether the udev media monitor is active.
func (d *Daemon) MediaWatching() bool {
	d.mu.Lock()
	monitor := d.monitor
	d.mu.Unlock()
	return monitor.Running()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Started:       d.Started(),
		CatalogDBPath: d.cfg.CatalogPath(),
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.SocketPath(),
		MediaWatching: d.MediaWatching(),
		Dependencies:  preflight.CheckSystemDeps(ctx, d.cfg),
	}
	if d.cfg.API.Enabled {
		status.APIBind = d.cfg.API.Bind
	}
	if stats, err := d.store.Stats(ctx); err != nil {
		d.logger.Warn("catalog stats unavailable", logging.Error(err))
	} else {
		status.CatalogStats = stats
	}
	if d.sessions != nil {
		status.Sessions = d.sessions.List()
	}
	return status
}

// scanInbox adapts the importer for the media monitor callback.
func (d *Daemon) scanInbox(ctx context.Context) (int, error) {
	series, err := d.importer.ScanInbox(ctx)
	return len(series), err
}
