package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cine/internal/catalog"
	"cine/internal/clock"
	"cine/internal/config"
	"cine/internal/engine"
	"cine/internal/frameindex"
	"cine/internal/loader"
	"cine/internal/logging"
	"cine/internal/playback"
	"cine/internal/services"
)

// Session binds one catalog series to a running engine.
type Session struct {
	ID       string
	SeriesID int64
	Title    string
	OpenedAt time.Time

	eng        *engine.Engine
	events     *eventLog
	stopEvents func()
	done       chan struct{}
}

// Engine returns the session's engine.
func (s *Session) Engine() *engine.Engine { return s.eng }

// Events returns buffered engine events with sequence greater than since,
// plus the cursor to resume from. With wait set it blocks until an event
// arrives, the session closes, or ctx ends.
func (s *Session) Events(ctx context.Context, since uint64, limit int, wait bool) ([]SequencedEvent, uint64, error) {
	return s.events.fetch(ctx, since, limit, wait)
}

// Done returns a channel closed when the session closes. Event streams watch
// it to drop their connections.
func (s *Session) Done() <-chan struct{} { return s.done }

// Surface is the input surface handle the session binds at open.
func (s *Session) Surface() string { return "session:" + s.ID }

// Registry manages the session table.
type Registry struct {
	mu       sync.Mutex
	cfg      *config.Config
	store    *catalog.Store
	logger   *slog.Logger
	clock    clock.Clock
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry. A nil clk falls back to the
// system clock.
func NewRegistry(cfg *config.Config, store *catalog.Store, logger *slog.Logger, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.System
	}
	return &Registry{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "sessions"),
		clock:    clk,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session for a ready series and binds its input surface.
func (r *Registry) Open(ctx context.Context, seriesID int64) (*Session, error) {
	series, err := r.store.GetByID(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if series == nil {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "open", fmt.Sprintf("series %d not found", seriesID), nil)
	}
	if !series.Ready() {
		return nil, services.Wrap(services.ErrValidation, "sessions", "open",
			fmt.Sprintf("series %d is %s, not ready", seriesID, series.Status), nil)
	}

	dir, err := loader.OpenDir(series.FrameDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "open", "frame directory unavailable", err)
	}
	logger := logging.WithContext(ctx, r.logger)
	total := dir.Len()
	if total == 0 {
		return nil, services.Wrap(services.ErrValidation, "sessions", "open", "frame directory is empty", nil)
	}
	if total != series.FrameCount {
		// The files on disk are what playback serves, so they win.
		logger.Warn("frame directory out of sync with catalog",
			logging.Int64("series_id", series.ID),
			logging.Int("catalog_frames", series.FrameCount),
			logging.Int("directory_frames", total),
		)
	}

	session := &Session{
		ID:       uuid.NewString(),
		SeriesID: series.ID,
		Title:    series.Title,
		OpenedAt: r.clock.Now(),
		events:   newEventLog(sessionEventBuffer),
		done:     make(chan struct{}),
	}
	session.eng = engine.New(r.engineOptions(total), dir, r.clock, r.logger)
	session.stopEvents = session.eng.Subscribe(session.events.publish)
	session.eng.Bind(session.Surface())

	r.mu.Lock()
	r.sessions[session.ID] = session
	count := len(r.sessions)
	r.mu.Unlock()

	logger.Info("session opened",
		logging.String("session_id", session.ID),
		logging.Int64("series_id", series.ID),
		logging.Int("total_frames", total),
		logging.Int("open_sessions", count),
	)
	return session, nil
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "get", fmt.Sprintf("session %s not found", id), nil)
	}
	return session, nil
}

// List returns open sessions ordered by open time.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close detaches the session's engine and removes it from the table.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return services.Wrap(services.ErrNotFound, "sessions", "close", fmt.Sprintf("session %s not found", id), nil)
	}

	session.shutdown()
	r.logger.Info("session closed",
		logging.String("session_id", session.ID),
		logging.Int64("series_id", session.SeriesID),
	)
	return nil
}

// shutdown detaches the engine and releases everything watching the session.
// Detach runs first so cancellation events still reach buffered pollers.
func (s *Session) shutdown() {
	s.eng.Detach()
	if s.stopEvents != nil {
		s.stopEvents()
	}
	s.events.close()
	close(s.done)
}

// CloseAll detaches every open session. Used at daemon shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for id, session := range r.sessions {
		open = append(open, session)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, session := range open {
		session.shutdown()
	}
	if len(open) > 0 {
		r.logger.Info("all sessions closed", logging.Int("count", len(open)))
	}
}

func (r *Registry) engineOptions(totalFrames int) engine.Options {
	opts := engine.DefaultOptions()
	opts.TotalFrames = totalFrames
	opts.EnableKeyboard = r.cfg.Viewer.EnableKeyboard
	opts.EnableMouseWheel = r.cfg.Viewer.EnableMouseWheel
	opts.EnableTouch = r.cfg.Viewer.EnableTouch
	opts.EnableMomentum = r.cfg.Viewer.EnableMomentum
	opts.WheelSensitivity = r.cfg.Input.WheelSensitivity
	opts.TouchSensitivity = r.cfg.Input.TouchSensitivity
	opts.AnimationDuration = time.Duration(r.cfg.Playback.AnimationMS) * time.Millisecond
	if behavior, ok := frameindex.ParseBoundary(r.cfg.Playback.BoundaryBehavior); ok {
		opts.BoundaryBehavior = behavior
	}
	opts.MinFrameRate = r.cfg.Playback.MinFrameRate
	opts.MaxFrameRate = r.cfg.Playback.MaxFrameRate
	opts.FrameRate = r.cfg.Playback.FrameRate
	if mode, ok := playback.ParseMode(r.cfg.Playback.Mode); ok {
		opts.Mode = mode
	}
	opts.PreloadWindowSize = r.cfg.Prefetch.WindowSize
	return opts
}
