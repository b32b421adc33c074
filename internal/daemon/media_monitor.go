package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"cine/internal/config"
	"cine/internal/logging"
)

// mediaSettleDelay gives the automounter time to mount a freshly inserted
// filesystem before the scan looks for files.
const mediaSettleDelay = 2 * time.Second

// mediaMonitor listens for udev netlink events and triggers an import inbox
// scan when removable media appears. This eliminates the need for udev rules
// that call the CLI as root.
type mediaMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler func(ctx context.Context) (int, error)
	inbox   string
	settle  time.Duration

	mu       sync.Mutex
	conn     *netlink.UEventConn
	quit     chan struct{}
	running  bool
	scanning bool
}

// newMediaMonitor creates a monitor that listens for removable media events.
func newMediaMonitor(
	cfg *config.Config,
	logger *slog.Logger,
	handler func(ctx context.Context) (int, error),
) *mediaMonitor {
	if cfg == nil || !cfg.Import.WatchRemovableMedia {
		return nil
	}

	inbox := strings.TrimSpace(cfg.Paths.ImportDir)
	if inbox == "" {
		return nil
	}

	return &mediaMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "media-monitor"),
		handler: handler,
		inbox:   inbox,
		settle:  mediaSettleDelay,
	}
}

// Start begins listening for udev netlink events.
func (m *mediaMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; media detection will rely on manual scans",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "automatic import on media insert unavailable"),
		)
		return nil // Non-fatal - daemon can still function with manual scans
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("media monitor started",
		logging.String(logging.FieldEventType, "media_monitor_started"),
		logging.String("inbox", m.inbox),
	)

	return nil
}

// Stop shuts down the media monitor.
func (m *mediaMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false

	m.logger.Info("media monitor stopped",
		logging.String(logging.FieldEventType, "media_monitor_stopped"),
	)
}

// Running reports whether the media monitor is active.
func (m *mediaMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop reads netlink events and processes media insertions.
func (m *mediaMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	// Build matcher for mountable media events:
	// SUBSYSTEM=block, ID_FS_USAGE=filesystem, ACTION=change|add
	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, quit, uevent)
		case err := <-errs:
			m.logger.Warn("media monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "media_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "import on media insert may be affected"),
			)
		}
	}
}

// buildMatcher creates a matcher for removable media carrying a filesystem.
func (m *mediaMonitor) buildMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":   "block",
			"ID_FS_USAGE": "filesystem",
		},
	})
	return rules
}

// handleEvent schedules an inbox scan for a matched uevent. Scans are
// single-flight: a second insert while one scan runs is dropped, since the
// scan sweeps the whole inbox anyway.
func (m *mediaMonitor) handleEvent(ctx context.Context, quit <-chan struct{}, uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		m.logger.Debug("inbox scan already in flight, ignoring media event",
			logging.String("device", devname),
		)
		return
	}
	m.scanning = true
	m.mu.Unlock()

	m.logger.Info("removable media detected via netlink",
		logging.String(logging.FieldEventType, "media_detected"),
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)

	go func() {
		defer func() {
			m.mu.Lock()
			m.scanning = false
			m.mu.Unlock()
		}()

		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-time.After(m.settle):
		}
		m.runScan(ctx, devname)
	}()
}

// runScan invokes the inbox scan handler and reports the outcome.
func (m *mediaMonitor) runScan(ctx context.Context, devname string) {
	if m.handler == nil {
		return
	}

	imported, err := m.handler(ctx)
	if err != nil {
		m.logger.Warn("inbox scan after media insert failed",
			logging.Error(err),
			logging.String("device", devname),
			logging.String(logging.FieldEventType, "media_scan_failed"),
			logging.String(logging.FieldErrorHint, "check importer logs for details"),
			logging.String(logging.FieldImpact, "media contents not imported"),
		)
		return
	}

	if imported > 0 {
		m.logger.Info("media insert imported series",
			logging.String("device", devname),
			logging.Int("imported", imported),
			logging.String(logging.FieldEventType, "media_imported"),
		)
	} else {
		m.logger.Debug("no import candidates after media insert",
			logging.String("device", devname),
		)
	}
}

// extractDeviceName gets the device path from a uevent.
func (m *mediaMonitor) extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	// Try to construct from DEVPATH (e.g., /devices/pci.../block/sdb1)
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}

	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
