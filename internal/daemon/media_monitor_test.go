package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"cine/internal/config"
	"cine/internal/logging"
	"cine/internal/testsupport"
)

func mediaConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Import.WatchRemovableMedia = true
	return cfg
}

func TestNewMediaMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		m := newMediaMonitor(nil, nil, nil)
		if m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("watching disabled returns nil", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		m := newMediaMonitor(cfg, nil, nil)
		if m != nil {
			t.Error("expected nil monitor when watching is disabled")
		}
	})

	t.Run("empty inbox returns nil", func(t *testing.T) {
		cfg := mediaConfig(t)
		cfg.Paths.ImportDir = "   "
		m := newMediaMonitor(cfg, nil, nil)
		if m != nil {
			t.Error("expected nil monitor for empty inbox")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		cfg := mediaConfig(t)
		m := newMediaMonitor(cfg, nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.inbox != cfg.Paths.ImportDir {
			t.Errorf("expected inbox %s, got %s", cfg.Paths.ImportDir, m.inbox)
		}
		if m.settle != mediaSettleDelay {
			t.Errorf("expected settle delay %v, got %v", mediaSettleDelay, m.settle)
		}
	})
}

func TestMediaMonitorRunning(t *testing.T) {
	t.Run("nil monitor returns false", func(t *testing.T) {
		var m *mediaMonitor
		if m.Running() {
			t.Error("expected Running() to return false for nil monitor")
		}
	})

	t.Run("unstarted monitor returns false", func(t *testing.T) {
		m := newMediaMonitor(mediaConfig(t), nil, nil)
		if m.Running() {
			t.Error("expected Running() to return false for unstarted monitor")
		}
	})
}

func TestMediaMonitorStopStartIdempotency(t *testing.T) {
	t.Run("stop on nil monitor is safe", func(t *testing.T) {
		var m *mediaMonitor
		m.Stop() // must not panic
	})

	t.Run("start on nil monitor is safe", func(t *testing.T) {
		var m *mediaMonitor
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start on nil monitor should return nil, got: %v", err)
		}
	})

	t.Run("stop on unstarted monitor is safe", func(t *testing.T) {
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), nil)
		m.Stop() // must not panic
		if m.Running() {
			t.Error("expected Running() to return false after Stop on unstarted monitor")
		}
	})

	t.Run("double stop is safe", func(t *testing.T) {
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), nil)
		m.Stop() // first stop on unstarted
		m.Stop() // second stop - must not panic
	})

	t.Run("start after stop without prior start is safe", func(t *testing.T) {
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), nil)
		m.Stop()
		// Start will try to connect to netlink (will fail in test env without privileges)
		// but should not panic or return a hard error (non-fatal by design)
		_ = m.Start(context.Background())
		m.Stop()
	})
}

func TestMediaMatcher(t *testing.T) {
	m := newMediaMonitor(mediaConfig(t), logging.NewNop(), nil)

	matcher := m.buildMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}

	validEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"SUBSYSTEM":   "block",
			"ID_FS_USAGE": "filesystem",
		},
	}
	if !matcher.Evaluate(validEvent) {
		t.Error("expected matcher to accept mountable filesystem event")
	}

	addEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"SUBSYSTEM":   "block",
			"ID_FS_USAGE": "filesystem",
		},
	}
	if !matcher.Evaluate(addEvent) {
		t.Error("expected matcher to accept ADD action")
	}

	bareEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			// Missing ID_FS_USAGE: raw device without a mountable filesystem
		},
	}
	if matcher.Evaluate(bareEvent) {
		t.Error("expected matcher to reject event without a filesystem")
	}

	removeEvent := netlink.UEvent{
		Action: netlink.REMOVE,
		Env: map[string]string{
			"SUBSYSTEM":   "block",
			"ID_FS_USAGE": "filesystem",
		},
	}
	if matcher.Evaluate(removeEvent) {
		t.Error("expected matcher to reject REMOVE action")
	}
}

func TestMediaHandleEvent(t *testing.T) {
	insertEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"DEVNAME": "/dev/sdb1",
		},
	}

	t.Run("ignores event without device name", func(t *testing.T) {
		var calls atomic.Int32
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), func(context.Context) (int, error) {
			calls.Add(1)
			return 0, nil
		})
		m.settle = time.Millisecond

		m.handleEvent(context.Background(), nil, netlink.UEvent{
			Action: netlink.CHANGE,
			Env:    map[string]string{},
		})

		if calls.Load() != 0 {
			t.Error("handler should not be called for event without device name")
		}
	})

	t.Run("scans after settle delay", func(t *testing.T) {
		scanned := make(chan struct{})
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), func(context.Context) (int, error) {
			close(scanned)
			return 2, nil
		})
		m.settle = time.Millisecond

		m.handleEvent(context.Background(), nil, insertEvent)

		select {
		case <-scanned:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called after media event")
		}
	})

	t.Run("drops events while a scan is in flight", func(t *testing.T) {
		block := make(chan struct{})
		var calls atomic.Int32
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), func(context.Context) (int, error) {
			calls.Add(1)
			<-block
			return 0, nil
		})
		m.settle = time.Millisecond

		m.handleEvent(context.Background(), nil, insertEvent)
		// The scanning flag is set synchronously, so this one is dropped.
		m.handleEvent(context.Background(), nil, insertEvent)

		close(block)
		deadline := time.Now().Add(2 * time.Second)
		for {
			m.mu.Lock()
			busy := m.scanning
			m.mu.Unlock()
			if !busy {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("scan never finished")
			}
			time.Sleep(time.Millisecond)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("expected 1 scan, got %d", got)
		}

		// A fresh event after the scan finishes runs again.
		m.handleEvent(context.Background(), nil, insertEvent)
		deadline = time.Now().Add(2 * time.Second)
		for calls.Load() != 2 {
			if time.Now().After(deadline) {
				t.Fatalf("expected 2 scans, got %d", calls.Load())
			}
			time.Sleep(time.Millisecond)
		}
	})

	t.Run("canceled context skips the scan", func(t *testing.T) {
		var calls atomic.Int32
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), func(context.Context) (int, error) {
			calls.Add(1)
			return 0, nil
		})
		m.settle = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		m.handleEvent(ctx, nil, insertEvent)
		cancel()

		time.Sleep(20 * time.Millisecond)
		if calls.Load() != 0 {
			t.Error("handler should not run after context cancellation")
		}
	})

	t.Run("extracts device from DEVPATH when DEVNAME missing", func(t *testing.T) {
		m := newMediaMonitor(mediaConfig(t), logging.NewNop(), nil)
		devname := m.extractDeviceName(netlink.UEvent{
			Action: netlink.CHANGE,
			Env: map[string]string{
				"DEVPATH": "/devices/pci0000:00/0000:00:14.0/usb2/2-1/2-1:1.0/host4/target4:0:0/4:0:0:0/block/sdb/sdb1",
			},
		})
		if devname != "/dev/sdb1" {
			t.Errorf("expected device /dev/sdb1 from DEVPATH, got %s", devname)
		}
	})
}
