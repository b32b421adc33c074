package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cine/internal/api"
	"cine/internal/daemon"
	"cine/internal/importer"
	"cine/internal/ipc"
	"cine/internal/logging"
	"cine/internal/sessions"
	"cine/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	logger := logging.NewNop()
	imp := importer.New(cfg, store, logger)
	registry := sessions.NewRegistry(cfg, store, logger, nil)
	d, err := daemon.New(cfg, store, imp, registry, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if !strings.HasSuffix(status.CatalogDBPath, "catalog.db") {
		t.Fatalf("unexpected catalog path: %s", status.CatalogDBPath)
	}
	if status.SocketPath != socket {
		t.Fatalf("socket path = %q, want %q", status.SocketPath, socket)
	}
	if status.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", status.PID, os.Getpid())
	}

	frameDir := filepath.Join(cfg.Paths.CacheDir, "chest")
	testsupport.WriteFrames(t, frameDir, 4)
	ready := testsupport.ReadySeries(t, store, filepath.Join(cfg.Paths.ImportDir, "chest_ct.dcm"), frameDir, 4)
	failed := testsupport.AddSeries(t, store, filepath.Join(cfg.Paths.ImportDir, "broken.dcm"))
	if err := store.MarkFailed(context.Background(), failed.ID, "unreadable file"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	listResp, err := client.SeriesList(nil)
	if err != nil {
		t.Fatalf("SeriesList failed: %v", err)
	}
	if len(listResp.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(listResp.Series))
	}

	failedResp, err := client.SeriesList([]string{"failed"})
	if err != nil {
		t.Fatalf("SeriesList filter failed: %v", err)
	}
	if len(failedResp.Series) != 1 || failedResp.Series[0].ID != failed.ID {
		t.Fatalf("expected failed series %d, got %#v", failed.ID, failedResp.Series)
	}

	describeResp, err := client.SeriesDescribe(ready.ID)
	if err != nil {
		t.Fatalf("SeriesDescribe failed: %v", err)
	}
	if describeResp.Series.ID != ready.ID || describeResp.Series.FrameCount != 4 {
		t.Fatalf("unexpected describe response: %#v", describeResp.Series)
	}
	if _, err := client.SeriesDescribe(4040); err == nil {
		t.Fatal("expected describe of unknown series to fail")
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.CatalogStats["ready"] != 1 || status.CatalogStats["failed"] != 1 {
		t.Fatalf("unexpected catalog stats: %#v", status.CatalogStats)
	}

	openResp, err := client.SessionOpen(ready.ID)
	if err != nil {
		t.Fatalf("SessionOpen failed: %v", err)
	}
	sessionID := openResp.Session.ID
	if openResp.Session.SeriesID != ready.ID {
		t.Fatalf("session series = %d, want %d", openResp.Session.SeriesID, ready.ID)
	}
	if openResp.Session.State == nil || openResp.Session.State.TotalSlices != 4 {
		t.Fatalf("unexpected session state: %#v", openResp.Session.State)
	}

	sessList, err := client.SessionList()
	if err != nil {
		t.Fatalf("SessionList failed: %v", err)
	}
	if len(sessList.Sessions) != 1 || sessList.Sessions[0].ID != sessionID {
		t.Fatalf("unexpected session list: %#v", sessList.Sessions)
	}

	stateResp, err := client.SessionState(sessionID)
	if err != nil {
		t.Fatalf("SessionState failed: %v", err)
	}
	if stateResp.State.CurrentSlice != 0 {
		t.Fatalf("expected fresh session at slice 0, got %d", stateResp.State.CurrentSlice)
	}

	cmdResp, err := client.Command(sessionID, ipc.PlaybackCommand{Name: "goto", Frame: 2})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if cmdResp.State.CurrentSlice != 2 {
		t.Fatalf("goto landed at %d, want 2", cmdResp.State.CurrentSlice)
	}
	if _, err := client.Command(sessionID, ipc.PlaybackCommand{Name: "warp"}); err == nil {
		t.Fatal("expected unknown command to fail")
	}

	inputResp, err := client.Input(sessionID, ipc.InputEvent{Kind: "key", Key: "ArrowRight"})
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if inputResp.State.CurrentSlice != 3 {
		t.Fatalf("key step landed at %d, want 3", inputResp.State.CurrentSlice)
	}

	eventsResp, err := client.SessionEvents(ipc.SessionEventsRequest{ID: sessionID})
	if err != nil {
		t.Fatalf("SessionEvents failed: %v", err)
	}
	if len(eventsResp.Events) != 2 {
		t.Fatalf("expected 2 buffered events, got %#v", eventsResp.Events)
	}
	if eventsResp.Events[0].Type != "slice_changed" || eventsResp.Events[0].Index != 2 {
		t.Fatalf("unexpected first event: %#v", eventsResp.Events[0])
	}
	if eventsResp.Events[1].Index != 3 || eventsResp.Next != 2 {
		t.Fatalf("unexpected event cursor: %#v next=%d", eventsResp.Events[1], eventsResp.Next)
	}

	frameResp, err := client.SessionFrame(sessionID, 1)
	if err != nil {
		t.Fatalf("SessionFrame failed: %v", err)
	}
	if string(frameResp.Data) != "frame-1" {
		t.Fatalf("unexpected frame payload %q", frameResp.Data)
	}

	pollDone := make(chan struct{})
	go func(since uint64) {
		resp, err := client.SessionEvents(ipc.SessionEventsRequest{ID: sessionID, Since: since, WaitMillis: 2000})
		if err != nil {
			t.Errorf("SessionEvents follow error: %v", err)
			return
		}
		if len(resp.Events) != 1 || resp.Events[0].Type != "slice_changed" || resp.Events[0].Index != 2 {
			t.Errorf("unexpected follow events: %#v", resp.Events)
		}
		close(pollDone)
	}(eventsResp.Next)

	time.Sleep(100 * time.Millisecond)
	if _, err := client.Command(sessionID, ipc.PlaybackCommand{Name: "previous"}); err != nil {
		t.Fatalf("Command previous failed: %v", err)
	}

	select {
	case <-pollDone:
	case <-time.After(10 * time.Second):
		t.Fatal("event poll follow timed out")
	}

	removeResp, err := client.SeriesRemove([]int64{ready.ID}, false)
	if err != nil {
		t.Fatalf("SeriesRemove failed: %v", err)
	}
	if removeResp.RemovedCount != 0 || removeResp.Items[0].Outcome != api.RemoveSeriesInUse {
		t.Fatalf("expected in-use skip, got %#v", removeResp.Items)
	}

	closeResp, err := client.SessionClose(sessionID)
	if err != nil {
		t.Fatalf("SessionClose failed: %v", err)
	}
	if !closeResp.Closed {
		t.Fatal("expected session close to report closed")
	}
	if _, err := client.SessionState(sessionID); err == nil {
		t.Fatal("expected state of closed session to fail")
	}

	removeResp, err = client.SeriesRemove([]int64{ready.ID}, false)
	if err != nil {
		t.Fatalf("SeriesRemove retry failed: %v", err)
	}
	if removeResp.RemovedCount != 1 || removeResp.Items[0].Outcome != api.RemoveSeriesRemoved {
		t.Fatalf("expected removal, got %#v", removeResp.Items)
	}
	if _, err := os.Stat(frameDir); !os.IsNotExist(err) {
		t.Fatalf("expected frame dir deleted, stat err = %v", err)
	}

	scanResp, err := client.SeriesScan()
	if err != nil {
		t.Fatalf("SeriesScan failed: %v", err)
	}
	if len(scanResp.Imported) != 0 {
		t.Fatalf("expected empty inbox scan, got %#v", scanResp.Imported)
	}

	importResp, err := client.SeriesImport([]string{filepath.Join(cfg.Paths.ImportDir, "missing.dcm")})
	if err != nil {
		t.Fatalf("SeriesImport failed: %v", err)
	}
	if importResp.ImportedCount != 0 || importResp.Items[0].Outcome != api.ImportPathFailed {
		t.Fatalf("expected failed import, got %#v", importResp.Items)
	}
	if importResp.Items[0].Error == "" {
		t.Fatal("expected import failure detail")
	}

	if err := os.WriteFile(d.LogPath(), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail initial failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", logResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 500})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(logResp.Offset)

	time.Sleep(100 * time.Millisecond)
	if f, err := os.OpenFile(d.LogPath(), os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.WriteString("fourth\n")
		_ = f.Close()
	} else {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestNewServerRequiresDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "cine.sock")
	if _, err := ipc.NewServer(context.Background(), socket, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil daemon")
	}
}
