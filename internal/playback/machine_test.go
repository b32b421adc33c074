package playback_test

import (
	"testing"
	"time"

	"cine/internal/frameindex"
	"cine/internal/playback"
)

func TestMachinePlayStopTransitions(t *testing.T) {
	m := playback.NewMachine(1, 60, 10, playback.ModeLoop, playback.DirectionForward)

	if m.Playing() {
		t.Fatal("expected new machine stopped")
	}
	if !m.Play(time.Unix(0, 0)) {
		t.Fatal("expected Play to transition")
	}
	if m.Play(time.Unix(1, 0)) {
		t.Fatal("expected second Play to be a no-op")
	}
	if !m.Playing() {
		t.Fatal("expected machine playing")
	}
	if !m.Stop() {
		t.Fatal("expected Stop to transition")
	}
	if m.Stop() {
		t.Fatal("expected second Stop to be a no-op")
	}
	if m.State() != playback.StateStopped {
		t.Fatalf("unexpected state: %v", m.State())
	}
}

func TestMachineTickStepsWithDirectionAndMode(t *testing.T) {
	m := playback.NewMachine(1, 60, 10, playback.ModeOnce, playback.DirectionForward)
	m.Play(time.Unix(0, 0))

	result := m.Tick(time.Unix(0, 0).Add(100 * time.Millisecond))
	if result.Delta != 1 {
		t.Fatalf("expected forward delta 1, got %d", result.Delta)
	}
	if result.Boundary != frameindex.BoundaryStop {
		t.Fatalf("expected stop boundary for once mode, got %v", result.Boundary)
	}

	m.SetDirection(playback.DirectionBackward)
	m.SetMode(playback.ModeBounce)
	result = m.Tick(time.Unix(0, 0).Add(200 * time.Millisecond))
	if result.Delta != -1 {
		t.Fatalf("expected backward delta -1, got %d", result.Delta)
	}
	if result.Boundary != frameindex.BoundaryBounce {
		t.Fatalf("expected bounce boundary, got %v", result.Boundary)
	}

	m.SetMode(playback.ModeLoop)
	result = m.Tick(time.Unix(0, 0).Add(300 * time.Millisecond))
	if result.Boundary != frameindex.BoundaryWrap {
		t.Fatalf("expected wrap boundary for loop mode, got %v", result.Boundary)
	}
}

func TestMachineSlowTicksDegradeEffectiveRate(t *testing.T) {
	m := playback.NewMachine(1, 60, 10, playback.ModeLoop, playback.DirectionForward)

	now := time.Unix(0, 0)
	m.Play(now)
	for i := 0; i < 10; i++ {
		now = now.Add(200 * time.Millisecond) // 2x the 100ms target
		m.Tick(now)
	}
	if got := m.EffectiveRate(); got >= 10 {
		t.Fatalf("expected degraded effective rate, got %v", got)
	}
	if m.Interval() <= 100*time.Millisecond {
		t.Fatalf("expected longer interval after degradation, got %v", m.Interval())
	}
}

func TestMachinePlayResetsRateWindow(t *testing.T) {
	m := playback.NewMachine(1, 60, 10, playback.ModeLoop, playback.DirectionForward)

	now := time.Unix(0, 0)
	m.Play(now)
	for i := 0; i < 12; i++ {
		now = now.Add(100 * time.Millisecond)
		m.Tick(now)
	}
	if m.ObservedRate() == 0 {
		t.Fatal("expected observed rate after a full window")
	}

	m.Stop()
	restart := now.Add(time.Hour)
	m.Play(restart)

	// First tick after restart must measure against the restart anchor, not
	// the stale hour-old tick.
	m.Tick(restart.Add(100 * time.Millisecond))
	if got := m.EffectiveRate(); got != m.RequestedRate() {
		t.Fatalf("expected on-pace tick to leave rate alone, got %v", got)
	}
}

func TestMachineFlipDirection(t *testing.T) {
	m := playback.NewMachine(1, 60, 10, playback.ModeBounce, playback.DirectionForward)

	m.FlipDirection()
	if m.Direction() != playback.DirectionBackward {
		t.Fatalf("expected backward after flip, got %v", m.Direction())
	}
	m.FlipDirection()
	if m.Direction() != playback.DirectionForward {
		t.Fatalf("expected forward after second flip, got %v", m.Direction())
	}
}

func TestMachineSetRequestedRateClamps(t *testing.T) {
	m := playback.NewMachine(2, 30, 10, playback.ModeLoop, playback.DirectionForward)

	if applied := m.SetRequestedRate(500); applied != 30 {
		t.Fatalf("expected clamp to 30, got %v", applied)
	}
	if m.EffectiveRate() != 30 {
		t.Fatalf("expected effective reset to 30, got %v", m.EffectiveRate())
	}
}

func TestParseModeAndDirection(t *testing.T) {
	if mode, ok := playback.ParseMode(" LOOP "); !ok || mode != playback.ModeLoop {
		t.Fatalf("unexpected parse result: %v %v", mode, ok)
	}
	if _, ok := playback.ParseMode("shuffle"); ok {
		t.Fatal("expected unknown mode to fail")
	}
	if dir, ok := playback.ParseDirection("Backward"); !ok || dir != playback.DirectionBackward {
		t.Fatalf("unexpected parse result: %v %v", dir, ok)
	}
	if _, ok := playback.ParseDirection("sideways"); ok {
		t.Fatal("expected unknown direction to fail")
	}
}
