package playback_test

import (
	"testing"
	"time"

	"cine/internal/playback"
)

func TestControllerSlowTicksDecreaseEffectiveRate(t *testing.T) {
	c := playback.NewController(1, 60, 10)
	target := 100 * time.Millisecond

	prev := c.Effective()
	for i := 0; i < 30; i++ {
		c.Observe(2 * target)
		got := c.Effective()
		if got > prev {
			t.Fatalf("tick %d: effective rate rose from %v to %v", i, prev, got)
		}
		if got < 1 {
			t.Fatalf("tick %d: effective rate %v fell below min", i, got)
		}
		if prev > 1 && got >= prev {
			t.Fatalf("tick %d: expected strict decrease above min, got %v -> %v", i, prev, got)
		}
		prev = got
	}
	if prev != 1 {
		t.Fatalf("expected effective rate clamped at min 1, got %v", prev)
	}
}

func TestControllerFastTicksIncreaseTowardMax(t *testing.T) {
	c := playback.NewController(1, 12, 10)

	for i := 0; i < 20; i++ {
		c.Observe(10 * time.Millisecond)
	}
	if got := c.Effective(); got != 12 {
		t.Fatalf("expected effective rate clamped at max 12, got %v", got)
	}
}

func TestControllerStaysPutInsideHysteresisBand(t *testing.T) {
	c := playback.NewController(1, 60, 10)
	target := 100 * time.Millisecond

	for _, actual := range []time.Duration{target, 90 * time.Millisecond, 140 * time.Millisecond} {
		c.Observe(actual)
		if got := c.Effective(); got != 10 {
			t.Fatalf("interval %v: expected unchanged rate 10, got %v", actual, got)
		}
	}
}

func TestControllerSetRequestedClampsAndResets(t *testing.T) {
	c := playback.NewController(2, 30, 10)

	for i := 0; i < 5; i++ {
		c.Observe(time.Second)
	}
	if c.Effective() >= 10 {
		t.Fatalf("expected degraded effective rate, got %v", c.Effective())
	}

	applied := c.SetRequested(100)
	if applied != 30 {
		t.Fatalf("expected request clamped to 30, got %v", applied)
	}
	if c.Effective() != 30 {
		t.Fatalf("expected effective reset to 30, got %v", c.Effective())
	}

	if applied := c.SetRequested(0.5); applied != 2 {
		t.Fatalf("expected request clamped to min 2, got %v", applied)
	}
}

func TestControllerInterval(t *testing.T) {
	c := playback.NewController(1, 60, 20)
	if got := c.Interval(); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms interval, got %v", got)
	}
}

func TestControllerRepairsDegenerateBounds(t *testing.T) {
	c := playback.NewController(0, -5, 10)
	if c.Min() != 1 || c.Max() != 1 {
		t.Fatalf("expected repaired bounds [1,1], got [%v,%v]", c.Min(), c.Max())
	}
	if c.Requested() != 1 {
		t.Fatalf("expected requested clamped to 1, got %v", c.Requested())
	}
}

func TestWindowPublishesObservedRate(t *testing.T) {
	w := playback.NewWindow()
	start := time.Unix(10, 0)
	w.Reset(start)

	if w.Observed() != 0 {
		t.Fatalf("expected zero reading before first window, got %v", w.Observed())
	}

	now := start
	for i := 0; i < 10; i++ {
		now = now.Add(100 * time.Millisecond)
		w.Tick(now)
	}

	got := w.Observed()
	if got < 9.5 || got > 10.5 {
		t.Fatalf("expected observed rate near 10, got %v", got)
	}
}

func TestWindowResetDiscardsPartialCount(t *testing.T) {
	w := playback.NewWindow()
	start := time.Unix(10, 0)
	w.Reset(start)

	w.Tick(start.Add(100 * time.Millisecond))
	w.Tick(start.Add(200 * time.Millisecond))
	w.Reset(start.Add(300 * time.Millisecond))

	// A full window after the reset should only count post-reset ticks.
	now := start.Add(300 * time.Millisecond)
	for i := 0; i < 5; i++ {
		now = now.Add(250 * time.Millisecond)
		w.Tick(now)
	}
	got := w.Observed()
	if got < 3.5 || got > 4.5 {
		t.Fatalf("expected observed rate near 4, got %v", got)
	}
}
