package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called. Tests use it
// to drive playback timers deterministically.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	clock    *Manual
	id       int
	deadline time.Time
	seq      int
	fn       func()
}

// NewManual returns a Manual clock starting at the provided time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, timers: make(map[int]*manualTimer)}
}

// Now returns the manual clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to run once Advance moves time past d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &manualTimer{
		clock:    m,
		id:       m.nextID,
		deadline: m.now.Add(d),
		seq:      m.nextID,
		fn:       f,
	}
	m.timers[t.id] = t
	return t
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Callbacks run without the clock lock held, so they may schedule new timers;
// ones falling inside the advanced window fire during the same call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}
		if next.deadline.After(m.now) {
			m.now = next.deadline
		}
		delete(m.timers, next.id)
		m.mu.Unlock()
		next.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// Pending reports how many timers are waiting to fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	due := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.deadline.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}
