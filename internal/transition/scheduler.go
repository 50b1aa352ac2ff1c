package transition

import (
	"sync"
	"time"
)

// #region scheduler

// Handle identifies a scheduled frame callback so it can be cancelled.
type Handle any

// FrameScheduler schedules a single callback after a delay. Implementations
// must make cancellation explicit and idempotent.
type FrameScheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// DefaultFrameInterval approximates a 60 Hz frame cadence.
const DefaultFrameInterval = 16 * time.Millisecond

// #endregion scheduler

// #region timer-scheduler

// TimerScheduler runs callbacks on wall-clock timers.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	return time.AfterFunc(delay, fn)
}

func (TimerScheduler) Cancel(h Handle) {
	if t, ok := h.(*time.Timer); ok {
		t.Stop()
	}
}

// #endregion timer-scheduler

// #region manual-scheduler

// ManualScheduler queues callbacks for explicit stepping, so tests can
// drive animations deterministically.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]func()
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]func())}
}

func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.pending[id] = fn
	return id
}

func (m *ManualScheduler) Cancel(h Handle) {
	id, ok := h.(int)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
}

// Step runs every callback pending at the time of the call. Callbacks
// scheduled during the step wait for the next one.
func (m *ManualScheduler) Step() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.pending))
	for _, fn := range m.pending {
		fns = append(fns, fn)
	}
	m.pending = make(map[int]func())
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Pending reports how many callbacks are waiting.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// #endregion manual-scheduler
