package transition

import (
	"math"
	"sync"
	"time"

	"autodim/internal/luma"
)

// #region engine

// Deadband is the minimum change against the current target that starts a
// new animation. Requests closer than this are dropped so sub-perceptible
// sampling jitter cannot keep restarting transitions.
const Deadband = 0.05

// Engine advances a rendered level toward a target level over wall-clock
// time. Interpolation is linear: predictability and testability matter more
// than visual polish for a utility overlay. The engine is either Idle
// (current == target, no frames scheduled) or Animating (a frame callback
// is in flight); the newest request always wins and cancels its predecessor.
type Engine struct {
	mu      sync.Mutex
	current float64
	target  float64
	handle  Handle // non-nil while an animation is in flight
	gen     uint64 // bumped on every cancel; stale frames carry the old value

	sched         FrameScheduler
	frameInterval time.Duration
	clock         func() time.Time

	start     float64
	startedAt time.Time
	duration  time.Duration
	onUpdate  func(level float64)
}

// Options configures an Engine. Zero values select wall-clock defaults.
type Options struct {
	Scheduler     FrameScheduler
	FrameInterval time.Duration
	Clock         func() time.Time
}

// NewEngine creates an idle engine at level 0.
func NewEngine(opts Options) *Engine {
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		sched:         opts.Scheduler,
		frameInterval: opts.FrameInterval,
		clock:         opts.Clock,
	}
}

// #endregion engine

// #region request

// RequestLevel animates toward newTarget over duration, invoking onUpdate
// with the rendered level on every frame. Targets within the deadband of
// the current target are dropped. A non-positive duration snaps.
func (e *Engine) RequestLevel(newTarget float64, duration time.Duration, onUpdate func(level float64)) {
	e.mu.Lock()
	newTarget = luma.Clamp(newTarget)
	if math.Abs(newTarget-e.target) < Deadband {
		e.mu.Unlock()
		return
	}
	if duration <= 0 {
		e.setImmediateLocked(newTarget)
		e.mu.Unlock()
		if onUpdate != nil {
			onUpdate(newTarget)
		}
		return
	}

	e.cancelLocked()
	e.target = newTarget
	e.start = e.current
	e.startedAt = e.clock()
	e.duration = duration
	e.onUpdate = onUpdate
	e.handle = e.sched.Schedule(e.frameInterval, e.frame(e.gen))
	e.mu.Unlock()
}

// frame binds a step callback to one animation generation. A wall-clock
// timer can fire in the window where cancellation misses it; the generation
// check keeps such a frame from advancing a successor animation and forking
// a second frame chain.
func (e *Engine) frame(gen uint64) func() {
	return func() { e.step(gen) }
}

// step advances one frame and reschedules itself until progress reaches 1.
func (e *Engine) step(gen uint64) {
	e.mu.Lock()
	if e.handle == nil || gen != e.gen {
		// Cancelled or superseded after this frame was already dispatched.
		e.mu.Unlock()
		return
	}

	progress := float64(e.clock().Sub(e.startedAt)) / float64(e.duration)
	if progress > 1 {
		progress = 1
	}
	e.current = luma.Clamp(e.start + (e.target-e.start)*progress)

	if progress >= 1 {
		e.handle = nil
	} else {
		e.handle = e.sched.Schedule(e.frameInterval, e.frame(gen))
	}
	onUpdate := e.onUpdate
	level := e.current
	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(level)
	}
}

// #endregion request

// #region immediate

// SetImmediate cancels any in-flight animation and sets both current and
// target to the clamped level in one step, invoking onUpdate once. Used
// when smoothing is disabled.
func (e *Engine) SetImmediate(level float64, onUpdate func(level float64)) {
	e.mu.Lock()
	level = luma.Clamp(level)
	e.setImmediateLocked(level)
	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(level)
	}
}

func (e *Engine) setImmediateLocked(level float64) {
	e.cancelLocked()
	e.current = level
	e.target = level
}

// #endregion immediate

// #region cancel

// Cancel stops any in-flight animation and returns to Idle. Idempotent.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

func (e *Engine) cancelLocked() {
	e.gen++
	if e.handle != nil {
		e.sched.Cancel(e.handle)
		e.handle = nil
	}
}

// #endregion cancel

// #region accessors

// Current returns the level currently rendered.
func (e *Engine) Current() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Target returns the level being animated toward.
func (e *Engine) Target() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Animating reports whether a transition is in flight.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle != nil
}

// #endregion accessors
