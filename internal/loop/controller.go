package loop

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"autodim/internal/config"
	"autodim/internal/logging"
	"autodim/internal/luma"
	"autodim/internal/observability"
	"autodim/internal/overlay"
	"autodim/internal/policy"
	"autodim/internal/relay"
	"autodim/internal/store"
)

// #region controller

// Controller runs the adaptive dimming loop for one view: it samples
// brightness, smooths it, evaluates policy and drives the transition engine.
// It implements relay.ViewHandler so the control API can reach it.
type Controller struct {
	cfg  Config
	deps Deps

	overlayID     string
	overlayHandle overlay.Handle

	mu          sync.Mutex
	snap        config.Snapshot
	smoothed    *float64 // nil until the first sample
	lastApplied *float64 // nil until the first level is pushed
	inCycle     bool
	stopped     bool
	tickerStop  chan struct{}
	scrollTimer *time.Timer
}

// New creates a controller and attaches its overlay element at opacity zero.
// Start must be called before the loop does anything.
func New(cfg Config, deps Deps) *Controller {
	c := &Controller{
		cfg:       cfg.withDefaults(),
		deps:      deps,
		overlayID: "autodim-overlay-" + uuid.New().String(),
	}
	c.overlayHandle = deps.Overlay.Ensure(c.overlayID)
	return c
}

// OverlayID returns the identifier of the controller's overlay element.
func (c *Controller) OverlayID() string {
	return c.overlayID
}

// #endregion controller

// #region lifecycle

// Start loads configuration, restores fresh persisted state for the
// hostname, runs the first cycle, and begins periodic resampling when
// dynamic mode is in force.
func (c *Controller) Start() error {
	snap, err := c.deps.Config.LoadConfig()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	// Only the dim level is restored. The smoothed brightness series starts
	// fresh: the persisted brightness is a raw reading, not an EMA seed.
	if st, ok, err := c.deps.Sites.LoadSiteState(c.deps.Hostname); err != nil {
		c.deps.Logger.Error().Err(err).Str("hostname", c.deps.Hostname).Msg("restore site state")
	} else if ok && st.LastDimLevel > 0 {
		c.mu.Lock()
		level := st.LastDimLevel
		c.lastApplied = &level
		c.mu.Unlock()
		c.deps.Engine.SetImmediate(st.LastDimLevel, c.applyOpacity)
		c.deps.Logger.Debug().Str("hostname", c.deps.Hostname).
			Float64("level", st.LastDimLevel).Msg("restored persisted dim level")
	}

	c.Cycle(TriggerStartup)
	c.syncTicker()
	return nil
}

// Stop halts periodic sampling, cancels any in-flight transition and
// detaches the overlay. The controller cannot be restarted.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.tickerStop != nil {
		close(c.tickerStop)
		c.tickerStop = nil
	}
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
		c.scrollTimer = nil
	}
	c.mu.Unlock()

	c.deps.Engine.Cancel()
	c.deps.Overlay.Remove(c.overlayID)
}

// syncTicker starts or stops the periodic resampling goroutine to match the
// effective dynamic-mode setting.
func (c *Controller) syncTicker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	eff := policy.ResolveEffective(c.snap, c.deps.Hostname)
	wantTicker := eff.Enabled && eff.DynamicMode

	switch {
	case wantTicker && c.tickerStop == nil:
		stop := make(chan struct{})
		c.tickerStop = stop
		go c.runTicker(stop)
	case !wantTicker && c.tickerStop != nil:
		close(c.tickerStop)
		c.tickerStop = nil
	}
}

func (c *Controller) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Cycle(TriggerTimer)
		case <-stop:
			return
		}
	}
}

// #endregion lifecycle

// #region cycle

// Cycle runs one control pass: skip checks, sampling, smoothing, policy
// evaluation, and level application. Overlapping cycles collapse into one;
// a cycle arriving while another runs is dropped, not queued.
func (c *Controller) Cycle(trigger Trigger) {
	c.mu.Lock()
	if c.stopped || c.inCycle {
		c.mu.Unlock()
		return
	}
	c.inCycle = true
	snap := c.snap
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inCycle = false
		c.mu.Unlock()
	}()

	hostname := c.deps.Hostname

	skip, outcome, eff := policy.ShouldSkip(snap, hostname)
	if skip {
		c.clearDim(eff)
		observability.CyclesTotal.WithLabelValues(string(outcome)).Inc()
		c.record(logging.DecisionEntry{
			Hostname: hostname,
			Trigger:  string(trigger),
			Outcome:  string(outcome),
			Reason:   "dimming ruled out before sampling",
		})
		return
	}

	raw := c.deps.Sampler.Sample(c.overlayID)

	c.mu.Lock()
	var smoothed float64
	if c.smoothed == nil {
		smoothed = raw
	} else {
		smoothed = c.cfg.Alpha*raw + (1-c.cfg.Alpha)*(*c.smoothed)
	}
	c.smoothed = &smoothed
	c.mu.Unlock()

	dec := policy.Evaluate(snap, hostname, smoothed)
	observability.CyclesTotal.WithLabelValues(string(dec.Outcome)).Inc()
	observability.SampledBrightness.WithLabelValues(hostname).Set(smoothed)

	c.mu.Lock()
	apply := c.lastApplied == nil || abs(dec.Target-*c.lastApplied) >= c.cfg.ApplyThreshold
	if apply {
		level := dec.Target
		c.lastApplied = &level
	}
	c.mu.Unlock()

	// Persistence rides the apply gate: sub-threshold cycles write nothing.
	// What is stored is the engine's current level and the raw reading, not
	// the evaluated target or the EMA value.
	if apply {
		c.push(dec.Target, eff)

		b := raw
		if err := c.deps.Sites.SaveSiteState(hostname, store.SiteState{
			LastDimLevel:   c.deps.Engine.Current(),
			LastBrightness: &b,
		}); err != nil {
			c.deps.Logger.Warn().Err(err).Str("hostname", hostname).Msg("persist site state")
		}
	}

	c.deps.Logger.Debug().
		Str("hostname", hostname).
		Str("trigger", string(trigger)).
		Str("outcome", string(dec.Outcome)).
		Float64("brightness", smoothed).
		Float64("target", dec.Target).
		Bool("applied", apply).
		Msg("cycle evaluated")

	b := smoothed
	c.record(logging.DecisionEntry{
		Hostname:   hostname,
		Trigger:    string(trigger),
		Outcome:    string(dec.Outcome),
		Reason:     dec.Reason,
		Brightness: &b,
		Target:     dec.Target,
	})
}

// clearDim drives the overlay to zero if it is not already there.
func (c *Controller) clearDim(eff policy.Effective) {
	if c.deps.Engine.Target() == 0 && c.deps.Engine.Current() == 0 {
		return
	}
	c.mu.Lock()
	zero := 0.0
	c.lastApplied = &zero
	c.mu.Unlock()
	c.push(0, eff)
}

// push hands a target level to the transition engine, smoothed or snapped
// per the effective configuration.
func (c *Controller) push(target float64, eff policy.Effective) {
	if eff.Smoothing {
		c.deps.Engine.RequestLevel(target, eff.SmoothingDuration(), c.applyOpacity)
	} else {
		c.deps.Engine.SetImmediate(target, c.applyOpacity)
	}
}

// applyOpacity is the engine's per-frame callback. It must not take the
// controller mutex: the engine invokes it synchronously from calls made
// while cycle state is being updated.
func (c *Controller) applyOpacity(level float64) {
	c.deps.Overlay.SetOpacity(c.overlayHandle, level)
	observability.DimLevel.WithLabelValues(c.deps.Hostname).Set(level)
}

func (c *Controller) record(entry logging.DecisionEntry) {
	if c.deps.Decisions == nil {
		return
	}
	if err := c.deps.Decisions.Record(entry); err != nil {
		c.deps.Logger.Warn().Err(err).Msg("record decision")
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion cycle

// #region events

// OnVisible runs a cycle immediately; called when the view becomes visible.
func (c *Controller) OnVisible() {
	c.Cycle(TriggerVisibility)
}

// OnScroll schedules a cycle after the scroll debounce window; repeated
// calls within the window reset it so only the final settle samples.
func (c *Controller) OnScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
	}
	c.scrollTimer = time.AfterFunc(c.cfg.ScrollDebounce, func() {
		c.Cycle(TriggerScroll)
	})
}

// OnConfigUpdated reloads the stored snapshot, re-evaluates immediately and
// adjusts periodic sampling to the new effective mode.
func (c *Controller) OnConfigUpdated() {
	snap, err := c.deps.Config.LoadConfig()
	if err != nil {
		c.deps.Logger.Error().Err(err).Msg("reload config")
		return
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.Cycle(TriggerConfig)
	c.syncTicker()
}

// ManualDim forces the dim level, bypassing policy entirely. Smoothing still
// applies. The forced level participates in the apply-threshold comparison
// of later cycles like any other applied level.
func (c *Controller) ManualDim(level float64) {
	level = luma.Clamp(level)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	snap := c.snap
	l := level
	c.lastApplied = &l
	c.mu.Unlock()

	eff := policy.ResolveEffective(snap, c.deps.Hostname)
	c.push(level, eff)

	c.record(logging.DecisionEntry{
		Hostname: c.deps.Hostname,
		Trigger:  string(TriggerManual),
		Outcome:  "manual",
		Reason:   "level forced by operator",
		Target:   level,
	})
}

// Status reports the controller's current dimming state.
func (c *Controller) Status() relay.Status {
	c.mu.Lock()
	snap := c.snap
	var brightness *float64
	if c.smoothed != nil {
		b := *c.smoothed
		brightness = &b
	}
	c.mu.Unlock()

	return relay.Status{
		Hostname:        c.deps.Hostname,
		CurrentDimLevel: c.deps.Engine.Current(),
		TargetDimLevel:  c.deps.Engine.Target(),
		LastBrightness:  brightness,
		IsBlacklisted:   policy.IsListed(c.deps.Hostname, snap.Blacklist),
		IsWhitelisted:   policy.IsListed(c.deps.Hostname, snap.Whitelist),
	}
}

// #endregion events
