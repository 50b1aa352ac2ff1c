package loop

import (
	"time"

	"github.com/rs/zerolog"

	"autodim/internal/config"
	"autodim/internal/logging"
	"autodim/internal/overlay"
	"autodim/internal/store"
	"autodim/internal/transition"
)

// #region triggers

// Trigger labels what caused a control cycle to run.
type Trigger string

const (
	TriggerStartup    Trigger = "startup"
	TriggerTimer      Trigger = "timer"
	TriggerVisibility Trigger = "visibility"
	TriggerScroll     Trigger = "scroll"
	TriggerConfig     Trigger = "config"
	TriggerManual     Trigger = "manual"
)

// #endregion triggers

// #region config

// Config holds the control-loop timing and smoothing knobs.
type Config struct {
	// SampleInterval is the periodic resampling cadence in dynamic mode.
	SampleInterval time.Duration
	// Alpha is the EMA smoothing factor applied to raw brightness readings.
	Alpha float64
	// ApplyThreshold is the minimum change against the last applied target
	// before a new level is pushed to the transition engine.
	ApplyThreshold float64
	// ScrollDebounce delays scroll-triggered cycles until scrolling settles.
	ScrollDebounce time.Duration
}

// DefaultConfig returns the production control-loop tuning.
func DefaultConfig() Config {
	return Config{
		SampleInterval: 3000 * time.Millisecond,
		Alpha:          0.3,
		ApplyThreshold: 0.03,
		ScrollDebounce: 500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		c.Alpha = d.Alpha
	}
	if c.ApplyThreshold <= 0 {
		c.ApplyThreshold = d.ApplyThreshold
	}
	if c.ScrollDebounce <= 0 {
		c.ScrollDebounce = d.ScrollDebounce
	}
	return c
}

// #endregion config

// #region collaborators

// BrightnessSampler measures the view's brightness, skipping the element
// with the given identifier.
type BrightnessSampler interface {
	Sample(excludeID string) float64
}

// ConfigSource supplies the current configuration snapshot.
type ConfigSource interface {
	LoadConfig() (config.Snapshot, error)
}

// SiteStore persists per-site dimming state across sessions.
type SiteStore interface {
	LoadSiteState(hostname string) (store.SiteState, bool, error)
	SaveSiteState(hostname string, st store.SiteState) error
}

// DecisionSink receives an audit record for every decision the loop makes.
type DecisionSink interface {
	Record(entry logging.DecisionEntry) error
}

// Deps wires a controller to its collaborators. Decisions may be nil when no
// audit log is wanted.
type Deps struct {
	Hostname  string
	Sampler   BrightnessSampler
	Engine    *transition.Engine
	Overlay   overlay.Surface
	Config    ConfigSource
	Sites     SiteStore
	Decisions DecisionSink
	Logger    zerolog.Logger
}

// #endregion collaborators
