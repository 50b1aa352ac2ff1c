package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"autodim/internal/config"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Hostname    string            `json:"hostname"`
	Snapshot    config.Snapshot   `json:"snapshot"`
	Replay      FixtureReplayCfg  `json:"replay"`
	Cycles      []FixtureCycle    `json:"cycles"`
	Expected    []FixtureExpected `json:"expected"`
}

// FixtureReplayCfg mirrors Config with JSON tags. Zero values select the
// production defaults.
type FixtureReplayCfg struct {
	Alpha          float64 `json:"alpha"`
	ApplyThreshold float64 `json:"applyThreshold"`
}

// FixtureCycle mirrors Cycle with JSON tags.
type FixtureCycle struct {
	Brightness float64          `json:"brightness"`
	Snapshot   *config.Snapshot `json:"snapshot,omitempty"`
}

// FixtureExpected captures the expected outcome per cycle.
type FixtureExpected struct {
	Outcome string  `json:"outcome"`
	Target  float64 `json:"target"`
	Applied bool    `json:"applied"`
	Level   float64 `json:"level"`
}

// #endregion fixture-types

// #region conversions

// ToTrace converts the fixture to a domain trace.
func (f *Fixture) ToTrace() Trace {
	cycles := make([]Cycle, len(f.Cycles))
	for i, c := range f.Cycles {
		cycles[i] = Cycle{Brightness: c.Brightness, Snapshot: c.Snapshot}
	}
	return Trace{Hostname: f.Hostname, Snapshot: f.Snapshot, Cycles: cycles}
}

// ToConfig converts the fixture's replay knobs, applying defaults for zero
// values.
func (f *Fixture) ToConfig() Config {
	cfg := DefaultConfig()
	if f.Replay.Alpha > 0 {
		cfg.Alpha = f.Replay.Alpha
	}
	if f.Replay.ApplyThreshold > 0 {
		cfg.ApplyThreshold = f.Replay.ApplyThreshold
	}
	return cfg
}

// #endregion conversions

// #region load

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Hostname == "" {
		return nil, fmt.Errorf("fixture %s: hostname is required", path)
	}
	return &f, nil
}

// Matches compares a replay result against the fixture expectation within a
// small float tolerance.
func (e FixtureExpected) Matches(r CycleResult) bool {
	const tol = 1e-6
	return string(r.Outcome) == e.Outcome &&
		r.Applied == e.Applied &&
		within(r.Target, e.Target, tol) &&
		within(r.Level, e.Level, tol)
}

func within(a, b, tol float64) bool {
	d := a - b
	return d < tol && d > -tol
}

// #endregion load
