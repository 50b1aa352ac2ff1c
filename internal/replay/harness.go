package replay

import (
	"math"

	"autodim/internal/config"
	"autodim/internal/luma"
	"autodim/internal/policy"
)

// #region types

// Cycle is one recorded control pass: a raw brightness reading, optionally
// preceded by a configuration change.
type Cycle struct {
	Brightness float64
	// Snapshot, when non-nil, replaces the active configuration before this
	// cycle evaluates, modeling a config update landing between samples.
	Snapshot *config.Snapshot
}

// Trace is a recorded session for one hostname.
type Trace struct {
	Hostname string
	Snapshot config.Snapshot
	Cycles   []Cycle
}

// Config holds the smoothing knobs the replay pipeline shares with the live
// control loop.
type Config struct {
	Alpha          float64
	ApplyThreshold float64
}

// DefaultConfig returns the production loop tuning.
func DefaultConfig() Config {
	return Config{Alpha: 0.3, ApplyThreshold: 0.03}
}

// CycleResult captures the outcome of replaying one cycle.
type CycleResult struct {
	Index    int
	Raw      float64
	Smoothed float64
	Outcome  policy.Outcome
	Reason   string
	Target   float64
	// Applied reports whether the cycle changed the overlay level.
	Applied bool
	// Level is the settled overlay level after this cycle; transitions are
	// modeled as instantaneous.
	Level float64
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCycles   int
	Applied       int
	Suppressed    int
	Skipped       int
	FinalLevel    float64
	FinalSmoothed float64
}

// #endregion types

// #region replay

// Replay runs a recorded trace through the same decision pipeline as the
// live loop: skip checks, EMA smoothing, policy evaluation, apply-threshold
// gating. Operates entirely in-memory.
func Replay(trace Trace, cfg Config) []CycleResult {
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = DefaultConfig().Alpha
	}
	if cfg.ApplyThreshold <= 0 {
		cfg.ApplyThreshold = DefaultConfig().ApplyThreshold
	}

	snap := trace.Snapshot.Normalize()
	results := make([]CycleResult, 0, len(trace.Cycles))

	var (
		smoothed    *float64
		lastApplied *float64
		level       float64
	)

	for i, c := range trace.Cycles {
		if c.Snapshot != nil {
			snap = c.Snapshot.Normalize()
		}

		if skip, outcome, _ := policy.ShouldSkip(snap, trace.Hostname); skip {
			applied := level != 0
			if applied {
				level = 0
				zero := 0.0
				lastApplied = &zero
			}
			r := CycleResult{
				Index:   i,
				Outcome: outcome,
				Reason:  "dimming ruled out before sampling",
				Applied: applied,
				Level:   level,
			}
			if smoothed != nil {
				r.Smoothed = *smoothed
			}
			results = append(results, r)
			continue
		}

		raw := luma.Clamp(c.Brightness)
		var s float64
		if smoothed == nil {
			s = raw
		} else {
			s = cfg.Alpha*raw + (1-cfg.Alpha)*(*smoothed)
		}
		smoothed = &s

		dec := policy.Evaluate(snap, trace.Hostname, s)
		applied := lastApplied == nil || math.Abs(dec.Target-*lastApplied) >= cfg.ApplyThreshold
		if applied {
			l := dec.Target
			lastApplied = &l
			level = dec.Target
		}

		results = append(results, CycleResult{
			Index:    i,
			Raw:      raw,
			Smoothed: s,
			Outcome:  dec.Outcome,
			Reason:   dec.Reason,
			Target:   dec.Target,
			Applied:  applied,
			Level:    level,
		})
	}

	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CycleResult) Summary {
	s := Summary{TotalCycles: len(results)}
	for _, r := range results {
		switch {
		case r.Outcome == policy.OutcomeDisabled || r.Outcome == policy.OutcomeBlacklisted:
			s.Skipped++
		case r.Applied:
			s.Applied++
		default:
			s.Suppressed++
		}
	}
	if n := len(results); n > 0 {
		s.FinalLevel = results[n-1].Level
		s.FinalSmoothed = results[n-1].Smoothed
	}
	return s
}

// #endregion replay
