package logging

import "time"

// #region decision-entry

// DecisionEntry is a single row in the decision_log table: one control-loop
// decision for a hostname, recorded so dimming behavior can be audited and
// replayed later.
type DecisionEntry struct {
	EntryID    string
	Hostname   string
	Trigger    string // "startup" | "timer" | "visibility" | "scroll" | "config" | "manual"
	Outcome    string // "disabled" | "blacklisted" | "whitelisted" | "scaled" | "manual"
	Reason     string
	Brightness *float64 // nil when the cycle never sampled
	Target     float64
	CreatedAt  time.Time
}

// #endregion decision-entry
