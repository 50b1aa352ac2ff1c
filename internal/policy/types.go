package policy

import "time"

// #region effective

// Effective is the configuration in force for one hostname: the global
// snapshot with the matching site override's defined fields applied on top.
// It is derived fresh on every evaluation and never cached.
type Effective struct {
	Enabled             bool
	DimIntensity        float64
	BrightnessThreshold float64
	DynamicMode         bool
	Smoothing           bool
	SmoothingDurationMs int
}

// SmoothingDuration returns the effective transition duration.
func (e Effective) SmoothingDuration() time.Duration {
	return time.Duration(e.SmoothingDurationMs) * time.Millisecond
}

// #endregion effective

// #region outcome

// Outcome labels what a policy evaluation decided.
type Outcome string

const (
	OutcomeDisabled    Outcome = "disabled"
	OutcomeBlacklisted Outcome = "blacklisted"
	OutcomeWhitelisted Outcome = "whitelisted"
	OutcomeScaled      Outcome = "scaled"
)

// #endregion outcome

// #region decision

// Decision is the output of one policy evaluation.
type Decision struct {
	Target      float64
	Outcome     Outcome
	Reason      string
	Blacklisted bool
	Whitelisted bool
}

// #endregion decision
