package config

import (
	"time"

	"autodim/internal/luma"
)

// #region snapshot

// Snapshot is the complete dimming configuration. It is always read and
// written as an atomic whole: updates replace the snapshot, never mutate
// individual fields in place.
type Snapshot struct {
	Enabled             bool                `json:"enabled"`
	DimIntensity        float64             `json:"dim_intensity"`
	BrightnessThreshold float64             `json:"brightness_threshold"`
	DynamicMode         bool                `json:"dynamic_mode"`
	Smoothing           bool                `json:"smoothing"`
	SmoothingDurationMs int                 `json:"smoothing_duration_ms"`
	SiteOverrides       map[string]Override `json:"site_overrides,omitempty"`
	Blacklist           []string            `json:"blacklist,omitempty"`
	Whitelist           []string            `json:"whitelist,omitempty"`
}

// Override is a per-site partial override. A nil field inherits the global
// value.
type Override struct {
	Enabled      *bool    `json:"enabled,omitempty"`
	DimIntensity *float64 `json:"dim_intensity,omitempty"`
}

// #endregion snapshot

// #region defaults

// Default returns the configuration used when nothing is stored.
func Default() Snapshot {
	return Snapshot{
		Enabled:             true,
		DimIntensity:        0.5,
		BrightnessThreshold: 0.6,
		DynamicMode:         true,
		Smoothing:           true,
		SmoothingDurationMs: 600,
	}
}

// #endregion defaults

// #region normalize

// Normalize clamps all float fields to [0,1] and floors the smoothing
// duration at zero. It returns a copy; the receiver is not mutated.
func (s Snapshot) Normalize() Snapshot {
	s.DimIntensity = luma.Clamp(s.DimIntensity)
	s.BrightnessThreshold = luma.Clamp(s.BrightnessThreshold)
	if s.SmoothingDurationMs < 0 {
		s.SmoothingDurationMs = 0
	}
	if len(s.SiteOverrides) > 0 {
		overrides := make(map[string]Override, len(s.SiteOverrides))
		for host, ov := range s.SiteOverrides {
			if ov.DimIntensity != nil {
				v := luma.Clamp(*ov.DimIntensity)
				ov.DimIntensity = &v
			}
			overrides[host] = ov
		}
		s.SiteOverrides = overrides
	}
	return s
}

// SmoothingDuration returns the configured transition duration.
func (s Snapshot) SmoothingDuration() time.Duration {
	return time.Duration(s.SmoothingDurationMs) * time.Millisecond
}

// #endregion normalize
