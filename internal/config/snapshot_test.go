package config

import "testing"

func TestNormalizeClampsFloats(t *testing.T) {
	over := 1.8
	snap := Snapshot{
		DimIntensity:        1.5,
		BrightnessThreshold: -0.2,
		SmoothingDurationMs: -100,
		SiteOverrides: map[string]Override{
			"example.com": {DimIntensity: &over},
		},
	}

	got := snap.Normalize()

	if got.DimIntensity != 1 {
		t.Errorf("DimIntensity = %f, want 1", got.DimIntensity)
	}
	if got.BrightnessThreshold != 0 {
		t.Errorf("BrightnessThreshold = %f, want 0", got.BrightnessThreshold)
	}
	if got.SmoothingDurationMs != 0 {
		t.Errorf("SmoothingDurationMs = %d, want 0", got.SmoothingDurationMs)
	}
	if ov := got.SiteOverrides["example.com"]; ov.DimIntensity == nil || *ov.DimIntensity != 1 {
		t.Errorf("override DimIntensity = %v, want 1", ov.DimIntensity)
	}
	// The input snapshot's override pointer must be untouched.
	if over != 1.8 {
		t.Error("Normalize mutated the input override")
	}
}

func TestNormalizeInRangeIsIdentity(t *testing.T) {
	snap := Default()
	got := snap.Normalize()
	if got.DimIntensity != snap.DimIntensity || got.BrightnessThreshold != snap.BrightnessThreshold {
		t.Errorf("Normalize changed in-range values: %+v", got)
	}
}

func TestDefaultIsEnabled(t *testing.T) {
	d := Default()
	if !d.Enabled || !d.DynamicMode || !d.Smoothing {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.DimIntensity <= 0 || d.DimIntensity > 1 {
		t.Errorf("default intensity out of range: %f", d.DimIntensity)
	}
}
