package policy

import (
	"fmt"
	"strings"

	"autodim/internal/config"
	"autodim/internal/luma"
)

// #region resolve

// ResolveEffective shallow-merges the site override for hostname onto the
// global snapshot. Absent override fields inherit the global value.
func ResolveEffective(snap config.Snapshot, hostname string) Effective {
	eff := Effective{
		Enabled:             snap.Enabled,
		DimIntensity:        luma.Clamp(snap.DimIntensity),
		BrightnessThreshold: luma.Clamp(snap.BrightnessThreshold),
		DynamicMode:         snap.DynamicMode,
		Smoothing:           snap.Smoothing,
		SmoothingDurationMs: snap.SmoothingDurationMs,
	}
	if ov, ok := snap.SiteOverrides[hostname]; ok {
		if ov.Enabled != nil {
			eff.Enabled = *ov.Enabled
		}
		if ov.DimIntensity != nil {
			eff.DimIntensity = luma.Clamp(*ov.DimIntensity)
		}
	}
	return eff
}

// #endregion resolve

// #region listing

// IsListed reports whether hostname matches any pattern. A hostname and a
// pattern match when either contains the other as an exact, case-sensitive
// substring; there is no wildcard or glob expansion. An empty hostname or an
// empty pattern never matches.
func IsListed(hostname string, patterns []string) bool {
	if hostname == "" {
		return false
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(hostname, p) || strings.Contains(p, hostname) {
			return true
		}
	}
	return false
}

// #endregion listing

// #region dim-amount

// ComputeDimAmount maps a brightness reading to a target dim level.
// Brightness at or below the threshold never dims: strictly greater is
// required to trigger. Binary mode dims at full configured strength; dynamic
// mode scales linearly across the remaining brightness range.
func ComputeDimAmount(brightness, threshold, maxIntensity float64, dynamicMode bool) float64 {
	brightness = luma.Clamp(brightness)
	threshold = luma.Clamp(threshold)
	maxIntensity = luma.Clamp(maxIntensity)

	if brightness <= threshold {
		return 0
	}
	if !dynamicMode {
		return maxIntensity
	}
	span := 1 - threshold
	if span <= 0 {
		// Unreachable with clamped inputs, since brightness cannot exceed a
		// threshold of 1; return full scale rather than divide by zero.
		return maxIntensity
	}
	return luma.Clamp(maxIntensity * (brightness - threshold) / span)
}

// #endregion dim-amount

// #region skip

// ShouldSkip reports whether dimming is ruled out for hostname before any
// brightness is sampled: the blacklist short-circuits everything, and a
// disabled effective config skips the rest of the cycle. The effective
// config it resolves is returned so callers need not resolve it again.
func ShouldSkip(snap config.Snapshot, hostname string) (bool, Outcome, Effective) {
	eff := ResolveEffective(snap, hostname)
	if IsListed(hostname, snap.Blacklist) {
		return true, OutcomeBlacklisted, eff
	}
	if !eff.Enabled {
		return true, OutcomeDisabled, eff
	}
	return false, "", eff
}

// #endregion skip

// #region evaluate

// Evaluate computes the target dim level for hostname given a brightness
// reading. Precedence: blacklist, then effective enabled flag, then
// whitelist (which bypasses the brightness check entirely), then threshold
// scaling.
func Evaluate(snap config.Snapshot, hostname string, brightness float64) Decision {
	eff := ResolveEffective(snap, hostname)
	d := Decision{
		Blacklisted: IsListed(hostname, snap.Blacklist),
		Whitelisted: IsListed(hostname, snap.Whitelist),
	}

	switch {
	case d.Blacklisted:
		d.Outcome = OutcomeBlacklisted
		d.Reason = "hostname is blacklisted"
	case !eff.Enabled:
		d.Outcome = OutcomeDisabled
		d.Reason = "dimming disabled for hostname"
	case d.Whitelisted:
		d.Outcome = OutcomeWhitelisted
		d.Target = eff.DimIntensity
		d.Reason = fmt.Sprintf("hostname is whitelisted, dim at intensity %.3f", eff.DimIntensity)
	default:
		d.Outcome = OutcomeScaled
		d.Target = ComputeDimAmount(brightness, eff.BrightnessThreshold, eff.DimIntensity, eff.DynamicMode)
		d.Reason = fmt.Sprintf("brightness %.3f against threshold %.3f", brightness, eff.BrightnessThreshold)
	}
	return d
}

// #endregion evaluate
