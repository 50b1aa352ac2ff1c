package sampler

import "autodim/internal/luma"

// #region sampler

// NeutralBrightness is assumed when not a single sample point yields a
// usable color: moderate brightness, biasing neither toward nor away from
// dimming.
const NeutralBrightness = 0.5

// Sampler measures the perceived brightness of a view in one synchronous
// pass. It holds no state between passes.
type Sampler struct {
	surface ViewSurface
	config  Config
}

// New creates a sampler over the given surface. A non-positive grid size
// falls back to the default.
func New(surface ViewSurface, config Config) *Sampler {
	if config.GridSize <= 0 {
		config.GridSize = DefaultConfig().GridSize
	}
	return &Sampler{surface: surface, config: config}
}

// #endregion sampler

// #region sample

// Sample lays a GridSize×GridSize grid of points across the viewport, offset
// by half a cell to avoid edge artifacts, and reads the background
// brightness under each point, skipping the overlay element itself via
// excludeID. Points with transparent or unparseable backgrounds carry no
// signal. The root and body backgrounds are then folded in, each weighted at
// half the accumulated grid weight, to anchor the average against large
// uniform backgrounds the grid under-samples. With no signal at all the
// result is NeutralBrightness.
func (s *Sampler) Sample(excludeID string) float64 {
	width, height := s.surface.ViewportSize()
	n := s.config.GridSize

	var sum, weight float64
	if width > 0 && height > 0 {
		cellW := float64(width) / float64(n)
		cellH := float64(height) / float64(n)
		for row := 0; row < n; row++ {
			for col := 0; col < n; col++ {
				x := int(cellW*float64(col) + cellW/2)
				y := int(cellH*float64(row) + cellH/2)

				el, ok := s.surface.ElementAt(x, y, excludeID)
				if !ok {
					continue
				}
				color, ok := s.surface.BackgroundColor(el)
				if !ok {
					continue
				}
				b, ok := luma.BrightnessOf(color)
				if !ok {
					continue
				}
				sum += b
				weight++
			}
		}
	}

	anchorWeight := weight / 2
	if anchorWeight > 0 {
		if color, ok := s.surface.RootBackground(); ok {
			if b, ok := luma.BrightnessOf(color); ok {
				sum += b * anchorWeight
				weight += anchorWeight
			}
		}
		if color, ok := s.surface.BodyBackground(); ok {
			if b, ok := luma.BrightnessOf(color); ok {
				sum += b * anchorWeight
				weight += anchorWeight
			}
		}
	}

	if weight == 0 {
		return NeutralBrightness
	}
	return luma.Clamp(sum / weight)
}

// #endregion sample
