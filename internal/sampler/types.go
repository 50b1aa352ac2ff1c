package sampler

// #region surface

// Element is an opaque handle to a rendered element, owned by the host
// surface. The sampler never inspects it beyond passing it back.
type Element any

// ViewSurface abstracts the platform primitives the sampler needs, so the
// grid algorithm stays platform-agnostic and testable with synthetic views.
type ViewSurface interface {
	// ViewportSize returns the visible width and height in pixels.
	ViewportSize() (width, height int)
	// ElementAt resolves the topmost rendered element at a point, ignoring
	// the element with excludeID. ok is false when nothing renders there.
	ElementAt(x, y int, excludeID string) (Element, bool)
	// BackgroundColor reads the effective background color of an element as
	// a CSS-style color string. ok is false when none is set.
	BackgroundColor(el Element) (string, bool)
	// RootBackground returns the root document background color.
	RootBackground() (string, bool)
	// BodyBackground returns the content body background color.
	BodyBackground() (string, bool)
}

// #endregion surface

// #region config

// Config holds sampler tuning knobs.
type Config struct {
	// GridSize is the number of sample points per axis. Smaller grids are
	// noisier; larger grids cost more per pass.
	GridSize int
}

// DefaultConfig returns the validated defaults.
func DefaultConfig() Config {
	return Config{GridSize: 10}
}

// #endregion config
