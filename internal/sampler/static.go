package sampler

import "sync"

// #region static-surface

// StaticSurface is a synthetic ViewSurface with one uniform fill color,
// used by the daemon harness and tests. The fill can be swapped at runtime
// to simulate content changes.
type StaticSurface struct {
	mu     sync.RWMutex
	width  int
	height int
	fill   string
	root   string
	body   string
}

// NewStaticSurface creates a surface of the given size where every point,
// the root, and the body all report fill as their background color.
func NewStaticSurface(width, height int, fill string) *StaticSurface {
	return &StaticSurface{width: width, height: height, fill: fill, root: fill, body: fill}
}

// SetFill replaces the uniform background color.
func (s *StaticSurface) SetFill(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill = color
	s.root = color
	s.body = color
}

// SetAnchors overrides the root and body backgrounds independently of the
// grid fill.
func (s *StaticSurface) SetAnchors(root, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.body = body
}

func (s *StaticSurface) ViewportSize() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *StaticSurface) ElementAt(x, y int, excludeID string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return nil, false
	}
	return s.fill, true
}

func (s *StaticSurface) BackgroundColor(el Element) (string, bool) {
	color, ok := el.(string)
	return color, ok
}

func (s *StaticSurface) RootBackground() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, s.root != ""
}

func (s *StaticSurface) BodyBackground() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.body, s.body != ""
}

// #endregion static-surface
