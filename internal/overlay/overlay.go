package overlay

import (
	"sync"

	"autodim/internal/luma"
)

// #region surface

// Handle identifies an attached overlay element.
type Handle any

// Surface owns the translucent full-viewport element in the host view.
// Implementations are best-effort; these operations have no failure modes.
type Surface interface {
	// Ensure attaches the overlay element with the given identifier if it is
	// not already present: stacked above all content, non-interactive, at
	// opacity zero. Idempotent.
	Ensure(id string) Handle
	// SetOpacity applies a dim level to an attached overlay. The level is
	// clamped to [0,1] before applying, guarding against upstream arithmetic
	// producing out-of-range values.
	SetOpacity(h Handle, level float64)
	// Remove detaches the overlay element and any orphaned duplicate
	// carrying the same identifier.
	Remove(id string)
}

// #endregion surface

// #region memory

type element struct {
	id      string
	opacity float64
}

// Memory is an in-process Surface used by the daemon harness and tests.
type Memory struct {
	mu       sync.Mutex
	elements map[string]*element
}

// NewMemory creates an empty in-process surface.
func NewMemory() *Memory {
	return &Memory{elements: make(map[string]*element)}
}

func (m *Memory) Ensure(id string) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.elements[id]; ok {
		return el
	}
	el := &element{id: id}
	m.elements[id] = el
	return el
}

func (m *Memory) SetOpacity(h Handle, level float64) {
	el, ok := h.(*element)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el.opacity = luma.Clamp(level)
}

func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.elements, id)
}

// Opacity reports the current opacity of an attached overlay. ok is false
// when no element with the identifier is attached.
func (m *Memory) Opacity(id string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[id]
	if !ok {
		return 0, false
	}
	return el.opacity, true
}

// Attached reports whether an overlay with the identifier is present.
func (m *Memory) Attached(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.elements[id]
	return ok
}

// #endregion memory
