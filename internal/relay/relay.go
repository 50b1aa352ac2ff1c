package relay

import (
	"errors"
	"sync"
)

// #region messages

// MessageType names the control messages routed between the control API and
// per-view handlers.
type MessageType string

const (
	MessageConfigUpdated MessageType = "config_updated"
	MessageGetStatus     MessageType = "get_status"
	MessageManualDim     MessageType = "manual_dim"
)

// #endregion messages

// #region status

// Status is a point-in-time snapshot of one view's dimming state, as
// reported over the control API.
type Status struct {
	Hostname        string   `json:"hostname"`
	CurrentDimLevel float64  `json:"currentDimLevel"`
	TargetDimLevel  float64  `json:"targetDimLevel"`
	LastBrightness  *float64 `json:"lastBrightness"`
	IsBlacklisted   bool     `json:"isBlacklisted"`
	IsWhitelisted   bool     `json:"isWhitelisted"`
}

// #endregion status

// #region handler

// ViewHandler is implemented by each view's control loop. The bus fans
// control messages out to registered handlers.
type ViewHandler interface {
	// OnConfigUpdated tells the handler the stored configuration changed.
	OnConfigUpdated()
	// Status reports the handler's current dimming state.
	Status() Status
	// ManualDim forces the dim level, bypassing policy.
	ManualDim(level float64)
}

// ErrViewUnavailable is returned when a message targets a view that has no
// registered handler.
var ErrViewUnavailable = errors.New("relay: view unavailable")

// #endregion handler

// #region bus

// Bus routes control messages to registered view handlers. All methods are
// safe for concurrent use.
type Bus struct {
	mu    sync.RWMutex
	views map[string]ViewHandler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{views: make(map[string]ViewHandler)}
}

// Register attaches a handler under a view ID, replacing any previous
// handler with the same ID.
func (b *Bus) Register(viewID string, h ViewHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[viewID] = h
}

// Unregister detaches the handler for viewID, if any.
func (b *Bus) Unregister(viewID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.views, viewID)
}

// Views returns the IDs of all registered views.
func (b *Bus) Views() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.views))
	for id := range b.views {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastConfigUpdated notifies every registered handler that the stored
// configuration changed. Handlers are called outside the bus lock so they
// may call back into the bus.
func (b *Bus) BroadcastConfigUpdated() {
	b.mu.RLock()
	handlers := make([]ViewHandler, 0, len(b.views))
	for _, h := range b.views {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h.OnConfigUpdated()
	}
}

// Status reports the dimming state of one view.
func (b *Bus) Status(viewID string) (Status, error) {
	b.mu.RLock()
	h, ok := b.views[viewID]
	b.mu.RUnlock()
	if !ok {
		return Status{}, ErrViewUnavailable
	}
	return h.Status(), nil
}

// ManualDim forces the dim level of one view.
func (b *Bus) ManualDim(viewID string, level float64) error {
	b.mu.RLock()
	h, ok := b.views[viewID]
	b.mu.RUnlock()
	if !ok {
		return ErrViewUnavailable
	}
	h.ManualDim(level)
	return nil
}

// #endregion bus
