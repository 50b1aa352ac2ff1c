package relay

import (
	"errors"
	"sync"
	"testing"
)

type stubHandler struct {
	mu            sync.Mutex
	configUpdates int
	manualLevels  []float64
	status        Status
}

func (s *stubHandler) OnConfigUpdated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configUpdates++
}

func (s *stubHandler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *stubHandler) ManualDim(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualLevels = append(s.manualLevels, level)
}

func TestStatusRouting(t *testing.T) {
	bus := NewBus()
	h := &stubHandler{status: Status{Hostname: "example.com", CurrentDimLevel: 0.3}}
	bus.Register("view-1", h)

	got, err := bus.Status("view-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Hostname != "example.com" || got.CurrentDimLevel != 0.3 {
		t.Errorf("unexpected status: %+v", got)
	}
}

func TestStatusUnknownView(t *testing.T) {
	bus := NewBus()
	_, err := bus.Status("nope")
	if !errors.Is(err, ErrViewUnavailable) {
		t.Fatalf("err = %v, want ErrViewUnavailable", err)
	}
}

func TestManualDim(t *testing.T) {
	bus := NewBus()
	h := &stubHandler{}
	bus.Register("view-1", h)

	if err := bus.ManualDim("view-1", 0.8); err != nil {
		t.Fatalf("manual dim: %v", err)
	}
	if len(h.manualLevels) != 1 || h.manualLevels[0] != 0.8 {
		t.Errorf("manual levels = %v, want [0.8]", h.manualLevels)
	}

	if err := bus.ManualDim("gone", 0.5); !errors.Is(err, ErrViewUnavailable) {
		t.Fatalf("err = %v, want ErrViewUnavailable", err)
	}
}

func TestBroadcastConfigUpdated(t *testing.T) {
	bus := NewBus()
	a := &stubHandler{}
	b := &stubHandler{}
	bus.Register("a", a)
	bus.Register("b", b)

	bus.BroadcastConfigUpdated()
	if a.configUpdates != 1 || b.configUpdates != 1 {
		t.Errorf("config updates = %d, %d; want 1, 1", a.configUpdates, b.configUpdates)
	}
}

func TestUnregister(t *testing.T) {
	bus := NewBus()
	bus.Register("a", &stubHandler{})
	bus.Unregister("a")

	if _, err := bus.Status("a"); !errors.Is(err, ErrViewUnavailable) {
		t.Fatalf("err = %v, want ErrViewUnavailable", err)
	}
	if got := bus.Views(); len(got) != 0 {
		t.Errorf("views = %v, want empty", got)
	}
}

func TestRegisterReplaces(t *testing.T) {
	bus := NewBus()
	bus.Register("a", &stubHandler{status: Status{Hostname: "old.example"}})
	bus.Register("a", &stubHandler{status: Status{Hostname: "new.example"}})

	got, err := bus.Status("a")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Hostname != "new.example" {
		t.Errorf("hostname = %s, want new.example", got.Hostname)
	}
}
