package logging

import (
	"path/filepath"
	"testing"

	"autodim/internal/store"
)

func newTestLog(t *testing.T) *DecisionLog {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "autodim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewDecisionLog(s.DB())
}

func TestRecordAndRecent(t *testing.T) {
	l := newTestLog(t)

	b := 0.9
	entries := []DecisionEntry{
		{Hostname: "a.example", Trigger: "startup", Outcome: "scaled", Reason: "first cycle", Brightness: &b, Target: 0.375},
		{Hostname: "a.example", Trigger: "timer", Outcome: "scaled", Target: 0.375},
		{Hostname: "b.example", Trigger: "manual", Outcome: "manual", Target: 0.8},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := l.Recent("a.example", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries for a.example, want 2", len(got))
	}
	// Newest first.
	if got[0].Trigger != "timer" || got[1].Trigger != "startup" {
		t.Errorf("unexpected order: %s, %s", got[0].Trigger, got[1].Trigger)
	}
	if got[0].EntryID == "" {
		t.Error("entry ID not filled in")
	}
	if got[0].Brightness != nil {
		t.Error("expected nil brightness for unsampled entry")
	}
	if got[1].Brightness == nil || *got[1].Brightness != 0.9 {
		t.Errorf("brightness = %v, want 0.9", got[1].Brightness)
	}

	all, err := l.Recent("", 10)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries total, want 3", len(all))
	}
}

func TestRecentLimit(t *testing.T) {
	l := newTestLog(t)
	for i := 0; i < 5; i++ {
		if err := l.Record(DecisionEntry{Hostname: "h.example", Trigger: "timer", Outcome: "scaled"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := l.Recent("h.example", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d entries, want 3", len(got))
	}
}
