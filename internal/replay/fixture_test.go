package replay

import (
	"os"
	"path/filepath"
	"testing"
)

// #region fixture-tests

// runFixture loads a fixture, replays it, and compares every cycle against
// the expected results. These are the regression baselines: if the loop
// tuning or policy semantics drift, they catch it.
func runFixture(t *testing.T, name string) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results := Replay(f.ToTrace(), f.ToConfig())
	if len(results) != len(f.Expected) {
		t.Fatalf("expected %d results, got %d", len(f.Expected), len(results))
	}

	for i, expected := range f.Expected {
		actual := results[i]
		if !expected.Matches(actual) {
			t.Errorf("cycle %d: expected outcome=%s target=%v applied=%v level=%v; got outcome=%s target=%v applied=%v level=%v (reason: %s)",
				i, expected.Outcome, expected.Target, expected.Applied, expected.Level,
				actual.Outcome, actual.Target, actual.Applied, actual.Level, actual.Reason)
		}
	}
}

func TestFixture_BrightSession(t *testing.T) {
	runFixture(t, "bright_session.json")
}

func TestFixture_WhitelistSession(t *testing.T) {
	runFixture(t, "whitelist_session.json")
}

func TestLoadFixture_MissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFixture_RequiresHostname(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"cycles": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for fixture without hostname")
	}
}

// #endregion fixture-tests
