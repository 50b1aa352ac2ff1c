package main

import (
	"flag"
	"fmt"
	"os"

	"autodim/internal/logging"
	"autodim/internal/replay"
	"autodim/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to autodim.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	host := flag.String("host", "", "hostname to replay (DB mode)")
	last := flag.Int("last", 200, "replay the N most recent decisions (DB mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/autodim.db --host example.com [--last N]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *host, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results := replay.Replay(f.ToTrace(), f.ToConfig())
	printResults(results)

	if len(results) != len(f.Expected) {
		fmt.Fprintf(os.Stderr, "expected %d results, got %d\n", len(f.Expected), len(results))
		return 1
	}

	mismatches := 0
	for i, expected := range f.Expected {
		if !expected.Matches(results[i]) {
			mismatches++
			fmt.Printf("MISMATCH cycle %d: expected outcome=%s target=%.4f applied=%v level=%.4f\n",
				i, expected.Outcome, expected.Target, expected.Applied, expected.Level)
		}
	}

	printSummary(replay.Summarize(results))
	if mismatches > 0 {
		fmt.Printf("\n%d of %d cycles diverged from the fixture baseline\n", mismatches, len(results))
		return 1
	}
	fmt.Println("\nall cycles match the fixture baseline")
	return 0
}

// #endregion fixture-mode

// #region db-mode

// runDBMode replays recorded decisions against the currently stored
// configuration and reports where the pipeline's output drifted from what
// was recorded. Recorded brightness values are already smoothed, so the
// replay runs with alpha 1.
func runDBMode(dbPath, host string, last int) int {
	if host == "" {
		fmt.Fprintln(os.Stderr, "DB mode requires --host")
		return 2
	}

	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	snap, err := st.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}

	entries, err := logging.NewDecisionLog(st.DB()).Recent(host, last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load decisions: %v\n", err)
		return 2
	}

	// Recent returns newest first; replay wants chronological order. Manual
	// and unsampled entries carry no brightness to re-evaluate.
	var (
		cycles   []replay.Cycle
		recorded []logging.DecisionEntry
	)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Brightness == nil || e.Trigger == "manual" {
			continue
		}
		cycles = append(cycles, replay.Cycle{Brightness: *e.Brightness})
		recorded = append(recorded, e)
	}
	if len(cycles) == 0 {
		fmt.Fprintln(os.Stderr, "no replayable decisions found")
		return 1
	}

	results := replay.Replay(
		replay.Trace{Hostname: host, Snapshot: snap, Cycles: cycles},
		replay.Config{Alpha: 1, ApplyThreshold: replay.DefaultConfig().ApplyThreshold},
	)
	printResults(results)

	drifted := 0
	for i, r := range results {
		rec := recorded[i]
		if string(r.Outcome) != rec.Outcome {
			drifted++
			fmt.Printf("DRIFT cycle %d: recorded outcome=%s target=%.4f, replayed outcome=%s target=%.4f\n",
				i, rec.Outcome, rec.Target, r.Outcome, r.Target)
		}
	}

	printSummary(replay.Summarize(results))
	if drifted > 0 {
		fmt.Printf("\n%d of %d cycles drifted from recorded decisions\n", drifted, len(results))
		return 1
	}
	fmt.Println("\nall replayed outcomes match the recorded decisions")
	return 0
}

// #endregion db-mode

// #region output

func printResults(results []replay.CycleResult) {
	fmt.Printf("%-6s  %10s  %10s  %-12s  %8s  %-7s  %8s\n",
		"Cycle", "Raw", "Smoothed", "Outcome", "Target", "Applied", "Level")
	for _, r := range results {
		fmt.Printf("%-6d  %10.4f  %10.4f  %-12s  %8.4f  %-7v  %8.4f\n",
			r.Index, r.Raw, r.Smoothed, r.Outcome, r.Target, r.Applied, r.Level)
	}
}

func printSummary(s replay.Summary) {
	fmt.Printf("\nCycles: %d  Applied: %d  Suppressed: %d  Skipped: %d  Final level: %.4f\n",
		s.TotalCycles, s.Applied, s.Suppressed, s.Skipped, s.FinalLevel)
}

// #endregion output
