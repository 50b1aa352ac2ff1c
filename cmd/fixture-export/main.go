package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"autodim/internal/logging"
	"autodim/internal/replay"
	"autodim/internal/store"
)

// #region main

// fixture-export turns a hostname's recorded decision history into a replay
// fixture: the cycles come from the decision log, and the expected results
// are the replay pipeline's own output, frozen as a regression baseline.
func main() {
	dbPath := flag.String("db", "", "path to autodim.db")
	host := flag.String("host", "", "hostname to export")
	last := flag.Int("last", 200, "export the N most recent decisions")
	out := flag.String("out", "", "output fixture path (default stdout)")
	description := flag.String("description", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *host == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/autodim.db --host example.com [--last N] [--out fixture.json]")
		os.Exit(2)
	}

	if err := run(*dbPath, *host, *last, *out, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, host string, last int, out, description string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	snap, err := st.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := logging.NewDecisionLog(st.DB()).Recent(host, last)
	if err != nil {
		return fmt.Errorf("load decisions: %w", err)
	}

	// Newest first from the log; fixtures are chronological. Manual and
	// unsampled entries carry no brightness to replay.
	var cycles []replay.FixtureCycle
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Brightness == nil || e.Trigger == "manual" {
			continue
		}
		cycles = append(cycles, replay.FixtureCycle{Brightness: *e.Brightness})
	}
	if len(cycles) == 0 {
		return fmt.Errorf("no replayable decisions found for %s", host)
	}

	if description == "" {
		description = fmt.Sprintf("Exported from %s: %d recorded cycles for %s.", dbPath, len(cycles), host)
	}

	// Recorded brightness values are already smoothed, so the fixture pins
	// alpha at 1 to avoid double-smoothing on replay.
	f := replay.Fixture{
		Description: description,
		Hostname:    host,
		Snapshot:    snap,
		Replay:      replay.FixtureReplayCfg{Alpha: 1, ApplyThreshold: replay.DefaultConfig().ApplyThreshold},
		Cycles:      cycles,
	}

	results := replay.Replay(f.ToTrace(), f.ToConfig())
	f.Expected = make([]replay.FixtureExpected, len(results))
	for i, r := range results {
		f.Expected[i] = replay.FixtureExpected{
			Outcome: string(r.Outcome),
			Target:  r.Target,
			Applied: r.Applied,
			Level:   r.Level,
		}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d cycles to %s\n", len(cycles), out)
	return nil
}

// #endregion export
