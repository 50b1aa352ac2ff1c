package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"autodim/internal/logging"
	"autodim/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to autodim.db")
	host := flag.String("host", "", "show decision history for one hostname")
	last := flag.Int("last", 20, "show N most recent decisions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/autodim.db [--host example.com] [--last N] [--json]")
		os.Exit(2)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *host != "" {
		if err := runHostMode(st, *host, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := runListMode(st, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region list-mode

type siteRow struct {
	Hostname   string   `json:"hostname"`
	DimLevel   float64  `json:"dim_level"`
	Brightness *float64 `json:"brightness,omitempty"`
	UpdatedAt  string   `json:"updated_at"`
	Fresh      bool     `json:"fresh"`
}

func runListMode(st *store.Store, jsonOut bool) error {
	states, err := st.ListSiteStates()
	if err != nil {
		return err
	}
	if len(states) == 0 {
		fmt.Fprintln(os.Stderr, "no site states found")
		return nil
	}

	rows := make([]siteRow, 0, len(states))
	for hostname, s := range states {
		rows = append(rows, siteRow{
			Hostname:   hostname,
			DimLevel:   s.LastDimLevel,
			Brightness: s.LastBrightness,
			UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
			Fresh:      time.Since(s.UpdatedAt) <= store.FreshnessWindow,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hostname < rows[j].Hostname })

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-30s  %9s  %10s  %-5s  %s\n", "Hostname", "Dim", "Brightness", "Fresh", "Updated")
	for _, r := range rows {
		brightness := "—"
		if r.Brightness != nil {
			brightness = fmt.Sprintf("%.4f", *r.Brightness)
		}
		fmt.Printf("%-30s  %9.4f  %10s  %-5v  %s\n", r.Hostname, r.DimLevel, brightness, r.Fresh, r.UpdatedAt)
	}
	return nil
}

// #endregion list-mode

// #region host-mode

type decisionRow struct {
	Trigger    string   `json:"trigger"`
	Outcome    string   `json:"outcome"`
	Reason     string   `json:"reason,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	Target     float64  `json:"target"`
	CreatedAt  string   `json:"created_at"`
}

func runHostMode(st *store.Store, host string, last int, jsonOut bool) error {
	entries, err := logging.NewDecisionLog(st.DB()).Recent(host, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no decisions found for %s\n", host)
		return nil
	}

	// Newest first from the log; show chronological.
	rows := make([]decisionRow, len(entries))
	for i, e := range entries {
		rows[len(entries)-1-i] = decisionRow{
			Trigger:    e.Trigger,
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			Brightness: e.Brightness,
			Target:     e.Target,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	if state, ok, err := st.LoadSiteState(host); err == nil && ok {
		fmt.Printf("Current dim level: %.4f (updated %s)\n\n", state.LastDimLevel, state.UpdatedAt.Format(time.RFC3339))
	}

	fmt.Printf("%-11s  %-12s  %10s  %8s  %-20s  %s\n", "Trigger", "Outcome", "Brightness", "Target", "Time", "Reason")
	for _, r := range rows {
		brightness := "—"
		if r.Brightness != nil {
			brightness = fmt.Sprintf("%.4f", *r.Brightness)
		}
		fmt.Printf("%-11s  %-12s  %10s  %8.4f  %-20s  %s\n",
			r.Trigger, r.Outcome, brightness, r.Target, r.CreatedAt, r.Reason)
	}
	return nil
}

// #endregion host-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
