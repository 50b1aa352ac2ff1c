package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"autodim/internal/config"
	"autodim/internal/luma"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS config_snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS site_state (
	hostname   TEXT PRIMARY KEY,
	dim_level  REAL NOT NULL,
	brightness REAL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id   TEXT NOT NULL,
	hostname   TEXT NOT NULL,
	trigger_kind TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	reason     TEXT,
	brightness REAL,
	target     REAL NOT NULL,
	created_at TEXT NOT NULL
);
`

// #endregion schema

// #region types

// FreshnessWindow bounds how old a persisted site state may be before
// loads treat it as absent.
const FreshnessWindow = 24 * time.Hour

// SiteState is the per-site persisted state contract.
type SiteState struct {
	LastDimLevel   float64
	LastBrightness *float64 // nil when no brightness reading has been recorded
	UpdatedAt      time.Time
}

// #endregion types

// #region store-struct

// Store persists configuration snapshots and per-site state in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor

// DB returns the underlying *sql.DB for use by other packages (e.g. the
// decision log).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region config

// LoadConfig returns the stored configuration snapshot, or defaults when
// nothing is stored. The snapshot is normalized before returning.
func (s *Store) LoadConfig() (config.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM config_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Snapshot{}, fmt.Errorf("load config: %w", err)
	}

	var snap config.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return config.Snapshot{}, fmt.Errorf("decode config: %w", err)
	}
	return snap.Normalize(), nil
}

// SaveConfig replaces the stored snapshot as an atomic whole. Field-level
// writes are never performed.
func (s *Store) SaveConfig(snap config.Snapshot) error {
	payload, err := json.Marshal(snap.Normalize())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO config_snapshot (id, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// #endregion config

// #region site-state

// LoadSiteState returns the persisted state for hostname. ok is false when
// nothing is stored or the stored row is older than the freshness window;
// callers cannot distinguish the two.
func (s *Store) LoadSiteState(hostname string) (SiteState, bool, error) {
	var (
		dimLevel   float64
		brightness sql.NullFloat64
		updatedStr string
	)
	err := s.db.QueryRow(
		`SELECT dim_level, brightness, updated_at FROM site_state WHERE hostname = ?`, hostname,
	).Scan(&dimLevel, &brightness, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return SiteState{}, false, nil
	}
	if err != nil {
		return SiteState{}, false, fmt.Errorf("load site state %s: %w", hostname, err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return SiteState{}, false, fmt.Errorf("parse site state timestamp: %w", err)
	}
	if time.Since(updatedAt) > FreshnessWindow {
		return SiteState{}, false, nil
	}

	st := SiteState{LastDimLevel: luma.Clamp(dimLevel), UpdatedAt: updatedAt}
	if brightness.Valid {
		b := luma.Clamp(brightness.Float64)
		st.LastBrightness = &b
	}
	return st, true, nil
}

// SaveSiteState upserts the per-site state for hostname.
func (s *Store) SaveSiteState(hostname string, st SiteState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	var brightness interface{}
	if st.LastBrightness != nil {
		brightness = luma.Clamp(*st.LastBrightness)
	}

	_, err := s.db.Exec(
		`INSERT INTO site_state (hostname, dim_level, brightness, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hostname) DO UPDATE SET
			dim_level = excluded.dim_level,
			brightness = excluded.brightness,
			updated_at = excluded.updated_at`,
		hostname, luma.Clamp(st.LastDimLevel), brightness, st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save site state %s: %w", hostname, err)
	}
	return nil
}

// ListSiteStates returns every stored site state, fresh or not, newest
// first. Used by the inspect tool.
func (s *Store) ListSiteStates() (map[string]SiteState, error) {
	rows, err := s.db.Query(`SELECT hostname, dim_level, brightness, updated_at FROM site_state ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list site states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]SiteState)
	for rows.Next() {
		var (
			hostname   string
			dimLevel   float64
			brightness sql.NullFloat64
			updatedStr string
		)
		if err := rows.Scan(&hostname, &dimLevel, &brightness, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan site state: %w", err)
		}
		st := SiteState{LastDimLevel: dimLevel}
		st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		if brightness.Valid {
			b := brightness.Float64
			st.LastBrightness = &b
		}
		out[hostname] = st
	}
	return out, rows.Err()
}

// #endregion site-state
