package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region decision-log

// DecisionLog records control-loop decisions in the decision_log table.
type DecisionLog struct {
	db *sql.DB
}

// NewDecisionLog wraps a database handle that already carries the
// decision_log schema.
func NewDecisionLog(db *sql.DB) *DecisionLog {
	return &DecisionLog{db: db}
}

// Record writes a decision entry. Missing identifiers and timestamps are
// filled in.
func (l *DecisionLog) Record(entry DecisionEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var brightness interface{}
	if entry.Brightness != nil {
		brightness = *entry.Brightness
	}

	_, err := l.db.Exec(
		`INSERT INTO decision_log (entry_id, hostname, trigger_kind, outcome, reason, brightness, target, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EntryID,
		entry.Hostname,
		entry.Trigger,
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		brightness,
		entry.Target,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first. An empty hostname
// matches all hostnames.
func (l *DecisionLog) Recent(hostname string, limit int) ([]DecisionEntry, error) {
	query := `SELECT entry_id, hostname, trigger_kind, outcome, reason, brightness, target, created_at
		 FROM decision_log`
	args := []interface{}{}
	if hostname != "" {
		query += ` WHERE hostname = ?`
		args = append(args, hostname)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var (
			e          DecisionEntry
			reason     sql.NullString
			brightness sql.NullFloat64
			createdStr string
		)
		if err := rows.Scan(&e.EntryID, &e.Hostname, &e.Trigger, &e.Outcome, &reason, &brightness, &e.Target, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		if brightness.Valid {
			b := brightness.Float64
			e.Brightness = &b
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion decision-log

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
