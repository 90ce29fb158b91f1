package alerts

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository records generated alerts into the cache database for dispatch
// auditing. The engine never reads this back during a rebuild; it exists so
// supervisors can see what was raised and when.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new alert log repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "alerts").Logger(),
	}
}

// Migrate creates the alert log table if missing.
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_log (
			id TEXT PRIMARY KEY,
			emp_code TEXT NOT NULL,
			emp_name TEXT NOT NULL,
			location TEXT NOT NULL,
			operation TEXT NOT NULL,
			efficiency REAL NOT NULL,
			target_efficiency REAL NOT NULL,
			production INTEGER NOT NULL,
			target INTEGER NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create alert_log table: %w", err)
	}
	return nil
}

// InsertBatch stores one rebuild's alerts.
func (r *Repository) InsertBatch(batch []Alert) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin alert insert: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO alert_log
		(id, emp_code, emp_name, location, operation, efficiency, target_efficiency,
		 production, target, severity, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare alert insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range batch {
		locJSON, err := json.Marshal(a.Location)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to encode alert location: %w", err)
		}
		if _, err := stmt.Exec(
			a.ID, a.EmpCode, a.EmpName, string(locJSON), a.Operation,
			a.Efficiency, a.TargetEfficiency, a.Production, a.Target,
			string(a.Severity), a.Message, a.Timestamp.Unix(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert alert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert insert: %w", err)
	}

	r.log.Debug().Int("count", len(batch)).Msg("Alert batch recorded")
	return nil
}

// ListRecent returns the most recently recorded alerts, newest first.
func (r *Repository) ListRecent(limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, emp_code, emp_name, location, operation, efficiency,
		       target_efficiency, production, target, severity, message, created_at
		FROM alert_log
		ORDER BY created_at DESC, efficiency ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert log: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		var locJSON, severity string
		var createdAt int64
		if err := rows.Scan(
			&a.ID, &a.EmpCode, &a.EmpName, &locJSON, &a.Operation,
			&a.Efficiency, &a.TargetEfficiency, &a.Production, &a.Target,
			&severity, &a.Message, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		if err := json.Unmarshal([]byte(locJSON), &a.Location); err != nil {
			return nil, fmt.Errorf("failed to decode alert location: %w", err)
		}
		a.Severity = Severity(severity)
		a.Timestamp = time.Unix(createdAt, 0).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert log: %w", err)
	}
	return out, nil
}

// Prune deletes log rows older than the retention window.
func (r *Repository) Prune(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM alert_log WHERE created_at < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune alert log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
