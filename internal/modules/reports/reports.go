// Package reports writes the hourly flagged-employee CSV report consumed by
// floor supervisors. One row per flagged employee, grouped by line and style,
// with the full location context embedded so the file stands alone.
package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// Writer produces CSV reports under a configured directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a report writer. The directory is created on first use.
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.With().Str("component", "reports").Logger(),
	}
}

var csvHeader = []string{
	"Employee Name", "Employee Code",
	"Unit Code", "Floor Name", "Line Name", "Style No", "Part Name", "Operation",
	"Production Pcs", "Target (Eff100)", "Efficiency %", "Report Time",
}

// WriteFlagged writes one report for all employees below threshold. Returns
// the written path, or empty string when there is nothing to report.
func (w *Writer) WriteFlagged(records []normalize.EmployeeRecord, threshold float64, now time.Time) (string, error) {
	flagged := make([]normalize.EmployeeRecord, 0)
	for _, r := range records {
		if r.Efficiency < threshold {
			flagged = append(flagged, r)
		}
	}
	if len(flagged) == 0 {
		return "", nil
	}

	// Group by line then style for readability, matching the supervisor
	// report layout.
	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].Line != flagged[j].Line {
			return flagged[i].Line < flagged[j].Line
		}
		if flagged[i].Style != flagged[j].Style {
			return flagged[i].Style < flagged[j].Style
		}
		return flagged[i].EmpCode < flagged[j].EmpCode
	})

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("flagged_employees_%s.csv", now.Format("20060102_1504"))
	path := filepath.Join(w.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write report header: %w", err)
	}

	reportTime := now.Format("2006-01-02 15:04:05")
	for _, r := range flagged {
		row := []string{
			r.EmpName, r.EmpCode,
			r.Unit, r.Floor, r.Line, r.Style, r.Part, r.Operation,
			fmt.Sprintf("%d", r.Production),
			fmt.Sprintf("%d", r.Target),
			fmt.Sprintf("%.1f%%", r.Efficiency),
			reportTime,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report: %w", err)
	}

	w.log.Info().
		Str("path", path).
		Int("flagged", len(flagged)).
		Msg("Flagged-employee report written")
	return path, nil
}

// Latest returns the newest report file path, or empty string when none exist.
func (w *Writer) Latest() (string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read report directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".csv" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	// Timestamped filenames sort chronologically.
	sort.Strings(names)
	return filepath.Join(w.dir, names[len(names)-1]), nil
}
