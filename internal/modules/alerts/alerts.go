// Package alerts scans employee leaves for underperformers and turns them
// into alert records with severity, full location context and a
// human-readable message. Alerts are generated fresh on every rebuild.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fabricpulse/rtms/internal/modules/classification"
	"github.com/fabricpulse/rtms/internal/modules/hierarchy"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// DefaultThreshold is the efficiency below which an employee is flagged.
const DefaultThreshold = 85.0

// Severity grades an alert. Boundaries match the employee's own
// classification bands: below the critical boundary is high, otherwise medium.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Location is the full key path of an employee leaf.
type Location struct {
	Unit  string `json:"unit"`
	Floor string `json:"floor"`
	Line  string `json:"line"`
	Part  string `json:"part"`
}

// Alert is one underperformer notification. The message embeds the full
// location path and the raw production/target pair so the consuming UI never
// has to re-query the tree for context.
type Alert struct {
	ID               string    `json:"id"`
	EmpCode          string    `json:"emp_code"`
	EmpName          string    `json:"emp_name"`
	Location         Location  `json:"location"`
	Operation        string    `json:"operation"`
	Efficiency       float64   `json:"efficiency"`
	TargetEfficiency float64   `json:"target_efficiency"`
	Production       int       `json:"production"`
	Target           int       `json:"target"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
}

// severityFor derives the alert severity from the classification boundary.
func severityFor(efficiency float64) Severity {
	if efficiency < classification.NeedsImprovementMin {
		return SeverityHigh
	}
	return SeverityMedium
}

// Detect walks the employee leaves of the tree (never intermediate nodes)
// and emits one alert per leaf strictly below threshold. Output is sorted by
// ascending efficiency so the worst cases lead.
func Detect(root *hierarchy.Node, threshold float64, now time.Time) []Alert {
	var out []Alert
	root.WalkEmployees(func(r normalize.EmployeeRecord) {
		if r.Efficiency >= threshold {
			return
		}
		out = append(out, newAlert(r, threshold, now))
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Efficiency != out[j].Efficiency {
			return out[i].Efficiency < out[j].Efficiency
		}
		return out[i].EmpCode < out[j].EmpCode
	})
	return out
}

func newAlert(r normalize.EmployeeRecord, threshold float64, now time.Time) Alert {
	loc := Location{Unit: r.Unit, Floor: r.Floor, Line: r.Line, Part: r.Part}
	msg := fmt.Sprintf(
		"Employee %s (%s) at %s / %s / %s / %s, operation %s, performing at %.1f%% efficiency (target %.0f%%): produced %d of %d pieces",
		r.EmpName, r.EmpCode,
		loc.Unit, loc.Floor, loc.Line, loc.Part,
		r.Operation,
		r.Efficiency, threshold,
		r.Production, r.Target,
	)

	return Alert{
		ID:               uuid.New().String(),
		EmpCode:          r.EmpCode,
		EmpName:          r.EmpName,
		Location:         loc,
		Operation:        r.Operation,
		Efficiency:       r.Efficiency,
		TargetEfficiency: threshold,
		Production:       r.Production,
		Target:           r.Target,
		Severity:         severityFor(r.Efficiency),
		Message:          msg,
		Timestamp:        now,
	}
}
