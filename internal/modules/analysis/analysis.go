// Package analysis computes the snapshot-level efficiency summary the
// dashboard header and report jobs consume: overall efficiency, performance
// category buckets, per-line and per-operation averages, top performers and
// distribution statistics.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fabricpulse/rtms/internal/modules/classification"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// NamedValue pairs a dimension key with its average efficiency.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TopPerformer is the best producer within one operation group, used for
// benchmarking. Only operations with more than one employee qualify.
type TopPerformer struct {
	EmpCode    string  `json:"emp_code"`
	EmpName    string  `json:"emp_name"`
	Operation  string  `json:"operation"`
	Line       string  `json:"line_name"`
	Production int     `json:"production"`
	Efficiency float64 `json:"efficiency"`
}

// RelativeEfficiency scores an employee against the best producer in the
// same operation group. An employee matching the group's best output scores
// 100 regardless of absolute efficiency.
type RelativeEfficiency struct {
	EmpCode            string  `json:"emp_code"`
	EmpName            string  `json:"emp_name"`
	Operation          string  `json:"operation"`
	Relative           float64 `json:"relative_efficiency"`
	AbsoluteEfficiency float64 `json:"absolute_efficiency"`
}

// Distribution holds summary statistics over leaf efficiencies.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// Summary is the full snapshot analysis.
type Summary struct {
	OverallEfficiency   float64                       `json:"overall_efficiency"`
	TotalProduction     int                           `json:"total_production"`
	TotalTarget         int                           `json:"total_target"`
	RecordsAnalyzed     int                           `json:"records_analyzed"`
	UnderperformerCount int                           `json:"underperformer_count"`
	Categories          map[classification.Status]int `json:"performance_categories"`
	LineAverages        map[string]float64            `json:"line_averages"`
	OperationAverages   map[string]float64            `json:"operation_averages"`
	BestLine            *NamedValue                   `json:"best_performing_line,omitempty"`
	WorstLine           *NamedValue                   `json:"worst_performing_line,omitempty"`
	BestOperation       *NamedValue                   `json:"best_performing_operation,omitempty"`
	WorstOperation      *NamedValue                   `json:"worst_performing_operation,omitempty"`
	TopPerformers       []TopPerformer                `json:"top_performers"`
	RelativeEfficiency  []RelativeEfficiency          `json:"relative_efficiency"`
	Distribution        Distribution                  `json:"distribution"`
}

// Analyze computes the summary over an already-normalized (and deduplicated)
// record set. Pure function; an empty input yields a zeroed summary.
func Analyze(records []normalize.EmployeeRecord, threshold float64) Summary {
	s := Summary{
		RecordsAnalyzed:   len(records),
		Categories:        make(map[classification.Status]int),
		LineAverages:      make(map[string]float64),
		OperationAverages: make(map[string]float64),
	}
	if len(records) == 0 {
		return s
	}

	lineEffs := make(map[string][]float64)
	opEffs := make(map[string][]float64)
	opGroups := make(map[string][]normalize.EmployeeRecord)
	effs := make([]float64, 0, len(records))

	for _, r := range records {
		s.TotalProduction += r.Production
		s.TotalTarget += r.Target
		s.Categories[classification.Classify(r.Efficiency)]++
		if r.Efficiency < threshold {
			s.UnderperformerCount++
		}
		lineEffs[r.Line] = append(lineEffs[r.Line], r.Efficiency)
		opEffs[r.Operation] = append(opEffs[r.Operation], r.Efficiency)
		opGroups[r.Operation] = append(opGroups[r.Operation], r)
		effs = append(effs, r.Efficiency)
	}

	s.OverallEfficiency = classification.Efficiency(s.TotalProduction, s.TotalTarget)

	s.BestLine, s.WorstLine = averageExtremes(lineEffs, s.LineAverages)
	s.BestOperation, s.WorstOperation = averageExtremes(opEffs, s.OperationAverages)

	s.TopPerformers = topPerformers(opGroups)
	s.RelativeEfficiency = relativeEfficiency(opGroups)
	s.Distribution = distribution(effs)

	return s
}

// averageExtremes fills the averages map and returns the best and worst keys.
// Ties break alphabetically for deterministic output.
func averageExtremes(groups map[string][]float64, averages map[string]float64) (best, worst *NamedValue) {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		avg := stat.Mean(groups[key], nil)
		averages[key] = avg
		if best == nil || avg > best.Value {
			best = &NamedValue{Name: key, Value: avg}
		}
		if worst == nil || avg < worst.Value {
			worst = &NamedValue{Name: key, Value: avg}
		}
	}
	return best, worst
}

// topPerformers finds the best producer per operation group with at least
// two employees, keeping only those at or above the good boundary.
func topPerformers(groups map[string][]normalize.EmployeeRecord) []TopPerformer {
	var out []TopPerformer
	for op, members := range groups {
		if len(members) < 2 {
			continue
		}
		best := members[0]
		for _, m := range members[1:] {
			if m.Production > best.Production {
				best = m
			}
		}
		if best.Efficiency < classification.GoodMin {
			continue
		}
		out = append(out, TopPerformer{
			EmpCode:    best.EmpCode,
			EmpName:    best.EmpName,
			Operation:  op,
			Line:       best.Line,
			Production: best.Production,
			Efficiency: best.Efficiency,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// relativeEfficiency scores every employee against the highest production
// in their operation group.
func relativeEfficiency(groups map[string][]normalize.EmployeeRecord) []RelativeEfficiency {
	var out []RelativeEfficiency
	for op, members := range groups {
		maxProduction := 0
		for _, m := range members {
			if m.Production > maxProduction {
				maxProduction = m.Production
			}
		}
		for _, m := range members {
			relative := 0.0
			if maxProduction > 0 {
				relative = float64(m.Production) / float64(maxProduction) * 100
			}
			out = append(out, RelativeEfficiency{
				EmpCode:            m.EmpCode,
				EmpName:            m.EmpName,
				Operation:          op,
				Relative:           relative,
				AbsoluteEfficiency: m.Efficiency,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Operation != out[j].Operation {
			return out[i].Operation < out[j].Operation
		}
		return out[i].EmpCode < out[j].EmpCode
	})
	return out
}

// distribution computes mean/stddev/median of leaf efficiencies.
// gonum's Quantile requires sorted input.
func distribution(effs []float64) Distribution {
	if len(effs) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(effs))
	copy(sorted, effs)
	sort.Float64s(sorted)

	d := Distribution{
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}
