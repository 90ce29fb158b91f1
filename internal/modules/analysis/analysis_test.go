package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricpulse/rtms/internal/modules/classification"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

func rec(code, line, operation string, production, target int) normalize.EmployeeRecord {
	return normalize.EmployeeRecord{
		EmpCode:    code,
		EmpName:    "Worker " + code,
		Line:       line,
		Operation:  operation,
		Production: production,
		Target:     target,
		Efficiency: classification.Efficiency(production, target),
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	s := Analyze(nil, 85.0)

	assert.Equal(t, 0, s.RecordsAnalyzed)
	assert.Equal(t, 0.0, s.OverallEfficiency)
	assert.Empty(t, s.Categories)
	assert.Nil(t, s.BestLine)
	assert.Equal(t, Distribution{}, s.Distribution)
}

func TestAnalyzeOverallFromTotals(t *testing.T) {
	// Overall efficiency comes from the summed totals, not from averaging
	// per-record percentages: 50/100 and 30/20 sum to 80/120 ≈ 66.67%.
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 50, 100),
		rec("E2", "L2", "OP2", 30, 20),
	}

	s := Analyze(records, 85.0)

	assert.Equal(t, 80, s.TotalProduction)
	assert.Equal(t, 120, s.TotalTarget)
	assert.InDelta(t, 66.67, s.OverallEfficiency, 0.01)
	assert.Equal(t, 2, s.RecordsAnalyzed)
}

func TestAnalyzeCategoriesAndUnderperformers(t *testing.T) {
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 110, 100), // excellent
		rec("E2", "L1", "OP1", 90, 100),  // good
		rec("E3", "L1", "OP1", 75, 100),  // needs improvement, underperformer
		rec("E4", "L1", "OP1", 50, 100),  // critical, underperformer
	}

	s := Analyze(records, 85.0)

	assert.Equal(t, 1, s.Categories[classification.StatusExcellent])
	assert.Equal(t, 1, s.Categories[classification.StatusGood])
	assert.Equal(t, 1, s.Categories[classification.StatusNeedsImprovement])
	assert.Equal(t, 1, s.Categories[classification.StatusCritical])
	assert.Equal(t, 2, s.UnderperformerCount)
}

func TestAnalyzeLineExtremes(t *testing.T) {
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 95, 100),
		rec("E2", "L1", "OP1", 85, 100),
		rec("E3", "L2", "OP1", 60, 100),
	}

	s := Analyze(records, 85.0)

	require.NotNil(t, s.BestLine)
	require.NotNil(t, s.WorstLine)
	assert.Equal(t, "L1", s.BestLine.Name)
	assert.InDelta(t, 90.0, s.BestLine.Value, 0.0001)
	assert.Equal(t, "L2", s.WorstLine.Name)
	assert.InDelta(t, 60.0, s.WorstLine.Value, 0.0001)

	assert.InDelta(t, 90.0, s.LineAverages["L1"], 0.0001)
	assert.InDelta(t, 60.0, s.LineAverages["L2"], 0.0001)
}

func TestAnalyzeTopPerformers(t *testing.T) {
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 120, 100), // best producer in OP1, qualifies
		rec("E2", "L1", "OP1", 80, 100),
		rec("E3", "L1", "OP2", 200, 100), // alone in OP2: no benchmark group
		rec("E4", "L1", "OP3", 50, 100),  // best in OP3 but below good boundary
		rec("E5", "L1", "OP3", 40, 100),
	}

	s := Analyze(records, 85.0)

	require.Len(t, s.TopPerformers, 1)
	assert.Equal(t, "E1", s.TopPerformers[0].EmpCode)
	assert.Equal(t, "OP1", s.TopPerformers[0].Operation)
	assert.Equal(t, 120, s.TopPerformers[0].Production)
}

func TestAnalyzeRelativeEfficiency(t *testing.T) {
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 100, 100),
		rec("E2", "L1", "OP1", 50, 100),
	}

	s := Analyze(records, 85.0)

	require.Len(t, s.RelativeEfficiency, 2)
	byCode := map[string]float64{}
	for _, r := range s.RelativeEfficiency {
		byCode[r.EmpCode] = r.Relative
	}
	assert.InDelta(t, 100.0, byCode["E1"], 0.0001)
	assert.InDelta(t, 50.0, byCode["E2"], 0.0001)
}

func TestAnalyzeDistribution(t *testing.T) {
	records := []normalize.EmployeeRecord{
		rec("E1", "L1", "OP1", 60, 100),
		rec("E2", "L1", "OP1", 80, 100),
		rec("E3", "L1", "OP1", 100, 100),
	}

	s := Analyze(records, 85.0)

	assert.InDelta(t, 80.0, s.Distribution.Mean, 0.0001)
	assert.InDelta(t, 80.0, s.Distribution.Median, 0.0001)
	assert.InDelta(t, 20.0, s.Distribution.StdDev, 0.0001)
}

func TestAnalyzeSingleRecordDistribution(t *testing.T) {
	s := Analyze([]normalize.EmployeeRecord{rec("E1", "L1", "OP1", 90, 100)}, 85.0)

	assert.InDelta(t, 90.0, s.Distribution.Mean, 0.0001)
	assert.InDelta(t, 90.0, s.Distribution.Median, 0.0001)
	assert.Equal(t, 0.0, s.Distribution.StdDev)
}
