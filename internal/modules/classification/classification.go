// Package classification assigns qualitative performance statuses from
// efficiency percentages. Every tree level (unit, floor, line, employee)
// uses the same breakpoints; views must never re-derive their own.
package classification

// Status is a qualitative performance band.
type Status string

const (
	StatusExcellent        Status = "excellent"
	StatusGood             Status = "good"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusCritical         Status = "critical"
)

// Breakpoints, inclusive at the lower bound of each band.
const (
	ExcellentMin        = 100.0
	GoodMin             = 85.0
	NeedsImprovementMin = 70.0
)

// Classify maps an efficiency percentage to its performance status.
func Classify(efficiency float64) Status {
	switch {
	case efficiency >= ExcellentMin:
		return StatusExcellent
	case efficiency >= GoodMin:
		return StatusGood
	case efficiency >= NeedsImprovementMin:
		return StatusNeedsImprovement
	default:
		return StatusCritical
	}
}

// Efficiency computes production/target as a percentage. A target of zero
// yields 0 rather than a division error.
func Efficiency(production, target int) float64 {
	if target <= 0 {
		return 0
	}
	return float64(production) / float64(target) * 100
}
