package hierarchy

import "github.com/fabricpulse/rtms/internal/modules/normalize"

// Level defines one internal tree level: its name and how to extract the
// level key from a record. The employee leaf is implicit below the last level.
type Level struct {
	Name string
	Key  func(r normalize.EmployeeRecord) string
}

// Named level constructors, reused across projections.
var (
	LevelUnit      = Level{Name: "unit", Key: func(r normalize.EmployeeRecord) string { return r.Unit }}
	LevelFloor     = Level{Name: "floor", Key: func(r normalize.EmployeeRecord) string { return r.Floor }}
	LevelLine      = Level{Name: "line", Key: func(r normalize.EmployeeRecord) string { return r.Line }}
	LevelStyle     = Level{Name: "style", Key: func(r normalize.EmployeeRecord) string { return r.Style }}
	LevelPart      = Level{Name: "part", Key: func(r normalize.EmployeeRecord) string { return r.Part }}
	LevelOperation = Level{Name: "operation", Key: func(r normalize.EmployeeRecord) string { return r.Operation }}
	LevelDevice    = Level{Name: "device", Key: func(r normalize.EmployeeRecord) string { return r.Device }}
)

// CanonicalLevels is the full factory hierarchy:
// Unit → Floor → Line → Style → Part → Operation → Device → (employees).
func CanonicalLevels() []Level {
	return []Level{LevelUnit, LevelFloor, LevelLine, LevelStyle, LevelPart, LevelOperation, LevelDevice}
}

// ProjectionLevels is the short projection used by the filter cascade and the
// simpler dashboard views: Unit → Floor → Line → Part → (employees).
func ProjectionLevels() []Level {
	return []Level{LevelUnit, LevelFloor, LevelLine, LevelPart}
}

// EfficiencyLevels is the minimal rollup used by the line-efficiency view:
// Unit → Floor → Line → (employees).
func EfficiencyLevels() []Level {
	return []Level{LevelUnit, LevelFloor, LevelLine}
}
