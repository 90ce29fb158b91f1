// Package filters models the cascading dashboard filter: an ordered partial
// key-path over the hierarchy (unit → floor → line → part), the projector
// that resolves it against the rollup tree, and the debounced coordinator
// that fetches option lists from the transport boundary.
package filters

import (
	"strings"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// SelectionLevel identifies one level of the cascading filter.
type SelectionLevel int

const (
	SelectUnit SelectionLevel = iota
	SelectFloor
	SelectLine
	SelectPart
)

// String returns the level's wire name.
func (l SelectionLevel) String() string {
	switch l {
	case SelectUnit:
		return "unit"
	case SelectFloor:
		return "floor"
	case SelectLine:
		return "line"
	case SelectPart:
		return "part"
	}
	return "unknown"
}

// Selection is an ordered partial key-path. A level may only be set when all
// ancestor levels are set; all transitions go through With so the cascade
// reset invariant cannot be bypassed.
type Selection struct {
	Unit  string `json:"unit_code,omitempty"`
	Floor string `json:"floor_name,omitempty"`
	Line  string `json:"line_name,omitempty"`
	Part  string `json:"part_name,omitempty"`
}

// With returns the selection with one level changed. Setting any level
// clears every descendant level; setting a level whose ancestors are unset
// is ignored (the old selection is returned unchanged). An empty value means
// "no filter at or below this level" and still cascades the reset.
func (s Selection) With(level SelectionLevel, value string) Selection {
	value = strings.TrimSpace(value)

	switch level {
	case SelectUnit:
		return Selection{Unit: value}
	case SelectFloor:
		if s.Unit == "" {
			return s
		}
		return Selection{Unit: s.Unit, Floor: value}
	case SelectLine:
		if s.Unit == "" || s.Floor == "" {
			return s
		}
		return Selection{Unit: s.Unit, Floor: s.Floor, Line: value}
	case SelectPart:
		if s.Unit == "" || s.Floor == "" || s.Line == "" {
			return s
		}
		return Selection{Unit: s.Unit, Floor: s.Floor, Line: s.Line, Part: value}
	}
	return s
}

// Path returns the set levels in order, stopping at the first unset one.
func (s Selection) Path() []string {
	var path []string
	for _, v := range []string{s.Unit, s.Floor, s.Line, s.Part} {
		if v == "" {
			break
		}
		path = append(path, v)
	}
	return path
}

// NextLevel is the first unset level, or -1 when the path is complete.
func (s Selection) NextLevel() SelectionLevel {
	switch {
	case s.Unit == "":
		return SelectUnit
	case s.Floor == "":
		return SelectFloor
	case s.Line == "":
		return SelectLine
	case s.Part == "":
		return SelectPart
	}
	return -1
}

// IsEmpty reports whether no level is set.
func (s Selection) IsEmpty() bool {
	return s.Unit == ""
}

// Matches reports whether a record falls inside the selected path.
func (s Selection) Matches(r normalize.EmployeeRecord) bool {
	if s.Unit != "" && r.Unit != s.Unit {
		return false
	}
	if s.Floor != "" && r.Floor != s.Floor {
		return false
	}
	if s.Line != "" && r.Line != s.Line {
		return false
	}
	if s.Part != "" && r.Part != s.Part {
		return false
	}
	return true
}

// Apply filters a record snapshot down to the selection, preserving order.
func (s Selection) Apply(records []normalize.EmployeeRecord) []normalize.EmployeeRecord {
	if s.IsEmpty() && s.Floor == "" && s.Line == "" && s.Part == "" {
		return records
	}
	out := make([]normalize.EmployeeRecord, 0, len(records))
	for _, r := range records {
		if s.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
