package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

func TestSelectionCascadeReset(t *testing.T) {
	sel := Selection{}.
		With(SelectUnit, "U1").
		With(SelectFloor, "F1").
		With(SelectLine, "L1").
		With(SelectPart, "P1")

	assert.Equal(t, Selection{Unit: "U1", Floor: "F1", Line: "L1", Part: "P1"}, sel)

	// Changing the floor clears line and part but keeps the unit.
	sel = sel.With(SelectFloor, "F2")
	assert.Equal(t, Selection{Unit: "U1", Floor: "F2"}, sel)

	// Changing the unit clears everything below it.
	sel = sel.With(SelectLine, "L9") // re-set a line first
	assert.Equal(t, Selection{Unit: "U1", Floor: "F2", Line: "L9"}, sel)
	sel = sel.With(SelectUnit, "U2")
	assert.Equal(t, Selection{Unit: "U2"}, sel)
}

func TestSelectionWithUnsetAncestorsIgnored(t *testing.T) {
	tests := []struct {
		name  string
		start Selection
		level SelectionLevel
		value string
	}{
		{"floor without unit", Selection{}, SelectFloor, "F1"},
		{"line without floor", Selection{Unit: "U1"}, SelectLine, "L1"},
		{"part without line", Selection{Unit: "U1", Floor: "F1"}, SelectPart, "P1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.start, tt.start.With(tt.level, tt.value))
		})
	}
}

func TestSelectionClearWithEmptyValue(t *testing.T) {
	sel := Selection{Unit: "U1", Floor: "F1", Line: "L1"}

	// Clearing the floor also drops the line.
	cleared := sel.With(SelectFloor, "")
	assert.Equal(t, Selection{Unit: "U1"}, cleared)

	// Clearing the unit empties the whole selection.
	assert.Equal(t, Selection{}, sel.With(SelectUnit, ""))
}

func TestSelectionNextLevel(t *testing.T) {
	assert.Equal(t, SelectUnit, Selection{}.NextLevel())
	assert.Equal(t, SelectFloor, Selection{Unit: "U1"}.NextLevel())
	assert.Equal(t, SelectLine, Selection{Unit: "U1", Floor: "F1"}.NextLevel())
	assert.Equal(t, SelectPart, Selection{Unit: "U1", Floor: "F1", Line: "L1"}.NextLevel())
	assert.Equal(t, SelectionLevel(-1), Selection{Unit: "U1", Floor: "F1", Line: "L1", Part: "P1"}.NextLevel())
}

func TestSelectionPath(t *testing.T) {
	assert.Empty(t, Selection{}.Path())
	assert.Equal(t, []string{"U1", "F1"}, Selection{Unit: "U1", Floor: "F1"}.Path())
}

func TestSelectionApply(t *testing.T) {
	records := []normalize.EmployeeRecord{
		{EmpCode: "E1", Unit: "U1", Floor: "F1", Line: "L1", Part: "P1"},
		{EmpCode: "E2", Unit: "U1", Floor: "F1", Line: "L2", Part: "P1"},
		{EmpCode: "E3", Unit: "U2", Floor: "F1", Line: "L1", Part: "P1"},
	}

	// Empty selection keeps everything.
	assert.Len(t, Selection{}.Apply(records), 3)

	filtered := Selection{Unit: "U1"}.Apply(records)
	assert.Len(t, filtered, 2)

	filtered = Selection{Unit: "U1", Floor: "F1", Line: "L2"}.Apply(records)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "E2", filtered[0].EmpCode)

	assert.Empty(t, Selection{Unit: "U9"}.Apply(records))
}
