package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricpulse/rtms/internal/clients/rtms"
	"github.com/fabricpulse/rtms/internal/modules/alerts"
	"github.com/fabricpulse/rtms/internal/modules/filters"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// fakeSource returns a canned snapshot or an error.
type fakeSource struct {
	records []normalize.RawRecord
	err     error
	calls   int
}

func (f *fakeSource) FetchRecords(_ context.Context, _ rtms.FetchQuery) ([]normalize.RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeSink records inserted alert batches.
type fakeSink struct {
	batches [][]alerts.Alert
}

func (f *fakeSink) InsertBatch(batch []alerts.Alert) error {
	f.batches = append(f.batches, batch)
	return nil
}

func rawRecord(code, unit, floor, line, part string, production, target int) normalize.RawRecord {
	return normalize.RawRecord{
		"EmpCode":   code,
		"EmpName":   "Worker " + code,
		"UnitCode":  unit,
		"FloorName": floor,
		"LineName":  line,
		"PartName":  part,
		"StyleNo":   "S1",
		"Operation": "OP-10",
		"DeviceID":  "DEV-" + code,
		"ProdnPcs":  float64(production),
		"Eff100":    float64(target),
	}
}

func newTestService(source RecordSource, sink AlertSink) *Service {
	return New(Config{
		Source:    source,
		AlertSink: sink,
		Threshold: 85.0,
		Log:       zerolog.Nop(),
	})
}

func TestRefreshBuildsState(t *testing.T) {
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 95, 100),
		rawRecord("E2", "U1", "F1", "L1", "P1", 60, 100),
		rawRecord("E3", "U1", "F2", "L2", "P2", 110, 100),
	}}
	sink := &fakeSink{}
	svc := newTestService(source, sink)

	require.Nil(t, svc.State())
	require.NoError(t, svc.Refresh(context.Background()))

	st := svc.State()
	require.NotNil(t, st)
	assert.NotEmpty(t, st.SnapshotID)
	assert.Len(t, st.Records, 3)
	assert.Equal(t, 3, st.Tree.EmployeeCount)
	assert.Equal(t, 3, st.Projection.EmployeeCount)
	assert.Equal(t, 3, st.Summary.RecordsAnalyzed)

	// E2 at 60% is the only underperformer.
	require.Len(t, st.Alerts, 1)
	assert.Equal(t, "E2", st.Alerts[0].EmpCode)

	// The batch was persisted once.
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 1)
}

func TestRefreshFetchErrorKeepsLastState(t *testing.T) {
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 95, 100),
	}}
	svc := newTestService(source, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	first := svc.State()
	require.NotNil(t, first)

	source.err = errors.New("feed down")
	err := svc.Refresh(context.Background())
	assert.Error(t, err)

	// The previous state is still served.
	assert.Equal(t, first, svc.State())
}

func TestRefreshFetchErrorColdStartReturnsError(t *testing.T) {
	// Feed down, nothing persisted: Refresh must fail rather than report
	// success with no state behind it.
	source := &fakeSource{err: errors.New("feed down")}
	svc := newTestService(source, nil)

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored fallback")
	assert.Nil(t, svc.State())
}

func TestApplySelectionFiltersViews(t *testing.T) {
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 95, 100),
		rawRecord("E2", "U1", "F1", "L2", "P1", 60, 100),
		rawRecord("E3", "U2", "F1", "L1", "P1", 80, 100),
	}}
	sink := &fakeSink{}
	svc := newTestService(source, sink)
	require.NoError(t, svc.Refresh(context.Background()))

	sel := filters.Selection{Unit: "U1", Floor: "F1", Line: "L1"}
	svc.ApplySelection(sel)

	st := svc.State()
	require.NotNil(t, st)
	assert.Equal(t, sel, st.Selection)

	// The canonical tree narrows to the selected line.
	assert.Equal(t, 1, st.Tree.EmployeeCount)
	assert.Equal(t, 1, st.Summary.RecordsAnalyzed)

	// The projection tree still spans the full snapshot so filter options
	// do not collapse to the current path.
	assert.Equal(t, 3, st.Projection.EmployeeCount)

	// The full normalized snapshot is retained for the next re-projection.
	assert.Len(t, st.Records, 3)

	// Selection re-projections never re-persist alerts.
	assert.Len(t, sink.batches, 1)
}

func TestApplySelectionBeforeFirstSnapshot(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil)

	assert.NotPanics(t, func() {
		svc.ApplySelection(filters.Selection{Unit: "U1"})
	})
	assert.Nil(t, svc.State())
}

func TestRefreshReappliesSelection(t *testing.T) {
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 95, 100),
		rawRecord("E2", "U2", "F1", "L1", "P1", 60, 100),
	}}
	svc := newTestService(source, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	svc.ApplySelection(filters.Selection{Unit: "U1"})
	require.NoError(t, svc.Refresh(context.Background()))

	st := svc.State()
	assert.Equal(t, filters.Selection{Unit: "U1"}, st.Selection)
	assert.Equal(t, 1, st.Tree.EmployeeCount)
}

func TestProjectionTreeImplementsTreeProvider(t *testing.T) {
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 95, 100),
	}}
	svc := newTestService(source, nil)

	// Nil before the first rebuild.
	assert.Nil(t, svc.ProjectionTree())

	require.NoError(t, svc.Refresh(context.Background()))
	tree := svc.ProjectionTree()
	require.NotNil(t, tree)
	assert.Contains(t, tree.Children, "U1")

	// Wired through TreeSource, the tree serves filter options.
	src := filters.NewTreeSource(svc)
	units, err := src.Units(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, units)
}

func TestDedupeAppliesAcrossViews(t *testing.T) {
	// A duplicated employee code counts once everywhere: tree, summary
	// and alerts all consume the deduplicated leaves.
	source := &fakeSource{records: []normalize.RawRecord{
		rawRecord("E1", "U1", "F1", "L1", "P1", 50, 100),
		rawRecord("E1", "U1", "F1", "L1", "P1", 90, 100),
	}}
	svc := newTestService(source, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	st := svc.State()
	assert.Equal(t, 1, st.Tree.EmployeeCount)
	assert.Equal(t, 1, st.Summary.RecordsAnalyzed)
	require.Len(t, st.Alerts, 1)
	// First record wins: 50%, not 90%.
	assert.InDelta(t, 50.0, st.Alerts[0].Efficiency, 0.0001)
}
