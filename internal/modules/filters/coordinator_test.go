package filters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned options and counts fetches per level.
type fakeSource struct {
	mu         sync.Mutex
	floorCalls int
	unitCalls  int
}

func (f *fakeSource) Units(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unitCalls++
	return []string{"U1", "U2"}, nil
}

func (f *fakeSource) Floors(_ context.Context, unit string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.floorCalls++
	switch unit {
	case "U1":
		return []string{"F1", "F2"}, nil
	case "U2":
		return []string{"F9"}, nil
	}
	return nil, nil
}

func (f *fakeSource) Lines(_ context.Context, unit, floor string) ([]string, error) {
	return []string{"L1"}, nil
}

func (f *fakeSource) Parts(_ context.Context, unit, floor, line string) ([]string, error) {
	return []string{"P1"}, nil
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unitCalls, f.floorCalls
}

func newTestCoordinator(source OptionsSource) *Coordinator {
	return NewCoordinator(source, zerolog.Nop())
}

func TestCoordinatorDiscardsStaleResponse(t *testing.T) {
	source := &fakeSource{}
	c := newTestCoordinator(source)
	// Park the debounce far away so fetches only run when we invoke them.
	c.SetDebounce(time.Hour)

	c.Set(SelectUnit, "U1")
	gen1 := c.gen
	c.fetch(gen1)
	assert.Equal(t, []string{"F1", "F2"}, c.Options())

	// The user moves on to U2 before U1's (hypothetically slow) response
	// would land again.
	c.Set(SelectUnit, "U2")
	gen2 := c.gen
	require.NotEqual(t, gen1, gen2)

	// Selection change already cleared the visible options.
	assert.Empty(t, c.Options())

	// The stale response for U1 arrives: it must be discarded.
	c.fetch(gen1)
	assert.Empty(t, c.Options())

	// The current-generation response applies normally.
	c.fetch(gen2)
	assert.Equal(t, []string{"F9"}, c.Options())
}

func TestCoordinatorDebounceCoalescesFetches(t *testing.T) {
	source := &fakeSource{}
	c := newTestCoordinator(source)
	c.SetDebounce(30 * time.Millisecond)

	// Rapid flipping: only the final selection's fetch should run.
	c.Set(SelectUnit, "U1")
	c.Set(SelectUnit, "U2")
	c.Set(SelectUnit, "U1")

	assert.Eventually(t, func() bool {
		_, floorCalls := source.calls()
		return floorCalls == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"F1", "F2"}, c.Options())
	_, floorCalls := source.calls()
	assert.Equal(t, 1, floorCalls)
}

func TestCoordinatorSetAppliesCascade(t *testing.T) {
	c := newTestCoordinator(&fakeSource{})
	c.SetDebounce(time.Hour)

	sel := c.Set(SelectUnit, "U1")
	assert.Equal(t, Selection{Unit: "U1"}, sel)

	sel = c.Set(SelectFloor, "F1")
	assert.Equal(t, Selection{Unit: "U1", Floor: "F1"}, sel)

	sel = c.Set(SelectUnit, "U2")
	assert.Equal(t, Selection{Unit: "U2"}, sel)
	assert.Equal(t, Selection{Unit: "U2"}, c.Selection())
}

func TestCoordinatorNoOpChangeSkipsFetch(t *testing.T) {
	source := &fakeSource{}
	c := newTestCoordinator(source)
	c.SetDebounce(time.Hour)

	c.Set(SelectUnit, "U1")
	gen := c.gen

	// Setting the identical value again must not bump the generation.
	c.Set(SelectUnit, "U1")
	assert.Equal(t, gen, c.gen)

	// Setting a level with unset ancestors is ignored entirely.
	c2 := newTestCoordinator(source)
	c2.SetDebounce(time.Hour)
	c2.Set(SelectFloor, "F1")
	assert.Equal(t, Selection{}, c2.Selection())
	assert.Equal(t, uint64(0), c2.gen)
}

func TestCoordinatorOnChangeCallback(t *testing.T) {
	c := newTestCoordinator(&fakeSource{})
	c.SetDebounce(time.Hour)

	var got []Selection
	c.SetOnChange(func(sel Selection) {
		got = append(got, sel)
	})

	c.Set(SelectUnit, "U1")
	c.Set(SelectFloor, "F1")
	c.Set(SelectFloor, "F1") // no-op, no callback

	require.Len(t, got, 2)
	assert.Equal(t, Selection{Unit: "U1"}, got[0])
	assert.Equal(t, Selection{Unit: "U1", Floor: "F1"}, got[1])
}

func TestCoordinatorRefreshBypassesDebounce(t *testing.T) {
	source := &fakeSource{}
	c := newTestCoordinator(source)
	c.SetDebounce(time.Hour)

	c.Refresh()

	unitCalls, _ := source.calls()
	assert.Equal(t, 1, unitCalls)
	assert.Equal(t, []string{"U1", "U2"}, c.Options())
}
