package filters

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OptionsSource is the transport collaborator that provides cascading filter
// options. Each call depends on the ancestors' selected values. The engine
// only consumes this surface; it never issues the underlying queries itself.
type OptionsSource interface {
	Units(ctx context.Context) ([]string, error)
	Floors(ctx context.Context, unit string) ([]string, error)
	Lines(ctx context.Context, unit, floor string) ([]string, error)
	Parts(ctx context.Context, unit, floor, line string) ([]string, error)
}

// DefaultDebounce is applied between a selection change and the option fetch
// it triggers, so a user actively flipping selections does not cause a
// request storm.
const DefaultDebounce = 300 * time.Millisecond

// Coordinator owns the current filter selection and keeps the next-level
// option list in sync with it. Every selection change bumps a generation
// counter; a fetch completion carrying a stale generation is discarded
// instead of applied, so a slow "floors for unit A" response can never
// overwrite the options shown for unit B.
type Coordinator struct {
	source   OptionsSource
	debounce time.Duration
	onChange func(Selection)
	log      zerolog.Logger

	mu      sync.Mutex
	sel     Selection
	gen     uint64
	timer   *time.Timer
	options []string
}

// NewCoordinator creates a coordinator with the default debounce interval.
func NewCoordinator(source OptionsSource, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		source:   source,
		debounce: DefaultDebounce,
		log:      log.With().Str("component", "filter_coordinator").Logger(),
	}
}

// SetDebounce overrides the debounce interval. Zero disables debouncing;
// fetches then start immediately on each change.
func (c *Coordinator) SetDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounce = d
}

// SetOnChange registers a callback invoked (on the coordinator's goroutine)
// after a selection change has been applied. Used to trigger rebuilds.
func (c *Coordinator) SetOnChange(fn func(Selection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Selection returns the current selection.
func (c *Coordinator) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Options returns the latest completed option list for the first unset level.
func (c *Coordinator) Options() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.options))
	copy(out, c.options)
	return out
}

// Set applies one level change with cascade reset, then schedules a debounced
// fetch of the next level's options. The previous pending fetch, if any, is
// superseded: its timer is stopped and its generation invalidated.
func (c *Coordinator) Set(level SelectionLevel, value string) Selection {
	c.mu.Lock()

	next := c.sel.With(level, value)
	if next == c.sel {
		c.mu.Unlock()
		return next
	}

	c.sel = next
	c.gen++
	gen := c.gen
	c.options = nil

	if c.timer != nil {
		c.timer.Stop()
	}

	delay := c.debounce
	onChange := c.onChange
	c.timer = time.AfterFunc(delay, func() {
		c.fetch(gen)
	})
	c.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
	return next
}

// Refresh re-fetches options for the current selection immediately,
// bypassing the debounce. Used after a new snapshot lands.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	c.fetch(gen)
}

// fetch runs the option query for the selection as of generation gen.
// The result is applied only if no newer change happened meanwhile.
func (c *Coordinator) fetch(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	sel := c.sel
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	options, err := c.query(ctx, sel)
	if err != nil {
		c.log.Warn().Err(err).
			Str("unit", sel.Unit).
			Str("floor", sel.Floor).
			Msg("Filter option fetch failed")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Selection moved on while the fetch was in flight.
		c.log.Debug().
			Uint64("stale_gen", gen).
			Uint64("current_gen", c.gen).
			Msg("Discarding stale filter option response")
		return
	}
	c.options = options
}

func (c *Coordinator) query(ctx context.Context, sel Selection) ([]string, error) {
	switch sel.NextLevel() {
	case SelectUnit:
		return c.source.Units(ctx)
	case SelectFloor:
		return c.source.Floors(ctx, sel.Unit)
	case SelectLine:
		return c.source.Lines(ctx, sel.Unit, sel.Floor)
	case SelectPart:
		return c.source.Parts(ctx, sel.Unit, sel.Floor, sel.Line)
	}
	// Complete path: nothing left to offer.
	return nil, nil
}
