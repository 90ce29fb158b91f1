// Package monitor orchestrates the rebuild cycle: fetch a raw snapshot,
// normalize it, build and roll up the hierarchy trees, run the analysis
// summary and alert scan, and publish the result as one immutable state.
// Each rebuild is a pure function of (records, filter selection); consumers
// only ever see a complete state, never a partially built one.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/clients/rtms"
	"github.com/fabricpulse/rtms/internal/events"
	"github.com/fabricpulse/rtms/internal/modules/alerts"
	"github.com/fabricpulse/rtms/internal/modules/analysis"
	"github.com/fabricpulse/rtms/internal/modules/filters"
	"github.com/fabricpulse/rtms/internal/modules/hierarchy"
	"github.com/fabricpulse/rtms/internal/modules/normalize"
	"github.com/fabricpulse/rtms/internal/modules/snapshots"
)

// RecordSource fetches raw production records from the upstream feed.
type RecordSource interface {
	FetchRecords(ctx context.Context, q rtms.FetchQuery) ([]normalize.RawRecord, error)
}

// AlertSink persists generated alerts.
type AlertSink interface {
	InsertBatch(batch []alerts.Alert) error
}

// Notifier delivers the high-severity subset of an alert batch.
type Notifier interface {
	SendHighSeverity(ctx context.Context, batch []alerts.Alert)
}

// State is the immutable result of one rebuild. A new State replaces the
// old one wholesale; nothing mutates a published State.
type State struct {
	SnapshotID string
	FetchedAt  time.Time
	RebuiltAt  time.Time
	Selection  filters.Selection

	// Records is the full normalized snapshot, before selection filtering.
	Records []normalize.EmployeeRecord

	// Tree is the canonical 8-level rollup of the selection-filtered,
	// deduplicated records.
	Tree *hierarchy.Node

	// Projection is the short unit→floor→line→part tree over the FULL
	// snapshot. Filter options come from here so the cascade always
	// reflects every reachable path, not just the current selection.
	Projection *hierarchy.Node

	// Summary and Alerts cover the selection-filtered, deduplicated leaves.
	Summary analysis.Summary
	Alerts  []alerts.Alert
}

// Service owns the current state and runs rebuilds.
type Service struct {
	source    RecordSource
	store     *snapshots.Store
	alertSink AlertSink
	notifier  Notifier
	eventMgr  *events.Manager
	threshold float64
	log       zerolog.Logger

	mu    sync.RWMutex
	state *State
}

// Config wires a monitor service.
type Config struct {
	Source    RecordSource
	Store     *snapshots.Store
	AlertSink AlertSink
	Notifier  Notifier
	EventMgr  *events.Manager
	Threshold float64
	Log       zerolog.Logger
}

// New creates a monitor service. Threshold defaults to the alert package's
// default when unset.
func New(cfg Config) *Service {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = alerts.DefaultThreshold
	}
	return &Service{
		source:    cfg.Source,
		store:     cfg.Store,
		alertSink: cfg.AlertSink,
		notifier:  cfg.Notifier,
		eventMgr:  cfg.EventMgr,
		threshold: threshold,
		log:       cfg.Log.With().Str("service", "monitor").Logger(),
	}
}

// Threshold returns the configured underperformer boundary.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// State returns the current state, or nil before the first rebuild.
func (s *Service) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ProjectionTree implements filters.TreeProvider.
func (s *Service) ProjectionTree() *hierarchy.Node {
	st := s.State()
	if st == nil {
		return nil
	}
	return st.Projection
}

// Selection returns the selection the current state was built for.
func (s *Service) Selection() filters.Selection {
	st := s.State()
	if st == nil {
		return filters.Selection{}
	}
	return st.Selection
}

// Refresh fetches a fresh snapshot, persists it, and rebuilds using the
// current selection. Fetch failures fall back to the stored snapshot so the
// dashboard keeps serving the last known data.
func (s *Service) Refresh(ctx context.Context) error {
	raws, err := s.source.FetchRecords(ctx, rtms.FetchQuery{})
	if err != nil {
		s.log.Warn().Err(err).Msg("Snapshot fetch failed, keeping last data")
		if s.State() == nil {
			if restoreErr := s.RestoreFromStore(); restoreErr != nil {
				return restoreErr
			}
			// An empty cache db restores nothing; callers must not see
			// success while State() is still nil.
			if s.State() == nil {
				return fmt.Errorf("snapshot fetch failed with no stored fallback: %w", err)
			}
			return nil
		}
		return fmt.Errorf("snapshot fetch failed: %w", err)
	}

	snap := snapshots.NewSnapshot(raws, time.Now())
	if s.store != nil {
		if err := s.store.SaveLatest(snap); err != nil {
			// Persistence is an audit convenience; the rebuild proceeds.
			s.log.Error().Err(err).Msg("Failed to persist snapshot")
		}
	}

	if s.eventMgr != nil {
		s.eventMgr.Emit(events.SnapshotFetched, "monitor", map[string]interface{}{
			"snapshot_id": snap.ID,
			"records":     len(raws),
		})
	}

	s.rebuild(ctx, snap, s.Selection())
	return nil
}

// RestoreFromStore rebuilds from the persisted snapshot, if any. Used at
// startup so the dashboard has a tree before the first live fetch.
func (s *Service) RestoreFromStore() error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.Latest()
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if snap == nil {
		s.log.Info().Msg("No persisted snapshot to restore")
		return nil
	}

	s.log.Info().
		Str("snapshot_id", snap.ID).
		Time("fetched_at", snap.FetchedAt).
		Int("records", len(snap.Records)).
		Msg("Restoring persisted snapshot")
	s.rebuild(context.Background(), *snap, s.Selection())
	return nil
}

// ApplySelection rebuilds the views from the cached snapshot under a new
// selection. No fetch happens here; selection changes are a pure
// re-projection of the latest snapshot.
func (s *Service) ApplySelection(sel filters.Selection) {
	st := s.State()
	if st == nil {
		return
	}

	if s.eventMgr != nil {
		s.eventMgr.Emit(events.SelectionChanged, "monitor", map[string]interface{}{
			"unit":  sel.Unit,
			"floor": sel.Floor,
			"line":  sel.Line,
			"part":  sel.Part,
		})
	}

	snap := snapshots.Snapshot{ID: st.SnapshotID, FetchedAt: st.FetchedAt}
	s.rebuildFromNormalized(context.Background(), snap, st.Records, sel, false)
}

// rebuild normalizes a raw snapshot and publishes the resulting state.
func (s *Service) rebuild(ctx context.Context, snap snapshots.Snapshot, sel filters.Selection) {
	records := normalize.NormalizeAll(snap.Records)
	s.rebuildFromNormalized(ctx, snap, records, sel, true)
}

// rebuildFromNormalized builds trees, summary and alerts and swaps the
// state. Alert persistence and delivery only run for fresh snapshots, not
// for selection re-projections, so an operator flipping filters does not
// re-raise the same alerts.
func (s *Service) rebuildFromNormalized(
	ctx context.Context,
	snap snapshots.Snapshot,
	records []normalize.EmployeeRecord,
	sel filters.Selection,
	freshSnapshot bool,
) {
	scoped := sel.Apply(records)

	tree := hierarchy.BuildTree(scoped, hierarchy.CanonicalLevels(), s.threshold)
	projection := hierarchy.BuildTree(records, hierarchy.ProjectionLevels(), s.threshold)

	// Analysis and alerts run on the deduplicated leaves the tree kept,
	// so first-wins dedupe applies uniformly everywhere.
	leaves := tree.FlattenEmployees()
	summary := analysis.Analyze(leaves, s.threshold)
	batch := alerts.Detect(tree, s.threshold, time.Now())

	st := &State{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		RebuiltAt:  time.Now(),
		Selection:  sel,
		Records:    records,
		Tree:       tree,
		Projection: projection,
		Summary:    summary,
		Alerts:     batch,
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.log.Info().
		Str("snapshot_id", snap.ID).
		Int("records", len(records)).
		Int("scoped", len(scoped)).
		Int("alerts", len(batch)).
		Float64("overall_efficiency", summary.OverallEfficiency).
		Msg("Rebuild completed")

	if s.eventMgr != nil {
		s.eventMgr.Emit(events.RebuildCompleted, "monitor", map[string]interface{}{
			"snapshot_id":        snap.ID,
			"records":            len(records),
			"alerts":             len(batch),
			"overall_efficiency": summary.OverallEfficiency,
		})
	}

	if !freshSnapshot {
		return
	}

	if s.alertSink != nil && len(batch) > 0 {
		if err := s.alertSink.InsertBatch(batch); err != nil {
			s.log.Error().Err(err).Msg("Failed to record alert batch")
		}
	}
	if s.notifier != nil && len(batch) > 0 {
		s.notifier.SendHighSeverity(ctx, batch)
		if s.eventMgr != nil {
			s.eventMgr.Emit(events.AlertsGenerated, "monitor", map[string]interface{}{
				"count": len(batch),
			})
		}
	}
}
