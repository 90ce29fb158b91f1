package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/database"
)

// AlertPruner removes persisted alerts older than a cutoff.
type AlertPruner interface {
	Prune(olderThan time.Time) (int64, error)
}

// AlertPruneJob trims the alert log so it does not grow without bound.
type AlertPruneJob struct {
	pruner    AlertPruner
	retention time.Duration
	log       zerolog.Logger
}

// NewAlertPruneJob creates an alert prune job
func NewAlertPruneJob(pruner AlertPruner, retention time.Duration, log zerolog.Logger) *AlertPruneJob {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &AlertPruneJob{
		pruner:    pruner,
		retention: retention,
		log:       log.With().Str("job", "alert_prune").Logger(),
	}
}

// Name returns the job name
func (j *AlertPruneJob) Name() string {
	return "alert_prune"
}

// Run deletes alerts older than the retention window
func (j *AlertPruneJob) Run() error {
	removed, err := j.pruner.Prune(time.Now().Add(-j.retention))
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("Pruned old alerts")
	}
	return nil
}

// WALCheckpointJob checkpoints the SQLite WAL files so they do not grow
// unbounded between restarts.
type WALCheckpointJob struct {
	dbs []*database.DB
	log zerolog.Logger
}

// NewWALCheckpointJob creates a WAL checkpoint job
func NewWALCheckpointJob(dbs []*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		dbs: dbs,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every registered database, continuing past failures
func (j *WALCheckpointJob) Run() error {
	var lastErr error
	for _, db := range j.dbs {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			lastErr = err
		}
	}
	return lastErr
}
