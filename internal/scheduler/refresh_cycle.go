package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MonitorService is the subset of the monitor service jobs need.
type MonitorService interface {
	Refresh(ctx context.Context) error
}

// RefreshCycleJob re-fetches the upstream snapshot and rebuilds the views.
type RefreshCycleJob struct {
	service MonitorService
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshCycleJob creates a refresh cycle job
func NewRefreshCycleJob(service MonitorService, log zerolog.Logger) *RefreshCycleJob {
	return &RefreshCycleJob{
		service: service,
		timeout: 2 * time.Minute,
		log:     log.With().Str("job", "refresh_cycle").Logger(),
	}
}

// Name returns the job name
func (j *RefreshCycleJob) Name() string {
	return "refresh_cycle"
}

// Run executes the refresh cycle
func (j *RefreshCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.service.Refresh(ctx); err != nil {
		return err
	}

	j.log.Info().Dur("duration", time.Since(start)).Msg("Refresh cycle completed")
	return nil
}
