package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/modules/monitor"
)

// DailySummaryJob logs a morning overview of the floor so the state of the
// previous shift is recorded even when nobody opens the dashboard.
type DailySummaryJob struct {
	service *monitor.Service
	log     zerolog.Logger
}

// NewDailySummaryJob creates a daily summary job
func NewDailySummaryJob(service *monitor.Service, log zerolog.Logger) *DailySummaryJob {
	return &DailySummaryJob{
		service: service,
		log:     log.With().Str("job", "daily_summary").Logger(),
	}
}

// Name returns the job name
func (j *DailySummaryJob) Name() string {
	return "daily_summary"
}

// Run logs the current analysis summary
func (j *DailySummaryJob) Run() error {
	st := j.service.State()
	if st == nil {
		j.log.Debug().Msg("No snapshot loaded, skipping summary")
		return nil
	}

	s := st.Summary
	j.log.Info().
		Float64("overall_efficiency", s.OverallEfficiency).
		Int("total_production", s.TotalProduction).
		Int("total_target", s.TotalTarget).
		Int("records_analyzed", s.RecordsAnalyzed).
		Int("underperformers", s.UnderperformerCount).
		Msg("Daily production summary")
	return nil
}
