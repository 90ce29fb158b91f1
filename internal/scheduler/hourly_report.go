package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/events"
	"github.com/fabricpulse/rtms/internal/modules/monitor"
	"github.com/fabricpulse/rtms/internal/modules/reports"
)

// HourlyReportJob writes the flagged-employee CSV for the current snapshot.
type HourlyReportJob struct {
	service  *monitor.Service
	writer   *reports.Writer
	eventMgr *events.Manager
	log      zerolog.Logger
}

// NewHourlyReportJob creates an hourly report job
func NewHourlyReportJob(
	service *monitor.Service,
	writer *reports.Writer,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *HourlyReportJob {
	return &HourlyReportJob{
		service:  service,
		writer:   writer,
		eventMgr: eventMgr,
		log:      log.With().Str("job", "hourly_report").Logger(),
	}
}

// Name returns the job name
func (j *HourlyReportJob) Name() string {
	return "hourly_report"
}

// Run writes a report of all currently flagged employees. Skips silently
// when no snapshot has been loaded yet.
func (j *HourlyReportJob) Run() error {
	st := j.service.State()
	if st == nil {
		j.log.Debug().Msg("No snapshot loaded, skipping report")
		return nil
	}

	path, err := j.writer.WriteFlagged(st.Tree.FlattenEmployees(), j.service.Threshold(), time.Now())
	if err != nil {
		return err
	}
	if path == "" {
		j.log.Info().Msg("No flagged employees this hour")
		return nil
	}

	j.log.Info().Str("path", path).Msg("Hourly report written")
	if j.eventMgr != nil {
		j.eventMgr.Emit(events.ReportGenerated, "scheduler", map[string]interface{}{
			"path": path,
		})
	}
	return nil
}
