package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockcast/internal/contracts"
	"github.com/wonny/stockcast/pkg/logger"
)

// DailyCollector is the part of the collector the daily job drives
type DailyCollector interface {
	CollectDaily(ctx context.Context) (contracts.BatchSummary, error)
}

// DataCollectionJob appends the latest feature rows after market close
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataCollectionJob struct {
	collector DailyCollector
	schedule  string
	logger    *logger.Logger
}

// NewDataCollectionJob creates a new data collection job
func NewDataCollectionJob(col DailyCollector, schedule string, log *logger.Logger) *DataCollectionJob {
	if schedule == "" {
		schedule = "0 30 16 * * MON-FRI"
	}
	return &DataCollectionJob{
		collector: col,
		schedule:  schedule,
		logger:    log.WithField("job", "data_collection"),
	}
}

// Name returns the job name
func (j *DataCollectionJob) Name() string {
	return "data_collection"
}

// Schedule returns the cron schedule (weekdays after close by default)
func (j *DataCollectionJob) Schedule() string {
	return j.schedule
}

// Run executes the daily collection.
// A run where no ticker succeeded is reported as failed so the scheduler retries it.
func (j *DataCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data collection")

	summary, err := j.collector.CollectDaily(ctx)
	if err != nil {
		return fmt.Errorf("collect daily: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"saved":     summary.RecordsSaved,
	}).Info("Scheduled data collection completed")

	if summary.Total > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("no ticker collected (%d failed, %d skipped)", summary.Failed, summary.Skipped)
	}
	return nil
}
