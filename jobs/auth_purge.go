package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/comanda-erp/comanda/internal/jobs"
)

// EventPurger removes stale audit events.
type EventPurger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthPurgeJob enforces the audit retention window.
type AuthPurgeJob struct {
	Purger    EventPurger
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAuthPurgeJob constructs the job handler.
func NewAuthPurgeJob(purger EventPurger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthPurgeJob {
	return &AuthPurgeJob{
		Purger:    purger,
		Retention: retention,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewAuthPurgeTask creates the periodic purge task.
func NewAuthPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskAuthPurge, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}

// Handle executes the purge job.
func (j *AuthPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Purger == nil {
		return errors.New("auth purge job not initialised")
	}
	if j.Retention <= 0 {
		return nil
	}
	tracker := j.Metrics.Track(TaskAuthPurge)
	cutoff := j.clock().Add(-j.Retention)
	removed, err := j.Purger.Purge(ctx, cutoff)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddPurged(removed)
	if j.Logger != nil && removed > 0 {
		j.Logger.Info("auth events purged", slog.Int64("count", removed), slog.Time("cutoff", cutoff))
	}
	return tracker.End(nil)
}
