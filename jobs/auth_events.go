package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/comanda-erp/comanda/internal/audit"
	jobmetrics "github.com/comanda-erp/comanda/internal/jobs"
)

// EventRecorder stores audit events.
type EventRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// AuthEventJob writes queued authentication events.
type AuthEventJob struct {
	Recorder EventRecorder
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewAuthEventJob constructs the job handler.
func NewAuthEventJob(recorder EventRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthEventJob {
	return &AuthEventJob{Recorder: recorder, Logger: logger, Metrics: metrics}
}

// NewAuthEventTask creates an Asynq task carrying event. The event id doubles
// as task id so a retried enqueue does not duplicate the entry.
func NewAuthEventTask(event audit.Event) (*asynq.Task, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthEvent, body,
		asynq.Queue(QueueAudit),
		asynq.TaskID(event.ID.String()),
		asynq.MaxRetry(5),
		asynq.Retention(time.Hour),
	), nil
}

// Handle executes the auth event job.
func (j *AuthEventJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Recorder == nil {
		return errors.New("auth event job not initialised")
	}
	tracker := j.Metrics.Track(TaskAuthEvent)

	var event audit.Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		j.logger().Error("auth event payload", slog.Any("error", err))
		return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	if err := event.Validate(); err != nil {
		return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	if err := j.Recorder.Record(ctx, event); err != nil {
		j.logger().Warn("auth event record", slog.String("kind", string(event.Kind)), slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (j *AuthEventJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
