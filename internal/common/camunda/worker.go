// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"talent-shortlist/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every shortlist worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobObserver receives one outcome per handled job.
type JobObserver interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration)
}

// Job outcomes reported to a JobObserver.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobThrown    = "error_thrown"
	JobAbandoned = "abandoned"
)

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Name          string
	Observer      JobObserver
}

// NewWorker opens a job worker. The zbc client stays owned by the caller.
func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(Observe(opts.TaskType, handler, opts.Observer))

	builder := step.MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}
	if opts.Name != "" {
		builder = builder.Name(opts.Name)
	}

	w := &CamundaWorker{
		worker:   builder.Open(),
		logger:   log.WithFields(map[string]interface{}{"taskType": opts.TaskType}),
		taskType: opts.TaskType,
	}
	w.logger.Info("Worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
	})
	return w
}

// Observe wraps handler so that the command it issues for each job is reported
// to observer. A nil observer returns the handler unchanged.
func Observe(taskType string, handler JobHandler, observer JobObserver) worker.JobHandler {
	if observer == nil {
		return handler.Handle
	}
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		tracked := &outcomeClient{JobClient: client, outcome: JobAbandoned}
		handler.Handle(tracked, job)

		ctx := context.Background()
		observer.RecordJobProcessed(ctx, taskType, tracked.outcome)
		observer.RecordJobDuration(ctx, taskType, time.Since(start))
	}
}

// outcomeClient remembers which terminal command a handler created.
type outcomeClient struct {
	worker.JobClient
	outcome string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.outcome = JobCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome = JobFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome = JobThrown
	return c.JobClient.NewThrowErrorCommand()
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("Stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
