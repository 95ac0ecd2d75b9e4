// internal/workers/shortlist/add-candidate/handler.go
package addcandidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/metrics"
	"talent-shortlist/internal/common/validation"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "shortlist-add-candidate"

type Handler struct {
	config       *Config
	store        *shortlist.Store
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(cfg *Config, store *shortlist.Store, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		store:        store,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing shortlist add", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := ParseInput(job.GetVariables())
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// ParseInput decodes and validates job variables.
func ParseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewParseError(err)
	}
	res, err := validation.ValidateAgainst(GetInputSchema(), raw)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !res.Valid {
		return nil, errors.NewInvalidRecordError(res.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

// Execute adds the candidate. A duplicate completes normally with Added=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	record := input.Candidate
	if record.ShortlistedFrom == "" {
		record.ShortlistedFrom = input.Phase
	}
	if record.ApplicationLabel == "" {
		record.ApplicationLabel = input.ApplicationLabel
	}
	if record.ShortlistedDate == "" {
		record.ShortlistedDate = h.now().Format(models.DateLayout)
	}

	res, err := h.store.Add(ctx, record)
	if err != nil {
		return nil, shortlist.ToStandardError(err)
	}

	out := &Output{
		Added:   res.Added,
		EntryID: res.Entry.ID.String(),
		Reason:  res.Reason,
	}
	if res.Added {
		out.ShortlistedAt = res.Entry.ShortlistedDate
	}
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("Job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"added":   output.Added,
		"entryId": output.EntryID,
	})
}
