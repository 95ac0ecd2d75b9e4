// internal/workers/shortlist/remove-candidate/handler.go
package removecandidate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/metrics"
	"talent-shortlist/internal/common/validation"
	"talent-shortlist/internal/shortlist"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "shortlist-remove-candidate"

type Handler struct {
	config       *Config
	store        *shortlist.Store
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
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
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing shortlist remove", map[string]interface{}{
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

func ParseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(variables))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.NewParseError(err)
	}
	res, err := validation.ValidateAgainst(GetInputSchema(), raw)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !res.Valid {
		return nil, errors.NewParseError(fmt.Errorf("%s", res.Summary()))
	}
	id, err := entryIDString(raw["entryId"])
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	return &Input{EntryID: id}, nil
}

// entryIDString keeps numeric ids in their exact decimal form so they match
// the stored entry id.
func entryIDString(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("entryId must be a string or number, got %T", v)
	}
}

// Execute removes the entry. An unknown id completes with Removed=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	removed, err := h.store.Remove(ctx, input.EntryID)
	if err != nil {
		return nil, shortlist.ToStandardError(err)
	}
	return &Output{Removed: removed, EntryID: input.EntryID}, nil
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
		"removed": output.Removed,
	})
}
