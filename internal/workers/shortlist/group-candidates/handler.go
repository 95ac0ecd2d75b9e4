// internal/workers/shortlist/group-candidates/handler.go
package groupcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/metrics"
	"talent-shortlist/internal/shortlist"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "shortlist-group-candidates"

type Handler struct {
	config       *Config
	store        *shortlist.Store
	grouper      *shortlist.Grouper
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(cfg *Config, store *shortlist.Store, grouper *shortlist.Grouper, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if grouper == nil {
		grouper = shortlist.NewGrouper(shortlist.DefaultFallbackPhase, shortlist.DefaultFallbackApplication)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		store:        store,
		grouper:      grouper,
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

	var input Input
	if vars := job.GetVariables(); vars != "" {
		if err := json.Unmarshal([]byte(vars), &input); err != nil {
			h.fail(ctx, client, job, errors.NewParseError(err))
			return
		}
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	entries, err := h.store.List(ctx)
	if err != nil {
		return nil, shortlist.ToStandardError(err)
	}

	groups := h.grouper.Group(entries)
	if input.Phase != "" {
		filtered := []shortlist.PhaseGroup{}
		for _, g := range groups {
			if g.PhaseName == input.Phase {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}

	out := &Output{Groups: groups, PhaseCount: len(groups)}
	for _, g := range groups {
		for _, app := range g.Applications {
			out.CandidateCount += len(app.Candidates)
		}
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
		"jobKey":     job.Key,
		"phases":     output.PhaseCount,
		"candidates": output.CandidateCount,
	})
}
