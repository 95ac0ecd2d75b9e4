package camunda

import (
	"context"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

type nopJobClient struct{}

func (nopJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }
func (nopJobClient) NewFailJobCommand() commands.FailJobCommandStep1         { return nil }
func (nopJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1   { return nil }

type recordingObserver struct {
	statuses  []string
	durations int
}

func (r *recordingObserver) RecordJobProcessed(_ context.Context, _ string, status string) {
	r.statuses = append(r.statuses, status)
}

func (r *recordingObserver) RecordJobDuration(context.Context, string, time.Duration) {
	r.durations++
}

type handlerFunc func(client worker.JobClient, job entities.Job)

func (f handlerFunc) Handle(client worker.JobClient, job entities.Job) { f(client, job) }

func TestObserve_ReportsOutcome(t *testing.T) {
	obs := &recordingObserver{}

	handlers := []handlerFunc{
		func(c worker.JobClient, _ entities.Job) { c.NewCompleteJobCommand() },
		func(c worker.JobClient, _ entities.Job) { c.NewFailJobCommand() },
		func(c worker.JobClient, _ entities.Job) { c.NewThrowErrorCommand() },
		func(worker.JobClient, entities.Job) {},
	}
	for _, h := range handlers {
		Observe("shortlist-add-candidate", h, obs)(nopJobClient{}, entities.Job{})
	}

	assert.Equal(t, []string{JobCompleted, JobFailed, JobThrown, JobAbandoned}, obs.statuses)
	assert.Equal(t, 4, obs.durations)
}

func TestObserve_NilObserver(t *testing.T) {
	called := false
	h := Observe("x", handlerFunc(func(worker.JobClient, entities.Job) { called = true }), nil)
	h(nopJobClient{}, entities.Job{})
	assert.True(t, called)
}
