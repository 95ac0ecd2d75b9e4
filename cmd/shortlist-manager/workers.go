// cmd/shortlist-manager/workers.go
package main

import (
	"strings"
	"time"

	"talent-shortlist/internal/common/camunda"
	"talent-shortlist/internal/common/config"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/shortlist"

	addcandidate "talent-shortlist/internal/workers/shortlist/add-candidate"
	groupcandidates "talent-shortlist/internal/workers/shortlist/group-candidates"
	removecandidate "talent-shortlist/internal/workers/shortlist/remove-candidate"
)

func workerTaskTypes() []string {
	return []string{addcandidate.TaskType, removecandidate.TaskType, groupcandidates.TaskType}
}

type workerSet struct {
	client  *camunda.Client
	workers []*camunda.CamundaWorker
}

// Close stops every worker before closing the client they share.
func (s *workerSet) Close() {
	for _, w := range s.workers {
		w.Stop()
	}
	s.client.Close()
}

func startWorkers(cfg *config.Config, store *shortlist.Store, grouper *shortlist.Grouper, observer camunda.JobObserver, log logger.Logger) (*workerSet, error) {
	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	log.Info("Zeebe client connected successfully", nil)

	set := &workerSet{client: client}
	start := func(taskType string, handler camunda.JobHandler) {
		wc := config.GetWorkerConfig(cfg, taskType)
		set.workers = append(set.workers, camunda.NewWorker(client.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wc.MaxJobsActive,
			Timeout:       config.GetDuration(wc.Timeout),
			Name:          cfg.App.Name,
			Observer:      observer,
		}, handler, log))
	}

	if config.IsWorkerEnabled(cfg, addcandidate.TaskType) {
		h, err := addcandidate.NewHandler(addcandidate.FromAppConfig(cfg), store, log)
		if err != nil {
			set.Close()
			return nil, err
		}
		start(addcandidate.TaskType, h)
	}

	if config.IsWorkerEnabled(cfg, removecandidate.TaskType) {
		h, err := removecandidate.NewHandler(removecandidate.FromAppConfig(cfg), store, log)
		if err != nil {
			set.Close()
			return nil, err
		}
		start(removecandidate.TaskType, h)
	}

	if config.IsWorkerEnabled(cfg, groupcandidates.TaskType) {
		h, err := groupcandidates.NewHandler(groupcandidates.FromAppConfig(cfg), store, grouper, log)
		if err != nil {
			set.Close()
			return nil, err
		}
		start(groupcandidates.TaskType, h)
	}

	registered := make([]string, 0, len(set.workers))
	for _, w := range set.workers {
		registered = append(registered, w.TaskType())
	}
	log.Info("Shortlist workers registered", map[string]interface{}{
		"count":     len(set.workers),
		"taskTypes": strings.Join(registered, ","),
	})
	return set, nil
}
