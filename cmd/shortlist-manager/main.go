// cmd/shortlist-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-shortlist/internal/api"
	"talent-shortlist/internal/common/aws"
	"talent-shortlist/internal/common/camunda"
	"talent-shortlist/internal/common/config"
	"talent-shortlist/internal/common/database"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/metrics"
	"talent-shortlist/internal/common/observability"
	"talent-shortlist/internal/search"
	"talent-shortlist/internal/shortlist"
	"talent-shortlist/pkg/registry"
)

// retryWithBackoff retries operation with exponential backoff. Errors that do not
// look like connectivity problems end the loop early.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !camunda.IsTransient(err) {
			return fmt.Errorf("%s failed: %w", operationName, err)
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("Starting shortlist manager...", map[string]interface{}{
		"backend":     cfg.Shortlist.Backend,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown(context.Background())

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("shortlist backend failed", zap.Error(err))
	}
	defer backend.Close()

	origin := uuid.NewString()
	broadcaster := shortlist.NewBroadcaster()
	defer broadcaster.Close()

	notifiers := []shortlist.Notifier{broadcaster}
	if backend.redis != nil {
		notifiers = append(notifiers, shortlist.NewRedisNotifier(backend.redis.Client, cfg.Shortlist.ChangeChannel))
	}

	if cfg.Shortlist.SNSTopicARN != "" {
		snsClient, err := aws.NewSNSClient(ctx, cfg.AWS)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifiers = append(notifiers, shortlist.NewSNSNotifier(snsClient, cfg.Shortlist.SNSTopicARN))
		log.Info("Publishing shortlist changes to SNS", map[string]interface{}{"topic": cfg.Shortlist.SNSTopicARN})
	}

	var indexer *search.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		indexer, err = openIndexer(ctx, cfg, log)
		if err != nil {
			zapLog.Fatal("elasticsearch failed", zap.Error(err))
		}
		notifiers = append(notifiers, indexer)
	}

	store := shortlist.NewStore(backend.kv, cfg.Shortlist.StorageKey, log,
		shortlist.WithNotifiers(notifiers...),
		shortlist.WithRecorders(metrics.StoreRecorder{}, obs),
		shortlist.WithOrigin(origin),
	)
	grouper := shortlist.NewGrouper(cfg.Shortlist.FallbackPhase, cfg.Shortlist.FallbackApplication)

	if indexer != nil {
		reindex(ctx, store, indexer, log)
	}

	if backend.redis != nil {
		watcher := shortlist.NewRedisWatcher(backend.redis.Client, cfg.Shortlist.ChangeChannel, origin, log)
		go func() {
			if err := watcher.Run(ctx, broadcaster); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Change watcher stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	checkRegistry(cfg, log)

	var workers *workerSet
	if cfg.Camunda.Enabled {
		workers, err = startWorkers(cfg, store, grouper, obs, log)
		if err != nil {
			zapLog.Fatal("zeebe workers failed", zap.Error(err))
		}
		defer workers.Close()
	}

	apiOpts := []api.ShortlistOption{
		api.WithBroadcaster(broadcaster),
		api.WithExportSheet(cfg.Export.SheetName),
	}
	if indexer != nil {
		apiOpts = append(apiOpts, api.WithSearcher(indexer))
	}
	checks := map[string]api.Pinger{"store": store}
	if workers != nil {
		checks["zeebe"] = pingFunc(workers.client.HealthCheck)
	}

	router := api.NewRouter(
		api.NewShortlistHandlers(store, grouper, log, apiOpts...),
		api.NewHealthHandlers(checks),
		log,
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: config.GetDuration(cfg.HTTP.ReadTimeout),
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...", nil)

	// Open event streams only end when the broadcaster closes.
	broadcaster.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Shortlist manager stopped", nil)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func reindex(ctx context.Context, store *shortlist.Store, indexer *search.Indexer, log logger.Logger) {
	entries, err := store.List(ctx)
	if err != nil {
		log.Warn("Skipping search reindex", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := indexer.Reindex(ctx, entries); err != nil {
		log.Warn("Search reindex incomplete", map[string]interface{}{"error": err.Error()})
		return
	}
	log.Info("Search index rebuilt", map[string]interface{}{"entries": len(entries)})
}

// checkRegistry warns when a worker task type has no activity registry entry.
func checkRegistry(cfg *config.Config, log logger.Logger) {
	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		log.Warn("Activity registry not loaded", map[string]interface{}{
			"path":  cfg.RegistryPath,
			"error": err.Error(),
		})
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("Activity registry is invalid", map[string]interface{}{"error": err.Error()})
	}
	if missing := reg.Missing(workerTaskTypes()...); len(missing) > 0 {
		log.Warn("Task types missing from activity registry", map[string]interface{}{
			"taskTypes": strings.Join(missing, ","),
		})
	}
}

func openIndexer(ctx context.Context, cfg *config.Config, log logger.Logger) (*search.Indexer, error) {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 10, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}
	log.Info("Elasticsearch connected successfully", nil)
	return search.NewIndexer(es.Client, cfg.Database.Elasticsearch.Index, log), nil
}
