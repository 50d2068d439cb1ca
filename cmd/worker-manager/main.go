// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"merchant-onboarding/internal/analyzers"
	"merchant-onboarding/internal/application"
	awsclients "merchant-onboarding/internal/common/aws"
	"merchant-onboarding/internal/common/camunda"
	"merchant-onboarding/internal/common/config"
	"merchant-onboarding/internal/common/database"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/observability"
	"merchant-onboarding/internal/fusion"
	"merchant-onboarding/internal/notification"
	"merchant-onboarding/internal/repository"
	"merchant-onboarding/internal/risk"

	ad "merchant-onboarding/internal/workers/onboarding/analyze-document"
	gas "merchant-onboarding/internal/workers/onboarding/get-application-status"
	ic "merchant-onboarding/internal/workers/onboarding/issue-contract"
	sa "merchant-onboarding/internal/workers/onboarding/search-applications"
	sdn "merchant-onboarding/internal/workers/onboarding/send-decision-notification"
	sub "merchant-onboarding/internal/workers/onboarding/submit-application"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
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

	zapLog := logger.NewWithOptions(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: cfg.App.Name,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability setup incomplete", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zc *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zc, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Application store ---
	var (
		repo    application.Repository
		options []application.Option
		pg      *database.PostgresClient
	)
	switch cfg.Onboarding.Repository {
	case "memory":
		mem := application.NewMemoryRepository()
		repo = mem
		options = append(options, application.WithEvents(mem))
		zapLog.Warn("using in-memory application store; data is lost on restart")
	default:
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema setup failed", zap.Error(err))
		}
		store := repository.NewPostgres(pg.DB, log)
		repo = store
		options = append(options, application.WithEvents(store))
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Onboarding.CacheEnabled {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()

		repo = repository.NewCached(repo, rc.Client, config.GetDuration(cfg.Onboarding.CacheTTL), log)
		zapLog.Info("Redis connected successfully")
	}

	var searchIndex *repository.SearchIndex
	if cfg.Onboarding.IndexingEnabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		if err := esClient.EnsureIndex(ctx, cfg.Onboarding.SearchIndex, repository.IndexMapping); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
		searchIndex = repository.NewSearchIndex(esClient.Client, cfg.Onboarding.SearchIndex, log)
		options = append(options, application.WithIndexer(searchIndex))
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Onboarding.SearchIndex))
	}

	service := application.NewService(repo, risk.NewScorer(log), log, options...)

	// --- Analyzers ---
	orchestrator := fusion.NewOrchestrator(
		analyzers.NewTextClient(cfg.Analyzers.Text, cfg.Analyzers.Breaker, log),
		analyzers.NewVisionClient(cfg.Analyzers.Vision, cfg.Analyzers.Breaker, log),
		analyzers.NewEntityClient(cfg.Analyzers.NLP, cfg.Analyzers.Breaker, log),
		fusion.NewRunner(cfg.Analyzers.MaxConcurrentCalls, log),
		log,
	)

	// --- Notifications ---
	aws, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws client setup failed", zap.Error(err))
	}
	notifier, err := notification.NewNotifier(notification.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		SenderID:     cfg.Notifications.SMS.SenderID,
	}, aws.SES, aws.SNS, log)
	if err != nil {
		zapLog.Fatal("notifier setup failed", zap.Error(err))
	}

	// --- Workers ---
	client := zc.GetClient()
	workers := []*camunda.CamundaWorker{
		camunda.NewWorker(client, ad.TaskType, config.GetWorkerConfig(cfg, ad.TaskType),
			ad.NewHandler(ad.LoadConfig(cfg), orchestrator, log), obs, log),
		camunda.NewWorker(client, sub.TaskType, config.GetWorkerConfig(cfg, sub.TaskType),
			sub.NewHandler(sub.LoadConfig(cfg), service, log), obs, log),
		camunda.NewWorker(client, gas.TaskType, config.GetWorkerConfig(cfg, gas.TaskType),
			gas.NewHandler(gas.LoadConfig(cfg), service, log), obs, log),
		camunda.NewWorker(client, ic.TaskType, config.GetWorkerConfig(cfg, ic.TaskType),
			ic.NewHandler(ic.LoadConfig(cfg), service, log), obs, log),
		camunda.NewWorker(client, sdn.TaskType, config.GetWorkerConfig(cfg, sdn.TaskType),
			sdn.NewHandler(sdn.LoadConfig(cfg), service, notifier, log), obs, log),
	}
	if searchIndex != nil {
		workers = append(workers, camunda.NewWorker(client, sa.TaskType, config.GetWorkerConfig(cfg, sa.TaskType),
			sa.NewHandler(sa.LoadConfig(cfg), searchIndex, log), obs, log))
	} else {
		zapLog.Info("search worker not started; indexing is disabled", zap.String("taskType", sa.TaskType))
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zc.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics provider", zap.Error(err))
	}
	if err := zc.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
