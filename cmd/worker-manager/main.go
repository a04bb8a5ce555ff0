// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gias-workers/internal/common/camunda"
	"gias-workers/internal/common/config"
	"gias-workers/internal/common/database"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
	"gias-workers/internal/intent"
	"gias-workers/internal/kg"
	"gias-workers/internal/llm"
	"gias-workers/internal/llm/prompts"
	"gias-workers/internal/llm/providers"

	cq "gias-workers/internal/workers/catalog/catalog-query"
	ma "gias-workers/internal/workers/intent/match-actions"
	pi "gias-workers/internal/workers/intent/parse-intent"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level/format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      time.Duration(cfg.Camunda.Timeout) * time.Millisecond,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Neo4j with retry ---
	var graph *database.Neo4jClient
	err = retryWithBackoff(func() error {
		var err error
		graph, err = database.NewNeo4j(cfg.Graph, log, obs)
		if err != nil {
			return err
		}
		return graph.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Neo4j connection")

	if err != nil {
		zapLog.Fatal("neo4j failed after retries", zap.Error(err))
	}
	defer graph.Close(ctx)
	zapLog.Info("Neo4j connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Assemble LLM client, prompt registry, matcher and catalog ---
	provider, err := providers.FromConfig(cfg.LLM)
	if err != nil {
		zapLog.Fatal("llm provider init failed", zap.Error(err))
	}
	cache := llm.NewCache(redis.GetClient(), time.Duration(cfg.LLM.CacheTTL)*time.Second)
	llmClient := llm.NewClient(provider, cache, cfg.LLM, log, obs)
	registry := prompts.NewRegistry()

	profile := intent.ExpoProfile(cfg.Intent.PreserveLiterals)
	catalog := kg.NewCatalog(graph)
	actionStore := kg.NewActionStore(graph)
	matcher := intent.NewMatcher(actionStore, llmClient, profile, cfg.Intent, log)
	scopeGate := intent.NewScopeGate(llmClient, registry, log)

	zapLog.Info("LLM and graph components initialized",
		zap.String("provider", llmClient.Provider()),
		zap.String("profile", profile.Name),
	)

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	// Parse Intent
	if taskType := pi.TaskType; cfg.Workers[taskType].Enabled {
		handler, err := pi.NewHandler(
			&pi.Config{
				Timeout:       time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				MaxFixRetries: cfg.Workers[taskType].MaxRetries,
			},
			llmClient, registry, profile, obs, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create parse-intent handler", zap.Error(err))
		}
		workers = append(workers, startWorker(camundaClient, taskType, cfg.Workers[taskType], handler, zapLog))
	}

	// Match Actions
	if taskType := ma.TaskType; cfg.Workers[taskType].Enabled {
		handler := ma.NewHandler(
			&ma.Config{
				Timeout: time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
			},
			matcher, catalog, scopeGate, obs, log,
		)
		workers = append(workers, startWorker(camundaClient, taskType, cfg.Workers[taskType], handler, zapLog))
	}

	// Catalog Query
	if taskType := cq.TaskType; cfg.Workers[taskType].Enabled {
		handler := cq.NewHandler(
			&cq.Config{
				Timeout: time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
			},
			catalog, obs, log,
		)
		workers = append(workers, startWorker(camundaClient, taskType, cfg.Workers[taskType], handler, zapLog))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", countStarted(workers)))

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				status := "healthy"
				code := http.StatusOK
				if err := camundaClient.HealthCheck(r.Context()); err != nil {
					status = "degraded"
					code = http.StatusServiceUnavailable
				}
				w.WriteHeader(code)
				json.NewEncoder(w).Encode(map[string]string{
					"status": status,
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		if w != nil {
			w.Stop(shutdownCtx)
		}
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log *zap.Logger) *camunda.CamundaWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	w := camunda.NewWorker(
		client.GetClient(),
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handler,
		log,
	)
	w.Start()
	return w
}

func countStarted(workers []*camunda.CamundaWorker) int {
	n := 0
	for _, w := range workers {
		if w != nil {
			n++
		}
	}
	return n
}
