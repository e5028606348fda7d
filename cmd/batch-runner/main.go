// cmd/batch-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobmatch-engine/internal/catalog"
	awsclient "jobmatch-engine/internal/common/aws"
	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/database"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/observability"
	"jobmatch-engine/internal/delivery"
	"jobmatch-engine/internal/engine/batch"
	"jobmatch-engine/internal/engine/dedup"
	"jobmatch-engine/internal/engine/pipeline"
	"jobmatch-engine/internal/engine/scoring"
	"jobmatch-engine/internal/engine/selection"
	"jobmatch-engine/internal/engine/supplement"
	"jobmatch-engine/internal/models"
	"jobmatch-engine/internal/store"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting batch runner...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ESClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearchClient(cfg.Database.Elasticsearch)
		return err
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Catalogs and stores ---
	jobCatalog := catalog.NewJobCatalog(esClient.Client, cfg.Database.Elasticsearch.JobIndex, log)
	userCatalog := catalog.NewUserCatalog(pg.DB, rdb.Client, log)
	resultStore := store.NewResultStore(pg.DB, log)

	// --- Load run inputs ---
	wageStats, err := userCatalog.AreaWageStats(ctx)
	if err != nil {
		zapLog.Fatal("wage statistics load failed", zap.Error(err))
	}

	jobs, err := jobCatalog.ActiveJobs(ctx)
	if err != nil {
		zapLog.Fatal("job pool load failed", zap.Error(err))
	}

	userIDs, err := userCatalog.ActiveUserIDs(ctx)
	if err != nil {
		zapLog.Fatal("user list load failed", zap.Error(err))
	}
	zapLog.Info("Run inputs loaded",
		zap.Int("jobs", len(jobs)),
		zap.Int("users", len(userIDs)),
	)

	// --- Build the engine ---
	scorers := []scoring.ComponentScorer{
		scoring.NewBasicScorer(cfg.Scoring, wageStats),
		scoring.LocationScorer{},
		scoring.CategoryScorer{},
		scoring.SalaryScorer{},
		scoring.FeatureScorer{},
		scoring.NewKeywordScorer(cfg.Scoring),
		scoring.NewPersonalizedScorer(cfg.Scoring, nil),
		scoring.NewAIScorer(cfg.AI, cfg.Batch.RetryAttempts, log),
	}
	engine, err := scoring.NewEngine(cfg.Scoring, scorers, log)
	if err != nil {
		zapLog.Fatal("scoring engine construction failed", zap.Error(err))
	}

	pipe := pipeline.New(
		engine,
		dedup.NewFilter(cfg.DuplicateControl, log),
		selection.NewSelector(cfg.Sections),
		supplement.NewEngine(cfg.Sections),
		cfg.Sections,
		log,
	)
	orchestrator := batch.NewOrchestrator(pipe, cfg.Batch, obs, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Assemble per-user inputs ---
	now := time.Now().UTC()
	lookback := now.AddDate(0, 0, -config.MaxDuplicateWindowDays)
	inputs := make([]pipeline.Input, 0, len(userIDs))
	for _, userID := range userIDs {
		profile, err := userCatalog.Profile(ctx, userID)
		if err != nil {
			zapLog.Warn("skipping user, profile load failed",
				zap.String("userId", userID), zap.Error(err))
			continue
		}
		applications, err := userCatalog.Applications(ctx, userID, lookback)
		if err != nil {
			zapLog.Warn("skipping user, application history load failed",
				zap.String("userId", userID), zap.Error(err))
			continue
		}
		inputs = append(inputs, pipeline.Input{
			User:         profile,
			Candidates:   jobs,
			Applications: applications,
			Now:          now,
		})
	}

	// --- Run the batch ---
	report := orchestrator.Run(ctx, inputs)

	if err := resultStore.SaveReport(ctx, report); err != nil {
		zapLog.Error("batch report persistence failed", zap.Error(err))
	}

	// --- Persist and dispatch per-user results ---
	var dispatcher *delivery.Dispatcher
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Error("ses client init failed, digests will not be sent", zap.Error(err))
		} else {
			dispatcher = delivery.NewDispatcher(sesClient, delivery.TextRenderer{}, cfg.Integrations.AWS.SES.FromEmail, log)
		}
	}

	emailByUser := make(map[string]string, len(inputs))
	for _, in := range inputs {
		emailByUser[in.User.UserID] = in.User.Email
	}

	for _, ur := range report.UserResults {
		if ur.State != models.StateSucceeded || ur.Result == nil {
			continue
		}
		if err := resultStore.SaveResult(ctx, ur.Result); err != nil {
			zapLog.Error("result persistence failed",
				zap.String("userId", ur.UserID), zap.Error(err))
			continue
		}
		if dispatcher != nil {
			if email := emailByUser[ur.UserID]; email != "" {
				if err := dispatcher.Dispatch(ctx, ur.Result, email); err != nil {
					zapLog.Error("digest dispatch failed",
						zap.String("userId", ur.UserID), zap.Error(err))
				}
			}
		}
	}

	// --- Alert on a bad run ---
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Error("sns client init failed, alerts disabled", zap.Error(err))
		} else {
			alerter := delivery.NewAlerter(
				snsClient,
				cfg.Integrations.AWS.SNS.AlertTopicARN,
				cfg.Integrations.AWS.SNS.ErrorRateThreshold,
				log,
			)
			if _, err := alerter.CheckReport(ctx, report); err != nil {
				zapLog.Error("alert publish failed", zap.Error(err))
			}
		}
	}

	zapLog.Info("Batch runner finished",
		zap.String("runId", report.RunID),
		zap.Int("succeeded", report.Metrics.SuccessfulUsers),
		zap.Int("failed", report.Metrics.FailedUsers),
		zap.Float64("errorRate", report.Metrics.ErrorRate),
	)

	if report.Metrics.FailedUsers > 0 {
		os.Exit(1)
	}
}
