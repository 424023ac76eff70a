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

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/aws"
	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/config"
	"solar-loan-workers/internal/common/database"
	httpclient "solar-loan-workers/internal/common/http"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/common/observability"
	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/services/calculation"
	"solar-loan-workers/internal/services/credit"
	"solar-loan-workers/internal/services/eligibility"
	"solar-loan-workers/internal/services/kyc"
	"solar-loan-workers/internal/store"
	"solar-loan-workers/internal/workflow"
	"solar-loan-workers/pkg/registry"

	// Calculation workers (3)
	cemi "solar-loan-workers/internal/workers/calculation/calculate-emi"
	croi "solar-loan-workers/internal/workers/calculation/calculate-roi"
	csub "solar-loan-workers/internal/workers/calculation/calculate-subsidy"

	// Loan workers (4)
	cla "solar-loan-workers/internal/workers/loan/create-loan-application"
	sln "solar-loan-workers/internal/workers/loan/send-loan-notification"
	sla "solar-loan-workers/internal/workers/loan/submit-loan-application"
	ula "solar-loan-workers/internal/workers/loan/update-loan-application"
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.Bool("mockCollaborators", cfg.Loan.UseMocks),
	)

	obs := observability.New(cfg.App.Name, cfg.App.Version)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintext,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

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

	if err := store.EnsureSchema(ctx, pg.DB); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Audit sinks ---
	recorder := audit.NewMulti(log)
	if cfg.Audit.Postgres {
		recorder.Add("postgres", audit.NewPostgresSink(pg.DB))
	}
	if cfg.Audit.Elasticsearch {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := esClient.Ping(ctx); err != nil {
				return err
			}
			return esClient.EnsureIndex(ctx, cfg.Audit.ElasticsearchIndex, audit.IndexMapping)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		recorder.Add("elasticsearch", audit.NewElasticsearchSink(esClient.Client, cfg.Audit.ElasticsearchIndex))
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Stores ---
	loans := store.NewLoanStore(pg.DB)
	creditStore := store.NewCreditStore(pg.DB)
	kycStore := store.NewKYCStore(pg.DB)
	contacts := store.NewContactStore(pg.DB)
	predictions := store.NewPredictionStore(pg.DB)
	creditLookup := store.NewCachedCreditChecks(creditStore, redis.Client, config.GetDuration(cfg.Loan.CreditCacheTTL), log)

	// --- Collaborators ---
	var (
		kycChecker workflow.KYCChecker
		bureau     credit.Bureau
		model      eligibility.Model
	)
	if cfg.Loan.UseMocks {
		kycChecker = kyc.NewService(kycStore, log)
		bureau = credit.MockBureau{}
		model = eligibility.MockModel{}
	} else {
		kycChecker = kyc.NewHTTPChecker(endpointClient(cfg.APIs.KYC))
		bureau = credit.NewHTTPBureau(endpointClient(cfg.APIs.CreditBureau))
		model = eligibility.NewRemoteModel(endpointClient(cfg.APIs.Scoring))
	}
	zapLog.Info("Collaborators initialized", zap.String("modelVersion", model.Version()))

	subsidyRegistry, err := registry.LoadSubsidyRegistry(cfg.Loan.SubsidyRegistryPath)
	if err != nil {
		zapLog.Fatal("subsidy registry load failed", zap.Error(err))
	}
	irradiationRegistry, err := registry.LoadIrradiationRegistry(cfg.Loan.IrradiationRegistryPath)
	if err != nil {
		zapLog.Fatal("irradiation registry load failed", zap.Error(err))
	}

	emiCalc := calculation.NewEMICalculator()
	subsidyCalc := calculation.NewSubsidyCalculator(subsidyRegistry)
	roiCalc := calculation.NewROICalculator(irradiationRegistry)

	driver := workflow.NewDriver(loans, workflow.Collaborators{
		KYC:          kycChecker,
		Credit:       credit.NewService(creditStore, bureau, cfg.Loan.CreditValidityDays, log),
		CreditLookup: creditLookup,
		Eligibility:  eligibility.NewService(model, predictions, log),
		Subsidy:      subsidyCalc,
		EMI:          emiCalc,
	}, workflow.Options{
		StepTimeout:         config.GetDuration(cfg.Loan.StepTimeout),
		DefaultInterestRate: cfg.Loan.DefaultInterestRate,
		DefaultTenureYears:  cfg.Loan.DefaultTenureYears,
	}, recorder, obs, log)
	submitter := workflow.NewService(loans, driver, recorder, log)

	notify := sln.Dependencies{Contacts: contacts, Audit: recorder}
	if cfg.AWS.SES.Enabled {
		mailer, err := aws.NewMailer(ctx, cfg.AWS.Region, cfg.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		notify.Email = mailer
	}
	if cfg.AWS.SNS.Enabled {
		sms, err := aws.NewSMSSender(ctx, cfg.AWS.Region, cfg.AWS.SNS.SenderID)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notify.SMS = sms
	}

	// --- Workers ---
	workers := camunda.NewWorkerGroup(zeebe.GetClient(), obs, log)

	workers.Start(cla.TaskType, config.GetWorkerConfig(cfg, cla.TaskType),
		cla.NewHandler(cla.LoadConfig(cfg), loans, recorder, log).Handle)
	workers.Start(ula.TaskType, config.GetWorkerConfig(cfg, ula.TaskType),
		ula.NewHandler(ula.LoadConfig(cfg), loans, recorder, log).Handle)
	workers.Start(sla.TaskType, config.GetWorkerConfig(cfg, sla.TaskType),
		sla.NewHandler(sla.LoadConfig(cfg), submitter, log).Handle)
	workers.Start(sln.TaskType, config.GetWorkerConfig(cfg, sln.TaskType),
		sln.NewHandler(sln.LoadConfig(cfg), notify, log).Handle)
	workers.Start(cemi.TaskType, config.GetWorkerConfig(cfg, cemi.TaskType),
		cemi.NewHandler(cemi.LoadConfig(cfg), emiCalc, log).Handle)
	workers.Start(csub.TaskType, config.GetWorkerConfig(cfg, csub.TaskType),
		csub.NewHandler(csub.LoadConfig(cfg), subsidyCalc, log).Handle)
	workers.Start(croi.TaskType, config.GetWorkerConfig(cfg, croi.TaskType),
		croi.NewHandler(croi.LoadConfig(cfg), roiCalc, log).Handle)

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))

	runCtx, stopReporter := context.WithCancel(ctx)
	go reportStuckLoans(runCtx, loans, config.GetDuration(cfg.Loan.StuckAfter), log)

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok", "zeebe": "ok"}
		code := http.StatusOK
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := redis.Ping(checkCtx); err != nil {
			checks["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		status := "ready"
		if code != http.StatusOK {
			status = "not_ready"
		}
		writeStatus(w, code, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	stopReporter()
	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func endpointClient(ep config.ServiceEndpoint) *httpclient.Client {
	return httpclient.NewClient(ep.BaseURL, ep.APIKey, config.GetDuration(ep.Timeout))
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// stuckLister is satisfied by store.LoanStore.
type stuckLister interface {
	ListStuck(ctx context.Context, before time.Time) ([]*models.LoanApplication, error)
}

// reportStuckLoans logs loans whose run stopped without reaching a terminal status.
// Runs are not resumed; operators decide what to do with them.
func reportStuckLoans(ctx context.Context, loans stuckLister, after time.Duration, log logger.Logger) {
	ticker := time.NewTicker(after / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stuck, err := loans.ListStuck(ctx, time.Now().UTC().Add(-after))
		if err != nil {
			log.WithError(err).Warn("stuck loan scan failed", nil)
			continue
		}
		metrics.LoansStuck.Set(float64(len(stuck)))
		for _, loan := range stuck {
			logger.ForLoan(log, loan.ID, "").Warn("loan stuck in progress", map[string]interface{}{
				logger.FieldStatus: string(loan.Status),
				"updatedAt":        loan.UpdatedAt,
			})
		}
	}
}
