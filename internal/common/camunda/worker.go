package camunda

import (
	"context"
	"time"

	"solar-loan-workers/internal/common/config"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerGroup opens job workers and closes them together on shutdown.
type WorkerGroup struct {
	client  zbc.Client
	obs     *observability.Observability
	log     logger.Logger
	workers map[string]worker.JobWorker
}

// NewWorkerGroup creates an empty group. obs may be nil.
func NewWorkerGroup(client zbc.Client, obs *observability.Observability, log logger.Logger) *WorkerGroup {
	return &WorkerGroup{
		client:  client,
		obs:     obs,
		log:     log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless it is disabled in config.
func (g *WorkerGroup) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
	if !wcfg.Enabled {
		g.log.Info("worker disabled", map[string]interface{}{logger.FieldTaskType: taskType})
		return
	}

	g.workers[taskType] = g.client.NewJobWorker().
		JobType(taskType).
		Handler(g.instrument(taskType, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType + "-worker").
		Open()

	g.log.Info("worker started", map[string]interface{}{
		logger.FieldTaskType: taskType,
		"maxJobsActive":      wcfg.MaxJobsActive,
		"timeoutMs":          wcfg.Timeout,
	})
}

// instrument records otel job metrics around handler.
func (g *WorkerGroup) instrument(taskType string, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handler(client, job)
		ctx := context.Background()
		g.obs.RecordJobProcessed(ctx, taskType, "handled")
		g.obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}

// Running lists the task types with an open worker.
func (g *WorkerGroup) Running() []string {
	out := make([]string, 0, len(g.workers))
	for taskType := range g.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (g *WorkerGroup) Close() {
	for taskType, w := range g.workers {
		w.Close()
		w.AwaitClose()
		g.log.Info("worker stopped", map[string]interface{}{logger.FieldTaskType: taskType})
	}
}
