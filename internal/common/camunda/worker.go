// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"foodexpress-workers/internal/common/metrics"
	"foodexpress-workers/internal/common/observability"
)

// Worker wraps a registered Zeebe job worker so the manager can close
// workers ahead of the client during shutdown.
type Worker struct {
	jobWorker worker.JobWorker
	logger    *zap.Logger
	taskType  string
}

// StartWorker registers a job worker for taskType with metrics
// instrumentation around the handler.
func StartWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler func(worker.JobClient, entities.Job),
	obs *observability.Observability,
	logger *zap.Logger,
) *Worker {
	instrumented := func(jobClient worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		timer := prometheus.NewTimer(metrics.WorkerJobDuration.WithLabelValues(taskType))
		defer func() {
			timer.ObserveDuration()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			if obs != nil {
				obs.RecordJob(context.Background(), taskType, time.Since(start))
			}
		}()
		handler(jobClient, job)
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", maxJobsActive),
		zap.Duration("timeout", timeout),
	)

	return &Worker{
		jobWorker: jobWorker,
		logger:    logger,
		taskType:  taskType,
	}
}

func (w *Worker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.jobWorker.Close()
}
