package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/observability"
)

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Concurrency   int
}

// Worker is one open job subscription.
type Worker struct {
	jobWorker worker.JobWorker
	taskType  string
	logger    *zap.Logger
}

// StartWorker opens a job worker for taskType. Every job passes through the
// active-jobs gauge and the duration histogram before reaching handler.
func StartWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler worker.JobHandler,
	obs *observability.Observability,
	log *zap.Logger,
) *Worker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout)
	if opts.Concurrency > 0 {
		step = step.Concurrency(opts.Concurrency)
	}

	w := &Worker{
		jobWorker: step.Open(),
		taskType:  taskType,
		logger:    log,
	}
	log.Info("Worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout),
	)
	return w
}

// Instrument wraps handler with job metrics.
func Instrument(taskType string, handler worker.JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				obs.RecordJobDuration(context.Background(), taskType, elapsed, "handled")
			}
		}()

		handler(client, job)
	}
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker", zap.String("taskType", w.taskType))
	w.jobWorker.Close()
	w.jobWorker.AwaitClose()
}
