// Package workers runs periodic maintenance jobs until the app shuts down.
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
)

var errPanic = errors.New("worker panicked")

// Job is one periodic task. Run reports how many rows it changed.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) (int64, error)
}

// Runner starts every job on its own ticker.
type Runner struct {
	jobs []Job
	wg   sync.WaitGroup
}

func NewRunner(jobs ...Job) *Runner {
	return &Runner{jobs: jobs}
}

// Start launches the jobs and returns immediately. Jobs with a
// non-positive interval are skipped.
func (r *Runner) Start(ctx context.Context) {
	for _, job := range r.jobs {
		if job.Interval() <= 0 {
			logger.Warn("worker disabled", "worker", job.Name())
			continue
		}
		r.wg.Add(1)
		go func(job Job) {
			defer r.wg.Done()
			loop(ctx, job)
		}(job)
	}
}

// Wait blocks until every started job has stopped.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()
	logger.Info("worker started", "worker", job.Name(), "interval", job.Interval())

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped", "worker", job.Name())
			return
		case <-ticker.C:
			RunOnce(ctx, job)
		}
	}
}

// RunOnce executes one iteration and records its outcome. Panics are
// contained so a faulty run does not stop the ticker.
func RunOnce(ctx context.Context, job Job) (affected int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panicked", "worker", job.Name(), "panic", r)
			metrics.RecordWorkerRun(job.Name(), 0, errPanic)
			affected, err = 0, errPanic
		}
	}()

	affected, err = job.Run(ctx)
	metrics.RecordWorkerRun(job.Name(), affected, err)
	if err != nil || affected > 0 {
		logger.WorkerLog(job.Name(), "run", err, "affected", affected)
	}
	return affected, err
}
