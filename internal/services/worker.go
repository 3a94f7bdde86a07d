package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

// Worker consumes queued optimization records. Jobs arrive through the
// in-memory queue when a request enqueues them, and through the poller
// for records that were queued before a restart.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(optimizationID uuid.UUID)
}

type worker struct {
	repo         repositories.OptimizationRepository
	optimization OptimizationService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	logger       *logging.Logger
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

func NewWorker(
	repo repositories.OptimizationRepository,
	optimization OptimizationService,
	concurrency int,
	pollInterval time.Duration,
	logger *logging.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &worker{
		repo:         repo,
		optimization: optimization,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting optimization worker", "concurrency", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.logger.Info("stopping optimization worker")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("optimization worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(optimizationID uuid.UUID) {
	select {
	case w.jobQueue <- optimizationID:
		w.logger.Debug("optimization job enqueued", "id", optimizationID)
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue job", "id", optimizationID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("worker goroutine stopped", "worker", workerID)
			return
		case id := <-w.jobQueue:
			w.logger.Info("processing optimization job", "worker", workerID, "id", id)
			if err := w.optimization.RunOptimization(ctx, id); err != nil {
				w.logger.Error("optimization job failed", "worker", workerID, "id", id, "error", err)
			}
		}
	}
}

// pollPendingJobs re-enqueues records stuck in the queued state, which
// happens when the process restarts with work still pending.
func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.repo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending optimizations", "error", err)
				continue
			}
			if len(pending) > 0 {
				w.logger.Info("found pending optimizations", "count", len(pending))
			}
			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
