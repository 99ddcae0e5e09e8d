package server

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/user/rsabench/internal/benchmark"
)

// WorkerPool runs benchmark jobs on a fixed number of goroutines so that
// concurrent requests cannot oversubscribe the CPU being measured.
type WorkerPool struct {
	workers    int
	jobQueue   chan *BenchmarkJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	jobStore   *JobStore
	log        *zap.Logger
	activeJobs map[string]context.CancelFunc
	stopped    bool
	mu         sync.Mutex
}

func NewWorkerPool(numWorkers int, jobStore *JobStore, log *zap.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:    numWorkers,
		jobQueue:   make(chan *BenchmarkJob, numWorkers*4),
		ctx:        ctx,
		cancel:     cancel,
		jobStore:   jobStore,
		log:        log,
		activeJobs: make(map[string]context.CancelFunc),
	}
}

func (wp *WorkerPool) Start() {
	wp.log.Info("starting worker pool", zap.Int("workers", wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.cancel()
	wp.wg.Wait()
	wp.log.Info("worker pool stopped")
}

func (wp *WorkerPool) Submit(job *BenchmarkJob) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return fmt.Errorf("worker pool is shutting down")
	}
	select {
	case wp.jobQueue <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			wp.jobStore.CompleteJob(job.ID, nil, wp.ctx.Err())
			close(job.Progress)
			continue
		}
		wp.log.Debug("processing job", zap.Int("worker", id), zap.String("job", job.ID))
		wp.processJob(job)
	}
}

func (wp *WorkerPool) TerminateJob(jobID string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if cancel, exists := wp.activeJobs[jobID]; exists {
		cancel()
		delete(wp.activeJobs, jobID)
	}
}

func (wp *WorkerPool) processJob(job *BenchmarkJob) {
	defer close(job.Progress)

	jobCtx, jobCancel := context.WithCancel(wp.ctx)

	// Register before checking the status so a concurrent terminate either
	// sees the cancel func or is seen by MarkRunning.
	wp.mu.Lock()
	wp.activeJobs[job.ID] = jobCancel
	wp.mu.Unlock()

	defer func() {
		wp.mu.Lock()
		delete(wp.activeJobs, job.ID)
		wp.mu.Unlock()
		jobCancel()
	}()

	if !wp.jobStore.MarkRunning(job.ID) {
		wp.jobStore.CompleteJob(job.ID, nil, fmt.Errorf("job terminated by user"))
		return
	}

	runner := benchmark.NewRunner(job.Config, wp.log.With(zap.String("job", job.ID)))
	runner.SetProgressChannel(job.Progress)

	results, err := runner.RunContext(jobCtx)
	wp.jobStore.CompleteJob(job.ID, results, err)

	if err != nil {
		wp.log.Warn("job stopped", zap.String("job", job.ID), zap.Int("results", len(results)), zap.Error(err))
	} else {
		wp.log.Info("job completed", zap.String("job", job.ID), zap.Int("results", len(results)))
	}
}
