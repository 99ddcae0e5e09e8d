package server

import (
	"sort"
	"sync"
	"time"

	"github.com/user/rsabench/internal/benchmark"
)

const (
	StatusQueued     = "queued"
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTerminated = "terminated"
)

type BenchmarkJob struct {
	ID          string                        `json:"id"`
	Config      benchmark.Config              `json:"config"`
	Status      string                        `json:"status"`
	StartedAt   time.Time                     `json:"started_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
	CompletedAt *time.Time                    `json:"completed_at,omitempty"`
	Results     []benchmark.Result            `json:"results,omitempty"`
	Error       string                        `json:"error,omitempty"`
	Progress    chan benchmark.ProgressUpdate `json:"-"`
}

func (j *BenchmarkJob) finished() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusTerminated:
		return j.CompletedAt != nil
	}
	return false
}

// JobStore owns every job. Readers get copies so handlers never race with
// the worker that is filling in results.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*BenchmarkJob
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*BenchmarkJob)}
}

func (js *JobStore) Add(job *BenchmarkJob) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[job.ID] = job
}

func (js *JobStore) Get(jobID string) (BenchmarkJob, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, exists := js.jobs[jobID]
	if !exists {
		return BenchmarkJob{}, false
	}
	return *job, true
}

func (js *JobStore) List() []BenchmarkJob {
	js.mu.RLock()
	jobs := make([]BenchmarkJob, 0, len(js.jobs))
	for _, job := range js.jobs {
		jobs = append(jobs, *job)
	}
	js.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
	return jobs
}

// MarkRunning moves a queued job to running. It reports false when the job
// was terminated before a worker picked it up.
func (js *JobStore) MarkRunning(jobID string) bool {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[jobID]
	if !exists || job.Status != StatusQueued {
		return false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	return true
}

// Terminate flags a job that has not finished. It reports whether the job exists.
func (js *JobStore) Terminate(jobID string) bool {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[jobID]
	if !exists {
		return false
	}
	if job.Status == StatusQueued || job.Status == StatusRunning {
		job.Status = StatusTerminated
		job.UpdatedAt = time.Now()
	}
	return true
}

// CompleteJob records the outcome. A terminated job keeps its status and
// whatever results were gathered before it stopped.
func (js *JobStore) CompleteJob(jobID string, results []benchmark.Result, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[jobID]
	if !exists {
		return
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.UpdatedAt = completedAt
	job.Results = results

	switch {
	case job.Status == StatusTerminated:
	case err != nil:
		job.Status = StatusFailed
		job.Error = err.Error()
	default:
		job.Status = StatusCompleted
	}
}
