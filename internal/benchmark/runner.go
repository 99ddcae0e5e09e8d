package benchmark

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/user/rsabench/pkg/entropy"
)

type Runner struct {
	config   Config
	log      *zap.Logger
	progress chan<- ProgressUpdate
}

func NewRunner(config Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{config: config, log: log}
}

// SetProgressChannel registers ch to receive non-blocking progress updates.
func (r *Runner) SetProgressChannel(ch chan<- ProgressUpdate) {
	r.progress = ch
}

func (r *Runner) Run() ([]Result, error) {
	return r.RunContext(context.Background())
}

// RunContext benchmarks every operation at every bit length. When ctx is
// cancelled the results gathered so far are returned with ctx's error.
func (r *Runner) RunContext(ctx context.Context) ([]Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	var results []Result
	seen := make(map[string]bool)

	for _, name := range r.config.Operations {
		op, err := LookupOperation(name)
		if err != nil {
			return nil, err
		}

		for _, bits := range r.config.BitLengths {
			combo := fmt.Sprintf("%s-%d", op.Name(), bits)
			if seen[combo] {
				r.log.Debug("skipping duplicate benchmark", zap.String("combo", combo))
				continue
			}
			seen[combo] = true

			if err := ctx.Err(); err != nil {
				return results, err
			}

			r.log.Debug("running benchmark",
				zap.String("operation", op.Name()),
				zap.Int("bit_length", bits),
				zap.Int("iterations", r.config.Iterations),
				zap.Int("parallel", r.config.Parallel))

			result := r.runSingleBenchmark(ctx, op, bits)
			if r.config.Verbose {
				r.log.Info("benchmark finished",
					zap.String("combo", combo),
					zap.Int("completed", result.Completed),
					zap.Int("errors", result.Errors),
					zap.Duration("average", result.AverageTime))
			}
			results = append(results, result)
		}
	}

	return results, ctx.Err()
}

func (r *Runner) runSingleBenchmark(parent context.Context, op Operation, bitLength int) Result {
	result := Result{
		Operation:  op.Name(),
		BitLength:  bitLength,
		Iterations: r.config.Iterations,
		Parallel:   r.config.Parallel,
	}

	total := r.config.Iterations * r.config.Parallel
	var bar *progressbar.ProgressBar

	if r.config.ShowProgress {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(fmt.Sprintf("[%s-%d]", op.Name(), bitLength)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	initialCPU, _ := cpu.Percent(100*time.Millisecond, false)
	initialMem, _ := mem.VirtualMemory()

	ctx := parent
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, time.Duration(r.config.Timeout)*time.Second)
		defer cancel()
	}

	var (
		timings    []time.Duration
		candidates int
		keys       int
		failures   int
		mu         sync.Mutex
		completed  int32
	)

	startTime := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < r.config.Parallel; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			iter, err := op.Prepare(r.workerSource(ctx, worker), r.config.Rounds, bitLength)
			if err != nil {
				if !isCancellation(err) {
					r.log.Warn("worker setup failed", zap.Int("worker", worker), zap.Error(err))
					mu.Lock()
					failures += r.config.Iterations
					mu.Unlock()
				}
				return
			}

			for j := 0; j < r.config.Iterations; j++ {
				if ctx.Err() != nil {
					return
				}

				iterStart := time.Now()
				tested, err := iter()
				elapsed := time.Since(iterStart)

				if err != nil && isCancellation(err) {
					return
				}

				mu.Lock()
				if err != nil {
					failures++
					r.log.Debug("iteration failed", zap.Int("worker", worker), zap.Error(err))
				} else {
					timings = append(timings, elapsed)
					if tested > 0 {
						candidates += tested
						keys++
					}
				}
				mu.Unlock()

				done := int(atomic.AddInt32(&completed, 1))
				if bar != nil {
					bar.Add(1)
				}
				r.sendProgress(op.Name(), bitLength, done, total, startTime)
			}
		}(i)
	}

	wg.Wait()

	result.TotalTime = time.Since(startTime)
	result.Completed = len(timings)
	result.Errors = failures
	result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	result.CompletedAt = time.Now()

	if len(timings) > 0 {
		result.AverageTime = calculateAverage(timings)
		result.MinTime = calculateMin(timings)
		result.MaxTime = calculateMax(timings)
		result.StdDev = calculateStdDev(timings, result.AverageTime)
		result.OpsPerSecond = float64(len(timings)) / result.TotalTime.Seconds()
	}
	if keys > 0 {
		result.AvgCandidates = float64(candidates) / float64(keys)
	}

	finalCPU, _ := cpu.Percent(100*time.Millisecond, false)
	finalMem, _ := mem.VirtualMemory()

	if len(initialCPU) > 0 && len(finalCPU) > 0 {
		result.CPUUsage = finalCPU[0] - initialCPU[0]
	}
	if initialMem != nil && finalMem != nil && finalMem.Used > initialMem.Used {
		result.MemoryUsed = finalMem.Used - initialMem.Used
	}

	runtime.GC()

	return result
}

// workerSource gives every worker its own source so no locking is needed on
// the hot path. Every draw observes ctx, so a cancelled run aborts
// mid-generation whether or not it is seeded.
func (r *Runner) workerSource(ctx context.Context, worker int) entropy.Source {
	if r.config.Seed != 0 {
		return entropy.WithContext(ctx, entropy.NewSeeded(r.config.Seed+int64(worker)))
	}
	return entropy.NewContextSource(ctx, rand.Reader)
}

func (r *Runner) sendProgress(op string, bitLength, done, total int, start time.Time) {
	if r.progress == nil {
		return
	}
	update := ProgressUpdate{
		Current:    done,
		Total:      total,
		Percentage: float64(done) / float64(total) * 100,
		Rate:       float64(done) / time.Since(start).Seconds(),
		Operation:  op,
		BitLength:  bitLength,
	}
	select {
	case r.progress <- update:
	default:
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func calculateAverage(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	var sum time.Duration
	for _, t := range timings {
		sum += t
	}
	return sum / time.Duration(len(timings))
}

func calculateMin(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	min := timings[0]
	for _, t := range timings[1:] {
		if t < min {
			min = t
		}
	}
	return min
}

func calculateMax(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	max := timings[0]
	for _, t := range timings[1:] {
		if t > max {
			max = t
		}
	}
	return max
}

// calculateStdDev returns the sample standard deviation.
func calculateStdDev(timings []time.Duration, avg time.Duration) time.Duration {
	if len(timings) <= 1 {
		return 0
	}

	var sum float64
	avgFloat := float64(avg)

	for _, t := range timings {
		diff := float64(t) - avgFloat
		sum += diff * diff
	}

	return time.Duration(math.Sqrt(sum / float64(len(timings)-1)))
}
