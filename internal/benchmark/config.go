package benchmark

import (
	"fmt"
	"time"

	"github.com/user/rsabench/pkg/rawrsa"
)

type Config struct {
	Operations   []string `json:"operations" mapstructure:"operations"`
	BitLengths   []int    `json:"bit_lengths" mapstructure:"bit_lengths"`
	Iterations   int      `json:"iterations" mapstructure:"iterations"`
	Parallel     int      `json:"parallel" mapstructure:"parallel"`
	Rounds       int      `json:"rounds" mapstructure:"rounds"`
	// Seed selects a reproducible math/rand source per worker (Seed+worker).
	// Zero uses crypto/rand.
	Seed         int64 `json:"seed" mapstructure:"seed"`
	ShowProgress bool  `json:"show_progress" mapstructure:"show_progress"`
	// Timeout bounds each operation/bit length pair, in seconds. Zero disables it.
	Timeout int  `json:"timeout" mapstructure:"timeout"`
	Verbose bool `json:"verbose" mapstructure:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Operations:   []string{OpKeygen},
		BitLengths:   []int{256, 512},
		Iterations:   10,
		Parallel:     1,
		Rounds:       rawrsa.DefaultRounds,
		ShowProgress: true,
		Timeout:      300,
	}
}

func (c Config) Validate() error {
	if len(c.Operations) == 0 {
		return fmt.Errorf("no operations selected")
	}
	for _, name := range c.Operations {
		if _, err := LookupOperation(name); err != nil {
			return err
		}
	}
	if len(c.BitLengths) == 0 {
		return fmt.Errorf("no bit lengths selected")
	}
	for _, bits := range c.BitLengths {
		if bits < rawrsa.MinBitLength {
			return fmt.Errorf("bit length %d is below the minimum of %d", bits, rawrsa.MinBitLength)
		}
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", c.Rounds)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

type Result struct {
	Operation    string        `json:"operation"`
	BitLength    int           `json:"bit_length"`
	Iterations   int           `json:"iterations"`
	Parallel     int           `json:"parallel"`
	Completed    int           `json:"completed"`
	TotalTime    time.Duration `json:"total_time"`
	AverageTime  time.Duration `json:"average_time"`
	MinTime      time.Duration `json:"min_time"`
	MaxTime      time.Duration `json:"max_time"`
	StdDev       time.Duration `json:"std_dev"`
	OpsPerSecond float64       `json:"ops_per_second"`
	// AvgCandidates is the mean number of primality tests per generated key.
	AvgCandidates float64   `json:"avg_candidates,omitempty"`
	CPUUsage      float64   `json:"cpu_usage"`
	MemoryUsed    uint64    `json:"memory_used"`
	Errors        int       `json:"errors"`
	TimedOut      bool      `json:"timed_out,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

type ProgressUpdate struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Rate       float64 `json:"rate"`
	Operation  string  `json:"operation"`
	BitLength  int     `json:"bit_length"`
}
