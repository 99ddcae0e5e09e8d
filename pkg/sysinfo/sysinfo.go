// Package sysinfo describes the machine a benchmark ran on.
package sysinfo

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	// WordSize is the native machine word in bits. math/big operates on words
	// of this size, so it bounds modular arithmetic throughput.
	WordSize      int     `json:"word_size"`
	CPUModel      string  `json:"cpu_model"`
	CPUCores      int     `json:"cpu_cores"`
	CPUThreads    int     `json:"cpu_threads"`
	GOMAXPROCS    int     `json:"gomaxprocs"`
	TotalMemory   uint64  `json:"total_memory"`
	GoVersion     string  `json:"go_version"`
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	KernelVersion string  `json:"kernel_version"`
	LoadAverage   float64 `json:"load_average"`
}

func Collect() (*SystemInfo, error) {
	return CollectContext(context.Background())
}

// CollectContext gathers what the host exposes. Fields a platform does not
// report are left zero rather than failing the whole collection.
func CollectContext(ctx context.Context) (*SystemInfo, error) {
	info := &SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		WordSize:     bits.UintSize,
		GoVersion:    runtime.Version(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		CPUThreads:   runtime.NumCPU(),
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = strings.TrimSpace(cpus[0].ModelName)
	}

	// Physical cores; fall back to logical CPUs where the platform hides them.
	if cores, err := cpu.CountsWithContext(ctx, false); err == nil && cores > 0 {
		info.CPUCores = cores
	} else {
		info.CPUCores = info.CPUThreads
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.TotalMemory = vm.Total
	}

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.KernelVersion = h.KernelVersion
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.LoadAverage = avg.Load1
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return info, nil
}

// Summary is a one-line description for console headers.
func (s *SystemInfo) Summary() string {
	model := s.CPUModel
	if model == "" {
		model = "unknown CPU"
	}
	return fmt.Sprintf("%s/%s %d-bit, %s (%d cores, %d threads), %.1f GiB, %s",
		s.OS, s.Architecture, s.WordSize, model, s.CPUCores, s.CPUThreads,
		float64(s.TotalMemory)/(1<<30), s.GoVersion)
}
