package sysinfo

import (
	"context"
	"math/bits"
	"runtime"
	"strings"
	"testing"
)

func TestCollect(t *testing.T) {
	info, err := Collect()
	if err != nil {
		t.Fatalf("Failed to collect system info: %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS mismatch: expected %s, got %s", runtime.GOOS, info.OS)
	}

	if info.Architecture != runtime.GOARCH {
		t.Errorf("Architecture mismatch: expected %s, got %s", runtime.GOARCH, info.Architecture)
	}

	if info.WordSize != bits.UintSize {
		t.Errorf("Word size mismatch: expected %d, got %d", bits.UintSize, info.WordSize)
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("Go version mismatch: expected %s, got %s", runtime.Version(), info.GoVersion)
	}

	if info.CPUThreads != runtime.NumCPU() {
		t.Errorf("CPU threads mismatch: expected %d, got %d", runtime.NumCPU(), info.CPUThreads)
	}

	if info.CPUCores < 1 {
		t.Errorf("CPUCores should be positive, got %d", info.CPUCores)
	}

	if info.GOMAXPROCS < 1 {
		t.Errorf("GOMAXPROCS should be positive, got %d", info.GOMAXPROCS)
	}

	if info.LoadAverage < 0 {
		t.Error("LoadAverage should not be negative")
	}
}

func TestCollectContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CollectContext(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	info := &SystemInfo{
		OS:           "linux",
		Architecture: "amd64",
		WordSize:     64,
		CPUCores:     4,
		CPUThreads:   8,
		TotalMemory:  16 << 30,
		GoVersion:    "go1.21.5",
	}

	summary := info.Summary()
	for _, want := range []string{"linux/amd64 64-bit", "unknown CPU", "4 cores, 8 threads", "16.0 GiB", "go1.21.5"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary %q missing %q", summary, want)
		}
	}
}
