package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/user/rsabench/internal/benchmark"
	"github.com/user/rsabench/pkg/sysinfo"
)

func sampleData() Data {
	return Data{
		SystemInfo: &sysinfo.SystemInfo{
			OS:           "linux",
			Architecture: "amd64",
			WordSize:     64,
			CPUModel:     "Test CPU",
			CPUCores:     8,
			CPUThreads:   16,
			TotalMemory:  16000000000,
		},
		Results: []benchmark.Result{
			{
				Operation:     benchmark.OpKeygen,
				BitLength:     512,
				Iterations:    10,
				Parallel:      1,
				Completed:     10,
				TotalTime:     5 * time.Second,
				AverageTime:   500 * time.Millisecond,
				MinTime:       400 * time.Millisecond,
				MaxTime:       600 * time.Millisecond,
				OpsPerSecond:  2.0,
				AvgCandidates: 187.5,
				CPUUsage:      50.5,
				MemoryUsed:    1048576,
				CompletedAt:   time.Now(),
			},
			{
				Operation:    benchmark.OpDecrypt,
				BitLength:    512,
				Iterations:   10,
				Parallel:     1,
				Completed:    8,
				TotalTime:    1 * time.Second,
				OpsPerSecond: 8.0,
				Errors:       2,
				TimedOut:     true,
				CompletedAt:  time.Now(),
			},
		},
		Config: benchmark.Config{
			Operations: []string{benchmark.OpKeygen, benchmark.OpDecrypt},
			BitLengths: []int{512},
			Iterations: 10,
			Parallel:   1,
			Rounds:     20,
		},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"table", false},
		{"json", false},
		{"csv", false},
		{"JSON", false},
		{"xml", true},
		{"invalid", true},
	}

	for _, test := range tests {
		_, err := NewFormatter(test.format)
		if test.expectErr && err == nil {
			t.Errorf("Expected error for format %s", test.format)
		}
		if !test.expectErr && err != nil {
			t.Errorf("Unexpected error for format %s: %v", test.format, err)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&JSONFormatter{}).Format(buf, sampleData()); err != nil {
		t.Fatalf("JSON formatting failed: %v", err)
	}

	var out JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}

	if out.SystemInfo == nil || out.SystemInfo.WordSize != 64 {
		t.Errorf("Unexpected system info %+v", out.SystemInfo)
	}
	if len(out.Results) != 2 || out.Results[0].AvgCandidates != 187.5 {
		t.Errorf("Unexpected results %+v", out.Results)
	}
	if out.Config.Rounds != 20 {
		t.Errorf("Expected rounds 20 in config, got %d", out.Config.Rounds)
	}
	if out.Summary.Operations != 18 || out.Summary.Errors != 2 {
		t.Errorf("Unexpected summary %+v", out.Summary)
	}
	if out.Summary.Throughput != 3.0 {
		t.Errorf("Expected throughput 3.0, got %v", out.Summary.Throughput)
	}
}

func TestJSONFormatterEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&JSONFormatter{}).Format(buf, Data{}); err != nil {
		t.Fatalf("JSON formatting failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("Expected an empty results array, got %s", buf.String())
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).Format(buf, sampleData()); err != nil {
		t.Fatalf("CSV formatting failed: %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header and two rows, got %d records", len(records))
	}

	header := records[0]
	for i, row := range records[1:] {
		if len(row) != len(header) {
			t.Errorf("Row %d has %d fields, header has %d", i, len(row), len(header))
		}
	}
	if header[1] != "Operation" || records[1][1] != "keygen" {
		t.Errorf("Unexpected operation column: %q / %q", header[1], records[1][1])
	}
	if records[2][16] != "true" {
		t.Errorf("Expected TimedOut true, got %q", records[2][16])
	}
	if records[1][19] != "64" {
		t.Errorf("Expected word size 64, got %q", records[1][19])
	}
}

func TestCSVFormatterWithoutSystemInfo(t *testing.T) {
	data := sampleData()
	data.SystemInfo = nil

	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).Format(buf, data); err != nil {
		t.Fatalf("CSV formatting failed: %v", err)
	}
}

func TestTableFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TableFormatter{}).Format(buf, sampleData()); err != nil {
		t.Fatalf("Table formatting failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"RSA Benchmark Results",
		"Test CPU",
		"keygen",
		"512",
		"187.5",
		"8/10 (timeout)",
		"Operations completed: 18",
		"Summary",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Table output missing %q", want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0.50µs"},
		{1500 * time.Microsecond, "1.50ms"},
		{2500 * time.Millisecond, "2.50s"},
		{150 * time.Second, "2.50m"},
	}

	for _, test := range tests {
		result := formatDuration(test.duration)
		if result != test.expected {
			t.Errorf("For duration %v, expected %s, got %s", test.duration, test.expected, result)
		}
	}
}
