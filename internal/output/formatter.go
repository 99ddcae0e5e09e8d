package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/user/rsabench/internal/benchmark"
	"github.com/user/rsabench/pkg/sysinfo"
)

type Data struct {
	SystemInfo *sysinfo.SystemInfo
	Results    []benchmark.Result
	Config     benchmark.Config
}

type Formatter interface {
	Format(w io.Writer, data Data) error
}

func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "csv":
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

type summary struct {
	Operations int
	Errors     int
	TotalTime  time.Duration
}

func summarize(results []benchmark.Result) summary {
	var s summary
	for _, r := range results {
		s.Operations += r.Completed
		s.Errors += r.Errors
		s.TotalTime += r.TotalTime
	}
	return s
}

func (s summary) throughput() float64 {
	if s.TotalTime <= 0 {
		return 0
	}
	return float64(s.Operations) / s.TotalTime.Seconds()
}
