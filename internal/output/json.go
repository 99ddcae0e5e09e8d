package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/user/rsabench/internal/benchmark"
	"github.com/user/rsabench/pkg/sysinfo"
)

type JSONFormatter struct{}

type JSONOutput struct {
	Timestamp  time.Time           `json:"timestamp"`
	SystemInfo *sysinfo.SystemInfo `json:"system_info"`
	Config     benchmark.Config    `json:"config"`
	Results    []benchmark.Result  `json:"results"`
	Summary    struct {
		Operations      int           `json:"operations"`
		Errors          int           `json:"errors"`
		TotalTime       time.Duration `json:"total_time"`
		TotalTimeString string        `json:"total_time_string"`
		Throughput      float64       `json:"throughput_ops_per_sec"`
	} `json:"summary"`
}

func (j *JSONFormatter) Format(w io.Writer, data Data) error {
	output := JSONOutput{
		Timestamp:  time.Now(),
		SystemInfo: data.SystemInfo,
		Config:     data.Config,
		Results:    data.Results,
	}
	if output.Results == nil {
		output.Results = []benchmark.Result{}
	}

	s := summarize(data.Results)
	output.Summary.Operations = s.Operations
	output.Summary.Errors = s.Errors
	output.Summary.TotalTime = s.TotalTime
	output.Summary.TotalTimeString = s.TotalTime.String()
	output.Summary.Throughput = s.throughput()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
