package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

type CSVFormatter struct{}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Nanoseconds())/1e6)
}

func (c *CSVFormatter) Format(w io.Writer, data Data) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Timestamp",
		"Operation",
		"PrimeBits",
		"Iterations",
		"Parallel",
		"Completed",
		"TotalTime(ms)",
		"AverageTime(ms)",
		"MinTime(ms)",
		"MaxTime(ms)",
		"StdDev(ms)",
		"OpsPerSecond",
		"AvgCandidates",
		"CPUUsage(%)",
		"MemoryUsed(MB)",
		"Errors",
		"TimedOut",
		"OS",
		"Architecture",
		"WordSize",
		"CPUModel",
		"CPUCores",
	}

	if err := writer.Write(header); err != nil {
		return err
	}

	var host [5]string
	if si := data.SystemInfo; si != nil {
		host = [5]string{si.OS, si.Architecture, fmt.Sprintf("%d", si.WordSize), si.CPUModel, fmt.Sprintf("%d", si.CPUCores)}
	}

	for _, result := range data.Results {
		row := []string{
			result.CompletedAt.Format(time.RFC3339),
			result.Operation,
			fmt.Sprintf("%d", result.BitLength),
			fmt.Sprintf("%d", result.Iterations),
			fmt.Sprintf("%d", result.Parallel),
			fmt.Sprintf("%d", result.Completed),
			millis(result.TotalTime),
			millis(result.AverageTime),
			millis(result.MinTime),
			millis(result.MaxTime),
			millis(result.StdDev),
			fmt.Sprintf("%.2f", result.OpsPerSecond),
			fmt.Sprintf("%.2f", result.AvgCandidates),
			fmt.Sprintf("%.2f", result.CPUUsage),
			fmt.Sprintf("%.2f", float64(result.MemoryUsed)/(1024*1024)),
			fmt.Sprintf("%d", result.Errors),
			fmt.Sprintf("%t", result.TimedOut),
		}
		row = append(row, host[:]...)

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
