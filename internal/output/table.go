package output

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TableFormatter struct{}

func (t *TableFormatter) Format(w io.Writer, data Data) error {
	fmt.Fprintln(w, "\nRSA Benchmark Results")
	fmt.Fprintln(w, "=====================")
	if data.SystemInfo != nil {
		fmt.Fprintln(w, data.SystemInfo.Summary())
	}
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Operation",
		"Prime Bits",
		"Done",
		"Parallel",
		"Total Time",
		"Avg Time",
		"Min Time",
		"Max Time",
		"Std Dev",
		"Ops/Sec",
		"Candidates",
		"CPU %",
		"Errors",
	})

	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, result := range data.Results {
		candidates := "-"
		if result.AvgCandidates > 0 {
			candidates = fmt.Sprintf("%.1f", result.AvgCandidates)
		}
		done := fmt.Sprintf("%d/%d", result.Completed, result.Iterations*result.Parallel)
		if result.TimedOut {
			done += " (timeout)"
		}

		table.Append([]string{
			result.Operation,
			fmt.Sprintf("%d", result.BitLength),
			done,
			fmt.Sprintf("%d", result.Parallel),
			formatDuration(result.TotalTime),
			formatDuration(result.AverageTime),
			formatDuration(result.MinTime),
			formatDuration(result.MaxTime),
			formatDuration(result.StdDev),
			fmt.Sprintf("%.2f", result.OpsPerSecond),
			candidates,
			fmt.Sprintf("%.1f", result.CPUUsage),
			fmt.Sprintf("%d", result.Errors),
		})
	}

	table.Render()

	s := summarize(data.Results)
	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Operations completed: %d\n", s.Operations)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	fmt.Fprintf(w, "Total time: %s\n", formatDuration(s.TotalTime))
	if s.TotalTime > 0 {
		fmt.Fprintf(w, "Overall throughput: %.2f ops/sec\n", s.throughput())
	}

	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.2fm", d.Minutes())
}
