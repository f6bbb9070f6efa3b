package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/rlloop/internal/orchestrator"
	"github.com/janpfeifer/rlloop/internal/registry"
	"github.com/janpfeifer/rlloop/internal/ui/spinning"
)

var (
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	summaryStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("13")).
			Padding(0, 1)
)

// render s with style, only if the output is a terminal.
func render(style lipgloss.Style, s string) string {
	if !spinning.IsTerminal() {
		return s
	}
	return style.Render(s)
}

func highlight(s string) string { return render(highlightStyle, s) }

func printFlags(flags [][2]string) {
	width := 0
	for _, kv := range flags {
		width = max(width, len(kv[0]))
	}
	for _, kv := range flags {
		fmt.Printf("%s = %s\n", render(keyStyle, fmt.Sprintf("%-*s", width, kv[0])), kv[1])
	}
}

func printGameCounts(counts []registry.GameCount) {
	if len(counts) == 0 {
		fmt.Println("No models found.")
		return
	}
	for _, c := range counts {
		fmt.Printf("%s: %d\n", render(keyStyle, c.Model.String()), c.Games)
	}
}

func printLoopSummary(summary orchestrator.LoopSummary) {
	text := fmt.Sprintf("Stopped: %s (exit status %d)\nDuration: %s\nIterations: %d\nModels trained: %d\n"+
		"Training failures: %d\nGather failures: %d",
		summary.StopReason, summary.StopReason.ExitCode(), summary.Duration.Round(time.Second),
		summary.Iterations, summary.Trained, summary.TrainFailures, summary.GatherFailures)
	if summary.Err != nil {
		text += "\n" + render(errorStyle, "Error: "+summary.Err.Error())
	}
	fmt.Println(render(summaryStyle, text))
}
