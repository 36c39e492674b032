package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/spinlab/internal/experiment"
	"github.com/san-kum/spinlab/internal/logger"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	tableStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func printSummary(runID string, res *experiment.Result) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s L=%d", res.Model, res.Size)))
	field := func(label, value string) {
		fmt.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label)), valueStyle.Render(value))
	}
	field("run id", runID)
	field("coupling", fmt.Sprintf("%g", res.Coupling))
	field("tc", fmt.Sprintf("%.6f", res.CriticalTemperature))
	field("elapsed", res.Elapsed.String())
	if res.TrainSamples+res.TestSamples > 0 {
		field("dataset", fmt.Sprintf("%d train / %d test", res.TrainSamples, res.TestSamples))
	}
	if path := logger.Path(); path != "" {
		field("log", path)
	}

	fmt.Println(tableStyle.Render(pointsTable(res.Points)))
}

func pointsTable(points []experiment.Point) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tPHASE\tE/N\t|M|/N\tC\tCHI\tACCEPT")
	for _, p := range points {
		fmt.Fprintf(w, "%.4f\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.3f\n",
			p.Temperature, p.Phase, p.Energy, p.Magnetization, p.SpecificHeat, p.Susceptibility, p.Acceptance)
	}
	_ = w.Flush()
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
