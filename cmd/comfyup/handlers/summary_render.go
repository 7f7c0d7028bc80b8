package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/report"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorRed    = lipgloss.Color("#ef4444")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	yellowStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// outcomeOrder is the order outcomes are listed in the totals line.
var outcomeOrder = []provisioning.Outcome{
	provisioning.OutcomeInstalled,
	provisioning.OutcomeTimeout,
	provisioning.OutcomeSkipped,
	provisioning.OutcomeFailed,
}

// renderSummary produces a lipgloss-styled run summary string.
func renderSummary(rep *report.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  comfyup run %s", rep.RunID)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n")

	if w := rep.Workload; w != nil {
		fmt.Fprintf(&b, "    Workload:  %s on %s\n", w.ID, w.Node)
		fmt.Fprintf(&b, "    URL:       %s\n", w.RootBase)
	}
	fmt.Fprintf(&b, "    Ready:     %s\n", yesNo(rep.Ready))
	fmt.Fprintf(&b, "    Rebooted:  %s\n", yesNo(rep.Rebooted))
	fmt.Fprintf(&b, "    Duration:  %v\n", rep.Duration().Round(time.Second))

	if len(rep.Items) > 0 {
		b.WriteString("\n")
		renderItems(&b, rep.Items)
	}

	b.WriteString("\n")
	b.WriteString("    Totals:    ")
	b.WriteString(renderCounts(rep.Counts))
	b.WriteString("\n")

	if rep.Error != "" {
		b.WriteString("\n")
		b.WriteString(redStyle.Render("  Run failed: " + rep.Error))
		b.WriteString("\n")
	}

	return b.String()
}

// renderItems renders the item table.
func renderItems(b *strings.Builder, items []provisioning.ItemResult) {
	b.WriteString(sectionStyle.Render("  Items"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 70)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-10s %-32s %-10s %s", "Kind", "Name", "Outcome", "Detail")))
	b.WriteString("\n")

	for _, item := range items {
		detail := item.Detail
		if detail == "" && item.Match != "" {
			detail = "-> " + item.Match
		}
		fmt.Fprintf(b, "  %-10s %-32s %s %s\n",
			item.Kind,
			shorten(item.Name, 32),
			outcomeStyle(item.Outcome).Render(fmt.Sprintf("%-10s", item.Outcome)),
			dimStyle.Render(detail),
		)
	}

	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 70)))
	b.WriteString("\n")
}

func renderCounts(counts map[provisioning.Outcome]int) string {
	parts := make([]string, 0, len(outcomeOrder))
	for _, o := range outcomeOrder {
		parts = append(parts, outcomeStyle(o).Render(fmt.Sprintf("%d %s", counts[o], o)))
	}
	return strings.Join(parts, dimStyle.Render(", "))
}

func outcomeStyle(o provisioning.Outcome) lipgloss.Style {
	switch o {
	case provisioning.OutcomeInstalled:
		return greenStyle
	case provisioning.OutcomeTimeout:
		return yellowStyle
	case provisioning.OutcomeFailed:
		return redStyle
	default:
		return dimStyle
	}
}

// renderResolutions renders the catalog matches printed by resolve.
func renderResolutions(node string, resolutions []resolution) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  comfyup resolve: %s", node)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n")

	if len(resolutions) == 0 {
		b.WriteString(dimStyle.Render("  No node or model queries in the run file."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-6s %-28s %-32s %5s", "Kind", "Query", "Match", "Score")))
	b.WriteString("\n")
	for _, r := range resolutions {
		name := r.Name()
		style := greenStyle
		if name == "" {
			name = "(no match)"
			style = yellowStyle
		}
		fmt.Fprintf(&b, "  %-6s %-28s %s %5d\n",
			r.Kind,
			shorten(r.Query, 28),
			style.Render(fmt.Sprintf("%-32s", shorten(name, 32))),
			r.Match.Score,
		)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return greenStyle.Render("yes")
	}
	return yellowStyle.Render("no")
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
