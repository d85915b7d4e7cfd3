// Package observability renders coaching insights and analytics snapshots for the CLI.
package observability

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/jonathan/atlas-maximus/internal/types"
)

const (
	boxWidth       = 64
	maxItemsToShow = 5
)

// Printer writes boxed, human-readable summaries.
type Printer struct {
	out io.Writer
	now func() time.Time
}

// NewPrinter creates a Printer that writes to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, now: time.Now}
}

//nolint:errcheck // terminal output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to the box's inner width, counting runes.
func pad(s string) string {
	width := boxWidth - 4
	if utf8.RuneCountInString(s) > width {
		return string([]rune(s)[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
}

// PrintInsight outputs the overall maturity, scores, observations and interventions.
func (p *Printer) PrintInsight(insight *types.CoachingInsight) {
	if insight == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall maturity: %s\n", strings.ToUpper(string(insight.OverallMaturity)))
	if len(insight.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "Focus areas:      %s\n", strings.Join(insight.FocusAreas, ", "))
	}

	if len(insight.Assessments) > 0 {
		sb.WriteString("\nAssessments:\n")
		for _, a := range insight.Assessments {
			fmt.Fprintf(&sb, "  %-28s %5.1f  %s\n", a.Category, a.CurrentScore, a.MaturityLevel)
		}
	}

	if len(insight.Observations) > 0 {
		fmt.Fprintf(&sb, "\nObservations (%d):\n", len(insight.Observations))
		writeList(&sb, insight.Observations, func(o types.Observation) string {
			return fmt.Sprintf("[%s] %s", strings.ToUpper(string(o.Severity)), o.Title)
		})
	}

	if len(insight.Interventions) > 0 {
		fmt.Fprintf(&sb, "\nInterventions (%d):\n", len(insight.Interventions))
		writeList(&sb, insight.Interventions, func(i types.Intervention) string {
			return fmt.Sprintf("%s (%s priority, %s effort)", i.Title, i.Priority, i.EstimatedEffort)
		})
	}

	p.printBox("COACHING INSIGHT", strings.TrimSuffix(sb.String(), "\n"))

	if insight.Narrative != "" {
		p.printBox("COACH SUMMARY", wrap(insight.Narrative, boxWidth-4))
	}
}

// PrintSnapshot outputs a snapshot's metrics, trend series and predictions.
func (p *Printer) PrintSnapshot(s *types.Snapshot) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Period:  %s to %s\n", s.PeriodStart.Format(time.DateOnly), s.PeriodEnd.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Created: %s\n", humanize.RelTime(s.CreatedAt, p.now(), "ago", "from now"))

	if len(s.Metrics) > 0 {
		sb.WriteString("\nMetrics:\n")
		for _, key := range slices.Sorted(maps.Keys(s.Metrics)) {
			fmt.Fprintf(&sb, "  %-26s %s\n", key, FormatMetric(s.Metrics[key]))
		}
	}

	if len(s.Trends) > 0 {
		fmt.Fprintf(&sb, "\nTrend (%d points):\n", len(s.Trends))
		start := max(0, len(s.Trends)-maxItemsToShow)
		for _, tp := range s.Trends[start:] {
			fmt.Fprintf(&sb, "  %-26s %s\n", tp.Period, FormatMetric(tp.Value))
		}
	}

	if len(s.Predictions) > 0 {
		sb.WriteString("\nPredictions:\n")
		for _, pr := range s.Predictions {
			fmt.Fprintf(&sb, "  %s: %s (%s, %.0f%% confidence)\n",
				pr.Metric, FormatMetric(pr.Prediction), pr.Trend, pr.Confidence*100)
		}
	}

	p.printBox(strings.ToUpper(strings.ReplaceAll(string(s.Type), "_", " ")), strings.TrimSuffix(sb.String(), "\n"))
}

// FormatMetric renders a metric value: integers with thousands separators,
// floats with two decimals, maps as comma-separated key=value pairs.
func FormatMetric(v any) string {
	switch val := v.(type) {
	case int:
		return humanize.Comma(int64(val))
	case int64:
		return humanize.Comma(val)
	case float64:
		if val == float64(int64(val)) {
			return humanize.Comma(int64(val))
		}
		return humanize.FormatFloat("#,###.##", val)
	case map[string]int:
		parts := make([]string, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			parts = append(parts, fmt.Sprintf("%s=%s", k, humanize.Comma(int64(val[k]))))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		parts := make([]string, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			parts = append(parts, fmt.Sprintf("%s=%s", k, FormatMetric(val[k])))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func writeList[T any](sb *strings.Builder, items []T, line func(T) string) {
	for _, item := range items[:min(len(items), maxItemsToShow)] {
		fmt.Fprintf(sb, "  • %s\n", line(item))
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// wrap breaks text into lines of at most width runes at word boundaries.
func wrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width:
				lines = append(lines, line)
				line = word
			default:
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
