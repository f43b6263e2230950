// Package report renders engine output as terminal or Markdown tables.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gyaneshwarpardhi/proofengine/internal/proof"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "table" / "markdown" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "table", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("unknown output mode %q", s)
}

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// Result renders one query result: a header line, the proof details and
// the gap list.
func Result(res *proof.ComplianceQueryResult, m Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) [%s %s]\n", res.QueryName, res.QueryID, res.Regulation, strings.Join(res.Articles, ", "))
	fmt.Fprintf(&b, "Verdict: %s  Confidence: %d%%  Score: %g/%g  Evidence: %d\n",
		res.Result, res.Confidence, res.TotalScore, res.MaxScore, res.TotalEvidence)
	fmt.Fprintf(&b, "Window: %s .. %s\n\n", res.TimeRange.From.Format("2006-01-02"), res.TimeRange.To.Format("2006-01-02"))

	w := newWriter(m)
	w.AppendHeader(table.Row{"#", "Criterion", "Type", "Weight", "Met", "Details"})
	for i, d := range res.ProofDetails {
		w.AppendRow(table.Row{i + 1, d.Criterion, d.Type, d.Weight, mark(d.Met), d.Details})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 48},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignCenter},
		{Number: 6, WidthMax: 48},
	})
	b.WriteString(render(w, m))
	b.WriteString("\n")

	if len(res.Gaps) > 0 {
		b.WriteString("\nGaps:\n")
		g := newWriter(m)
		g.AppendHeader(table.Row{"Gap", "Recommendation"})
		for _, gap := range res.Gaps {
			g.AppendRow(table.Row{gap.Description, gap.Recommendation})
		}
		g.SetColumnConfigs([]table.ColumnConfig{{Number: 1, WidthMax: 48}, {Number: 2, WidthMax: 60}})
		b.WriteString(render(g, m))
		b.WriteString("\n")
	}
	return b.String()
}

// Results renders a compact one-row-per-query table.
func Results(results []*proof.ComplianceQueryResult, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Query", "Regulation", "Severity", "Verdict", "Confidence", "Gaps"})
	for _, r := range results {
		w.AppendRow(table.Row{r.QueryID, r.Regulation, r.Severity, r.Result, fmt.Sprintf("%d%%", r.Confidence), len(r.Gaps)})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}, {Number: 6, Align: text.AlignRight}})
	return render(w, m) + "\n"
}

// Summary renders totals, the per-regulation breakdown and critical gaps.
func Summary(s *proof.ComplianceSummary, m Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compliance summary %s (%d queries, %d ms)\n\n", s.ID, s.TotalQueries, s.DurationMs)

	regs := make([]string, 0, len(s.ByRegulation))
	for name := range s.ByRegulation {
		regs = append(regs, name)
	}
	sort.Strings(regs)

	w := newWriter(m)
	w.AppendHeader(table.Row{"Regulation", "Total", "Proven", "Partial", "Not proven", "Avg confidence"})
	for _, name := range regs {
		r := s.ByRegulation[name]
		w.AppendRow(table.Row{name, r.Total, r.Proven, r.Partial, r.NotProven, fmt.Sprintf("%.1f%%", r.AverageConfidence)})
	}
	w.AppendFooter(table.Row{"All", s.TotalQueries, s.Proven, s.Partial, s.NotProven, ""})
	b.WriteString(render(w, m))
	b.WriteString("\n")

	if len(s.CriticalGaps) > 0 {
		b.WriteString("\nCritical gaps:\n")
		g := newWriter(m)
		g.AppendHeader(table.Row{"Query", "Verdict", "Confidence", "Gap", "Recommendation"})
		for _, cg := range s.CriticalGaps {
			for _, gap := range cg.Gaps {
				g.AppendRow(table.Row{cg.QueryID, cg.Result, fmt.Sprintf("%d%%", cg.Confidence), gap.Description, gap.Recommendation})
			}
		}
		g.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 40}, {Number: 5, WidthMax: 50}})
		b.WriteString(render(g, m))
		b.WriteString("\n")
	}
	if len(s.FailedQueries) > 0 {
		fmt.Fprintf(&b, "\nFailed queries: %s\n", strings.Join(s.FailedQueries, ", "))
	}
	return b.String()
}

func mark(met bool) string {
	if met {
		return "yes"
	}
	return "no"
}
