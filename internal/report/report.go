// Package report renders analysis results for human review: a console
// text summary, an HTML report, and a CSV anomaly export. Rendering is
// strictly read-only over the pipeline output.
package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/varscope/internal/analysis"
	"github.com/seenimoa/varscope/pkg/models"
	"github.com/seenimoa/varscope/pkg/utils"
)

// Format specifies the report output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// Generator renders pipeline results.
type Generator struct {
	Title string
}

// NewGenerator creates a report generator.
func NewGenerator(title string) *Generator {
	if title == "" {
		title = "Variance Analysis Report"
	}
	return &Generator{Title: title}
}

// Write renders the result in the requested format.
func (g *Generator) Write(w io.Writer, result analysis.Result, format Format) error {
	switch format {
	case FormatHTML:
		return g.WriteHTML(w, result)
	case FormatCSV:
		return g.WriteCSV(w, result.Anomalies)
	default:
		return g.WriteText(w, result)
	}
}

// WriteText renders a console summary: headline stats, then the anomaly
// list in priority order.
func (g *Generator) WriteText(w io.Writer, result analysis.Result) error {
	var b strings.Builder

	b.WriteString(g.Title + "\n")
	b.WriteString(strings.Repeat("=", len(g.Title)) + "\n\n")

	stats := result.Stats
	fmt.Fprintf(&b, "Accounts analyzed:     %d\n", stats.TotalAccounts)
	fmt.Fprintf(&b, "Significant variances: %d (%.1f%%)\n", stats.SignificantVariances, stats.SignificantPercentage)
	fmt.Fprintf(&b, "Correlation findings:  %d\n", len(result.CorrelationResults))
	fmt.Fprintf(&b, "Anomalies:             %d\n\n", len(result.Anomalies))

	counts := map[models.Severity]int{}
	for _, a := range result.Anomalies {
		counts[a.Severity]++
	}
	fmt.Fprintf(&b, "  critical: %d  high: %d  medium: %d  low: %d\n\n",
		counts[models.SeverityCritical], counts[models.SeverityHigh],
		counts[models.SeverityMedium], counts[models.SeverityLow])

	for _, a := range result.Anomalies {
		fmt.Fprintf(&b, "[%s] %s  %s (%s)\n", strings.ToUpper(string(a.Severity)), a.ID, a.AccountName, a.AccountCode)
		fmt.Fprintf(&b, "      %s\n", a.Description)
		fmt.Fprintf(&b, "      Rule: %s %s\n", a.RuleViolationID, a.RuleViolationName)
		fmt.Fprintf(&b, "      Trigger: %s\n", a.LogicTrigger)
		fmt.Fprintf(&b, "      Action: %s\n\n", a.RecommendedAction)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// csvHeader lists every anomaly field so the reporting side never has to
// re-derive detection logic.
var csvHeader = []string{
	"id", "type", "severity", "account_code", "account_name", "category",
	"description", "current_value", "previous_value", "variance_percent",
	"rule_violation_id", "rule_violation_name", "rule_violation_description",
	"recommended_action", "logic_trigger", "period",
}

// WriteCSV exports the anomaly list as CSV.
func (g *Generator) WriteCSV(w io.Writer, anomalies []models.Anomaly) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, a := range anomalies {
		record := []string{
			a.ID,
			string(a.Type),
			string(a.Severity),
			a.AccountCode,
			a.AccountName,
			string(a.Category),
			a.Description,
			strconv.FormatFloat(a.CurrentValue, 'f', 2, 64),
			formatOptional(a.PreviousValue, 2),
			formatOptional(a.VariancePercent, 1),
			a.RuleViolationID,
			a.RuleViolationName,
			a.RuleViolationDescription,
			a.RecommendedAction,
			a.LogicTrigger,
			a.Period,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteHTML renders the full HTML report.
func (g *Generator) WriteHTML(w io.Writer, result analysis.Result) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"amount":  utils.FormatAmount,
		"percent": utils.FormatPercent,
		"optAmount": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return utils.FormatAmount(*v)
		},
		"optPercent": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return utils.FormatPercent(*v)
		},
		"upper": strings.ToUpper,
	}).Parse(ReportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	data := struct {
		Title       string
		GeneratedAt string
		Result      analysis.Result
		Critical    int
		High        int
		Medium      int
		Low         int
	}{
		Title:       g.Title,
		GeneratedAt: time.Now().Format("2006-01-02 15:04 MST"),
		Result:      result,
	}
	for _, a := range result.Anomalies {
		switch a.Severity {
		case models.SeverityCritical:
			data.Critical++
		case models.SeverityHigh:
			data.High++
		case models.SeverityMedium:
			data.Medium++
		case models.SeverityLow:
			data.Low++
		}
	}

	return tmpl.Execute(w, data)
}

func formatOptional(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
