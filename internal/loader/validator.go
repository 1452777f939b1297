package loader

import (
	"fmt"

	"github.com/seenimoa/varscope/pkg/models"
)

// Issue is one structural problem found in a snapshot. Warnings do not
// block analysis; errors mean the snapshot cannot be analyzed at all.
type Issue struct {
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
}

// Validate checks a snapshot's structure before analysis: period count,
// statement presence, and duplicate account codes within a statement.
// It returns all issues found; the snapshot is analyzable when none of
// them is an error.
func Validate(snap *models.Snapshot) []Issue {
	var issues []Issue

	if len(snap.Periods) < 2 {
		issues = append(issues, Issue{
			Severity: "error",
			Message:  fmt.Sprintf("need at least 2 periods for variance analysis, got %d", len(snap.Periods)),
		})
	}
	if len(snap.BalanceSheet) == 0 && len(snap.IncomeStatement) == 0 {
		issues = append(issues, Issue{Severity: "error", Message: "snapshot contains no line items"})
	}

	issues = append(issues, duplicateIssues("balance sheet", snap.BalanceSheet)...)
	issues = append(issues, duplicateIssues("income statement", snap.IncomeStatement)...)

	for _, item := range snap.AllItems() {
		if len(item.Values) == 0 {
			issues = append(issues, Issue{
				Severity: "warning",
				Message:  fmt.Sprintf("account %s has no numeric period values", item.AccountCode),
			})
		}
	}

	return issues
}

// Analyzable reports whether the issue list permits analysis.
func Analyzable(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == "error" {
			return false
		}
	}
	return true
}

// duplicateIssues flags account codes appearing more than once within one
// statement. Codes may repeat across statements, just not within one.
func duplicateIssues(statement string, items []models.LineItem) []Issue {
	seen := make(map[string]int)
	for _, item := range items {
		seen[item.AccountCode]++
	}

	var issues []Issue
	for _, item := range items {
		if seen[item.AccountCode] > 1 {
			issues = append(issues, Issue{
				Severity: "warning",
				Message:  fmt.Sprintf("duplicate account code %s in %s", item.AccountCode, statement),
			})
			seen[item.AccountCode] = 0 // report once
		}
	}
	return issues
}
