package loader

import (
	"strings"
	"testing"

	"github.com/seenimoa/varscope/pkg/models"
)

func validSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Periods: []string{"2024-Q3", "2024-Q4"},
		BalanceSheet: []models.LineItem{
			{AccountCode: "217000001", Values: map[string]float64{"2024-Q3": 1, "2024-Q4": 2}},
		},
		IncomeStatement: []models.LineItem{
			{AccountCode: "511100001", Values: map[string]float64{"2024-Q3": 3, "2024-Q4": 4}},
		},
	}
}

func TestValidateCleanSnapshot(t *testing.T) {
	issues := Validate(validSnapshot())
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
	if !Analyzable(issues) {
		t.Error("clean snapshot must be analyzable")
	}
}

func TestValidateTooFewPeriods(t *testing.T) {
	snap := validSnapshot()
	snap.Periods = []string{"2024-Q4"}

	issues := Validate(snap)
	if Analyzable(issues) {
		t.Fatal("single-period snapshot must not be analyzable")
	}
	found := false
	for _, i := range issues {
		if i.Severity == "error" && strings.Contains(i.Message, "at least 2 periods") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected period error, got %+v", issues)
	}
}

func TestValidateEmptySnapshot(t *testing.T) {
	issues := Validate(&models.Snapshot{Periods: []string{"a", "b"}})
	if Analyzable(issues) {
		t.Fatal("itemless snapshot must not be analyzable")
	}
}

func TestValidateDuplicateCodesWarnOnce(t *testing.T) {
	snap := validSnapshot()
	snap.BalanceSheet = append(snap.BalanceSheet,
		models.LineItem{AccountCode: "217000001", Values: map[string]float64{"2024-Q4": 9}},
		models.LineItem{AccountCode: "217000001", Values: map[string]float64{"2024-Q4": 10}},
	)

	issues := Validate(snap)
	dupes := 0
	for _, i := range issues {
		if strings.Contains(i.Message, "duplicate account code 217000001") {
			dupes++
			if i.Severity != "warning" {
				t.Errorf("duplicates are warnings, got %q", i.Severity)
			}
		}
	}
	if dupes != 1 {
		t.Errorf("duplicate reported %d times, want once", dupes)
	}
	if !Analyzable(issues) {
		t.Error("warnings alone must not block analysis")
	}
}

func TestValidateDuplicateAcrossStatementsAllowed(t *testing.T) {
	snap := validSnapshot()
	// Same code on both statements is fine.
	snap.IncomeStatement = append(snap.IncomeStatement,
		models.LineItem{AccountCode: "217000001", Values: map[string]float64{"2024-Q4": 9}})

	for _, i := range Validate(snap) {
		if strings.Contains(i.Message, "duplicate") {
			t.Errorf("cross-statement reuse flagged: %+v", i)
		}
	}
}

func TestValidateNoValuesWarning(t *testing.T) {
	snap := validSnapshot()
	snap.BalanceSheet = append(snap.BalanceSheet, models.LineItem{AccountCode: "999"})

	issues := Validate(snap)
	found := false
	for _, i := range issues {
		if i.Severity == "warning" && strings.Contains(i.Message, "999") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected no-values warning for 999, got %+v", issues)
	}
	if !Analyzable(issues) {
		t.Error("value warnings must not block analysis")
	}
}
