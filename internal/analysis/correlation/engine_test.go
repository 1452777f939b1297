package correlation

import (
	"strings"
	"testing"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
)

func testEngine() *Engine {
	cfg := config.Default()
	return NewEngine(cfg, account.NewMapper(cfg.Accounts))
}

func item(code string, previous, current float64) models.LineItem {
	return models.LineItem{
		AccountCode: code,
		AccountName: code,
		Values:      map[string]float64{"2024-Q3": previous, "2024-Q4": current},
	}
}

func snapshot(items ...models.LineItem) *models.Snapshot {
	return &models.Snapshot{
		BalanceSheet: items,
		Periods:      []string{"2024-Q3", "2024-Q4"},
	}
}

func TestRulesSortedByID(t *testing.T) {
	e := testEngine()
	rules := e.Rules()
	if len(rules) != 13 {
		t.Fatalf("got %d rules, want 13", len(rules))
	}
	for i := 1; i < len(rules); i++ {
		if rules[i].ID < rules[i-1].ID {
			t.Fatalf("rules not sorted: %d after %d", rules[i].ID, rules[i-1].ID)
		}
	}
}

func TestPositiveViolationPrimaryMovedCorrelatedLagged(t *testing.T) {
	e := testEngine()
	// Rule 1: investment_properties (positive) depreciation. IP +20%,
	// depreciation +1% — lagging correlated account is a violation.
	snap := snapshot(
		item("217000001", 1_000_000_000, 1_200_000_000),
		item("632100001", 100_000, 101_000),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(results), results)
	}

	r := results[0]
	if r.RuleID != 1 {
		t.Errorf("rule ID: got %d, want 1", r.RuleID)
	}
	if r.PrimaryAccount != "217000001" || r.CorrelatedAccount != "632100001" {
		t.Errorf("accounts: got %s / %s", r.PrimaryAccount, r.CorrelatedAccount)
	}
	if !r.IsViolation {
		t.Error("expected IsViolation=true")
	}
	if r.Severity != models.SeverityHigh {
		t.Errorf("severity: got %q, want high (|20%%| > 10%%)", r.Severity)
	}
	if !strings.Contains(r.ViolationDescription, "increased 20.0%") {
		t.Errorf("description: %q", r.ViolationDescription)
	}
}

func TestPositiveViolationMediumBelowTenPercent(t *testing.T) {
	e := testEngine()
	// IP +8%, depreciation flat: violation at medium severity.
	snap := snapshot(
		item("217000001", 1_000_000, 1_080_000),
		item("632100001", 100_000, 100_000),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1", len(results))
	}
	if results[0].Severity != models.SeverityMedium {
		t.Errorf("severity: got %q, want medium", results[0].Severity)
	}
}

func TestPositiveOppositeDirectionsAlwaysHigh(t *testing.T) {
	e := testEngine()
	// IP +8% while depreciation -8%: opposite directions are high even
	// though the primary magnitude alone would rate medium.
	snap := snapshot(
		item("217000001", 1_000_000, 1_080_000),
		item("632100001", 100_000, 92_000),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1", len(results))
	}
	r := results[0]
	if r.Severity != models.SeverityHigh {
		t.Errorf("severity: got %q, want high", r.Severity)
	}
	if !strings.Contains(r.ViolationDescription, "decreased 8.0%") {
		t.Errorf("description: %q", r.ViolationDescription)
	}
}

func TestPositiveBothMovedTogetherNoViolation(t *testing.T) {
	e := testEngine()
	// Both up ~10%: relationship held.
	snap := snapshot(
		item("217000001", 1_000_000, 1_100_000),
		item("632100001", 100_000, 110_000),
	)

	if results := e.Analyze(snap); len(results) != 0 {
		t.Errorf("expected no violations, got %+v", results)
	}
}

func TestNegativeSameDirectionViolation(t *testing.T) {
	e := testEngine()
	cfg := config.Default()
	// Rule 10 needs asset_disposal accounts, absent from the default
	// mapping; add one so the rule binds.
	cfg.Accounts = append(cfg.Accounts, config.AccountConfig{
		Code: "711000001", Name: "Asset Disposal Proceeds", Category: "asset_disposal", Statement: "income_statement",
	})
	e = NewEngine(cfg, account.NewMapper(cfg.Accounts))

	// Both disposal and depreciation up >5%: negative relationship violated.
	snap := snapshot(
		item("711000001", 100_000, 110_000),
		item("632100001", 100_000, 107_000),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.RuleID != 10 {
		t.Errorf("rule ID: got %d, want 10", r.RuleID)
	}
	if r.Severity != models.SeverityHigh {
		t.Errorf("severity: got %q, want high", r.Severity)
	}
	if !strings.Contains(r.ViolationDescription, "should move oppositely") {
		t.Errorf("description: %q", r.ViolationDescription)
	}
}

func TestNegativeOppositeDirectionsNoViolation(t *testing.T) {
	cfg := config.Default()
	cfg.Accounts = append(cfg.Accounts, config.AccountConfig{
		Code: "711000001", Name: "Asset Disposal Proceeds", Category: "asset_disposal", Statement: "income_statement",
	})
	e := NewEngine(cfg, account.NewMapper(cfg.Accounts))

	snap := snapshot(
		item("711000001", 100_000, 110_000),
		item("632100001", 100_000, 93_000),
	)

	if results := e.Analyze(snap); len(results) != 0 {
		t.Errorf("expected no violations, got %+v", results)
	}
}

func TestQuarterlyCycleBound(t *testing.T) {
	e := testEngine()
	// Rule 4: trade_receivables quarterly_cycle revenue. +25% breaches
	// the fixed 20% bound.
	snap := snapshot(
		item("131100001", 1_000_000, 1_250_000),
		item("511100001", 800_000, 800_000),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.RuleID != 4 {
		t.Errorf("rule ID: got %d, want 4", r.RuleID)
	}
	if r.Severity != models.SeverityMedium {
		t.Errorf("severity: got %q, want medium", r.Severity)
	}
	if !strings.Contains(r.ViolationDescription, "verify quarter timing") {
		t.Errorf("description: %q", r.ViolationDescription)
	}
}

func TestQuarterlyCycleWithinBoundNoViolation(t *testing.T) {
	e := testEngine()
	snap := snapshot(
		item("131100001", 1_000_000, 1_150_000),
		item("511100001", 800_000, 800_000),
	)

	if results := e.Analyze(snap); len(results) != 0 {
		t.Errorf("expected no violations, got %+v", results)
	}
}

func TestConditionalViolation(t *testing.T) {
	cfg := config.Default()
	// Rule 13 needs an fx_volatility account.
	cfg.Accounts = append(cfg.Accounts, config.AccountConfig{
		Code: "999000001", Name: "FX Rate Index", Category: "fx_volatility", Statement: "income_statement",
	})
	e := NewEngine(cfg, account.NewMapper(cfg.Accounts))

	// FX index +15% but gain/loss moved only 1%.
	snap := snapshot(
		item("999000001", 100, 115),
		item("641100001", 10_000, 10_100),
	)

	results := e.Analyze(snap)
	if len(results) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.RuleID != 13 {
		t.Errorf("rule ID: got %d, want 13", r.RuleID)
	}
	if r.Severity != models.SeverityMedium {
		t.Errorf("severity: got %q, want medium", r.Severity)
	}
}

func TestDisabledRuleSkipped(t *testing.T) {
	disabled := false
	cfg := config.Default()
	for i := range cfg.Correlation.Rules {
		if cfg.Correlation.Rules[i].ID == 1 {
			cfg.Correlation.Rules[i].Enabled = &disabled
		}
	}
	e := NewEngine(cfg, account.NewMapper(cfg.Accounts))

	snap := snapshot(
		item("217000001", 1_000_000, 1_200_000),
		item("632100001", 100_000, 101_000),
	)

	if results := e.Analyze(snap); len(results) != 0 {
		t.Errorf("disabled rule should not fire, got %+v", results)
	}
}

func TestMultiCategoryPrimaryRule(t *testing.T) {
	e := testEngine()
	// Rule 7 binds both investment_properties accounts against VAT
	// deductible. Both IP accounts jump 15% with VAT flat: two
	// violations, one per primary, in sorted account order.
	snap := snapshot(
		item("217000006", 1_000_000, 1_150_000),
		item("217000001", 1_000_000, 1_150_000),
		item("133100001", 50_000, 50_000),
	)

	results := e.Analyze(snap)

	var rule7 []models.CorrelationResult
	for _, r := range results {
		if r.RuleID == 7 {
			rule7 = append(rule7, r)
		}
	}
	if len(rule7) != 2 {
		t.Fatalf("rule 7: got %d violations, want 2: %+v", len(rule7), results)
	}
	if rule7[0].PrimaryAccount != "217000001" || rule7[1].PrimaryAccount != "217000006" {
		t.Errorf("primary order: got %s, %s", rule7[0].PrimaryAccount, rule7[1].PrimaryAccount)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := testEngine()
	snap := snapshot(
		item("217000001", 1_000_000, 1_200_000),
		item("632100001", 100_000, 101_000),
		item("131100001", 1_000_000, 1_300_000),
		item("511100001", 800_000, 800_000),
	)

	first := e.Analyze(snap)
	for i := 0; i < 5; i++ {
		again := e.Analyze(snap)
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d results, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d result %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestViolationsBySeverity(t *testing.T) {
	results := []models.CorrelationResult{
		{RuleID: 1, IsViolation: true, Severity: models.SeverityHigh},
		{RuleID: 2, IsViolation: true, Severity: models.SeverityMedium},
		{RuleID: 3, IsViolation: true, Severity: models.SeverityHigh},
	}

	high := ViolationsBySeverity(results, models.SeverityHigh)
	if len(high) != 2 {
		t.Errorf("got %d high violations, want 2", len(high))
	}
}

func TestViolationsByRule(t *testing.T) {
	results := []models.CorrelationResult{
		{RuleID: 1, IsViolation: true},
		{RuleID: 2, IsViolation: true},
		{RuleID: 1, IsViolation: true},
	}

	if got := ViolationsByRule(results, 1); len(got) != 2 {
		t.Errorf("got %d rule-1 violations, want 2", len(got))
	}
}
