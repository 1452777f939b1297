// Package rules defines the static rule violation registry: every rule a
// finding can be attributed to, with stable IDs for audit traceability.
//
// The registry is pure data. It is constructed once per process and only
// ever read afterwards, so one instance may be shared freely across
// concurrent pipeline runs.
package rules

import (
	"fmt"
	"sort"

	"github.com/seenimoa/varscope/pkg/models"
)

// Rule IDs referenced by the detection passes.
const (
	GeneralVariance      = "VT001"
	GAVariance           = "VT002"
	BorrowingsStrict     = "VT003"
	RecurringStability   = "VT004"
	DepreciationStable   = "VT005"
	SignChange           = "SC001"
	ZeroBalanceChange    = "SC002"
	RecurringAnomaly     = "RA001"
	QuarterlyBilling     = "QP001"
	CyclicalPatternBreak = "QP002"
	MaterialityHigh      = "MT001"
	MaterialityMedium    = "MT002"
	MaterialityLow       = "MT003"
)

// Registry is the immutable rule violation catalog.
type Registry struct {
	rules map[string]models.RuleViolation
}

// NewRegistry builds the catalog covering all six rule families.
func NewRegistry() *Registry {
	entries := []models.RuleViolation{
		// Variance threshold rules
		{
			RuleID:         GeneralVariance,
			RuleName:       "General Variance Threshold",
			Category:       models.RuleVarianceThreshold,
			Description:    "Account variance exceeds default 5% threshold",
			ThresholdValue: 5.0,
		},
		{
			RuleID:         GAVariance,
			RuleName:       "G&A Account Variance Threshold",
			Category:       models.RuleVarianceThreshold,
			Description:    "General & Administrative account variance exceeds 10% threshold",
			ThresholdValue: 10.0,
		},
		{
			RuleID:         BorrowingsStrict,
			RuleName:       "Borrowings Strict Threshold",
			Category:       models.RuleVarianceThreshold,
			Description:    "Borrowings account variance exceeds strict 2% threshold",
			ThresholdValue: 2.0,
			SeverityImpact: "High materiality due to financial impact",
		},
		{
			RuleID:         RecurringStability,
			RuleName:       "Recurring Account Stability Threshold",
			Category:       models.RuleVarianceThreshold,
			Description:    "Recurring account variance exceeds 5% stability threshold",
			ThresholdValue: 5.0,
			SeverityImpact: "Expected to be stable period-over-period",
		},
		{
			RuleID:         DepreciationStable,
			RuleName:       "Depreciation Stability Threshold",
			Category:       models.RuleVarianceThreshold,
			Description:    "Depreciation account variance exceeds 5% stability threshold",
			ThresholdValue: 5.0,
			SeverityImpact: "Should be predictable based on asset base",
		},

		// Sign change rules
		{
			RuleID:         SignChange,
			RuleName:       "Account Sign Change Detection",
			Category:       models.RuleSignChange,
			Description:    "Account changed from positive to negative or vice versa",
			SeverityImpact: "Indicates potential data error or significant business event",
		},
		{
			RuleID:         ZeroBalanceChange,
			RuleName:       "Zero Balance Change Detection",
			Category:       models.RuleSignChange,
			Description:    "Account changed from zero to non-zero or vice versa",
			SeverityImpact: "May indicate account activation/deactivation",
		},

		// Recurring account rules
		{
			RuleID:         RecurringAnomaly,
			RuleName:       "Recurring Account Anomaly",
			Category:       models.RuleRecurringAccount,
			Description:    "Unusual variance in normally stable recurring account",
			SeverityImpact: "Requires investigation for operational changes",
		},

		// Quarterly pattern rules
		{
			RuleID:         QuarterlyBilling,
			RuleName:       "Quarterly Billing Cycle Deviation",
			Category:       models.RuleQuarterlyPattern,
			Description:    "Deviation from expected quarterly billing pattern",
			SeverityImpact: "May affect revenue recognition timing",
		},
		{
			RuleID:         CyclicalPatternBreak,
			RuleName:       "Cyclical Account Pattern Break",
			Category:       models.RuleQuarterlyPattern,
			Description:    "Break in expected cyclical account behavior",
			SeverityImpact: "Check billing cycles and collection patterns",
		},

		// Materiality rules
		{
			RuleID:         MaterialityHigh,
			RuleName:       "High Materiality Account Variance",
			Category:       models.RuleMateriality,
			Description:    "High materiality account exceeds specific variance threshold",
			SeverityImpact: "Significant financial statement impact",
		},
		{
			RuleID:         MaterialityMedium,
			RuleName:       "Medium Materiality Account Variance",
			Category:       models.RuleMateriality,
			Description:    "Medium materiality account exceeds variance threshold",
			SeverityImpact: "Moderate financial statement impact",
		},
		{
			RuleID:         MaterialityLow,
			RuleName:       "Low Materiality Account Variance",
			Category:       models.RuleMateriality,
			Description:    "Low materiality account exceeds variance threshold",
			SeverityImpact: "Limited financial statement impact",
		},
	}
	entries = append(entries, correlationEntries()...)

	rules := make(map[string]models.RuleViolation, len(entries))
	for _, e := range entries {
		rules[e.RuleID] = e
	}
	return &Registry{rules: rules}
}

// correlationEntries returns CR001–CR013, mirroring the 13 configured
// correlation rules.
func correlationEntries() []models.RuleViolation {
	type entry struct {
		name, desc, impact string
	}
	catalog := []entry{
		{"Investment Properties vs Depreciation Correlation", "Investment Properties and Depreciation should move together", "Asset base changes should reflect in depreciation"},
		{"Loan Balance vs Interest Expenses Correlation", "Loan principal and interest costs should correlate", "Debt changes should reflect in interest expense"},
		{"Cash Deposits vs Bank Interest Income Correlation", "Cash deposits and interest income should correlate", "Cash levels should generate proportional interest"},
		{"Trade Receivables Quarterly Billing Cycle", "Trade receivables should follow quarterly billing patterns", "Billing cycle timing affects receivables levels"},
		{"Unbilled Revenue Quarterly Recognition Pattern", "Unbilled revenue should follow quarterly recognition patterns", "Revenue recognition timing and advance collections"},
		{"Unearned Revenue vs Advance Collection Correlation", "Unearned revenue should correlate with advance collections", "Advance payments affect unearned revenue levels"},
		{"Capital Expenditure vs VAT Deductible Correlation", "Capital expenditures should correlate with VAT deductible", "CapEx activities generate deductible VAT"},
		{"Occupancy Rate vs Revenue Correlation", "Occupancy rates should correlate with rental revenue", "Occupancy changes directly affect revenue"},
		{"Maintenance Expenses vs OPEX Correlation", "Maintenance expenses should correlate with operating expenses", "Maintenance activities drive OPEX fluctuations"},
		{"Asset Disposal vs Depreciation Negative Correlation", "Asset disposals should reduce depreciation base", "Asset sales should decrease future depreciation"},
		{"New Lease Contracts vs Revenue Correlation", "New leases should correlate with revenue increases", "New tenants should increase rental income"},
		{"Lease Termination vs Revenue Negative Correlation", "Lease terminations should correlate with revenue decreases", "Tenant departures should reduce rental income"},
		{"FX Rate vs FX Gain/Loss Correlation", "FX rate changes should correlate with FX gain/loss", "Currency fluctuations affect FX-related accounts"},
	}

	entries := make([]models.RuleViolation, 0, len(catalog))
	for i, e := range catalog {
		entries = append(entries, models.RuleViolation{
			RuleID:         CorrelationRuleID(i + 1),
			RuleName:       e.name,
			Category:       models.RuleCorrelationViolation,
			Description:    e.desc,
			SeverityImpact: e.impact,
		})
	}
	return entries
}

// Lookup returns the rule violation entry for an ID.
func (r *Registry) Lookup(ruleID string) (models.RuleViolation, bool) {
	rv, ok := r.rules[ruleID]
	return rv, ok
}

// All returns every rule in the catalog sorted by ID.
func (r *Registry) All() []models.RuleViolation {
	out := make([]models.RuleViolation, 0, len(r.rules))
	for _, rv := range r.rules {
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// VarianceRuleForCategory returns the variance rule governing an account
// category: G&A-style categories map to the G&A rule, borrowings to the
// strict threshold, depreciation to the stability rule, everything else to
// the general rule.
func VarianceRuleForCategory(category models.Category) string {
	switch category {
	case models.CategoryOpex, models.CategoryStaffCosts, models.CategoryOtherExpenses:
		return GAVariance
	case models.CategoryBorrowings:
		return BorrowingsStrict
	case models.CategoryDepreciation:
		return DepreciationStable
	default:
		return GeneralVariance
	}
}

// CorrelationRuleID converts a numeric correlation rule ID to the
// standardized zero-padded form, e.g. 7 → "CR007". Reports cross-reference
// this exact format.
func CorrelationRuleID(numericID int) string {
	return fmt.Sprintf("CR%03d", numericID)
}

// MaterialityRuleForThreshold returns the materiality rule matching a
// configured threshold: stricter thresholds indicate higher materiality.
func MaterialityRuleForThreshold(threshold float64) string {
	switch {
	case threshold <= 3.0:
		return MaterialityHigh
	case threshold <= 5.0:
		return MaterialityMedium
	default:
		return MaterialityLow
	}
}
