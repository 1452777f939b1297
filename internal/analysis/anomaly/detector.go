// Package anomaly fuses variance and correlation analysis into a single
// ranked list of severity-classified, rule-attributed findings.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/analysis/rules"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
	"github.com/seenimoa/varscope/pkg/utils"
)

// Detector runs the five anomaly detection passes and produces the final
// prioritized anomaly list. Construction validates the severity table; a
// detector that constructs successfully never fails during detection.
type Detector struct {
	cfg      *config.Config
	mapper   *account.Mapper
	registry *rules.Registry
}

// NewDetector creates an anomaly detector. It returns an error when the
// configured severity table is unusable (a tier missing its percentage or
// absolute floor), since no correct classification is possible then.
func NewDetector(cfg *config.Config, mapper *account.Mapper, registry *rules.Registry) (*Detector, error) {
	tiers := map[string]config.SeverityTier{
		"critical": cfg.Severity.Critical,
		"high":     cfg.Severity.High,
		"medium":   cfg.Severity.Medium,
	}
	for name, tier := range tiers {
		if tier.VariancePercent <= 0 || tier.AbsoluteAmount <= 0 {
			return nil, fmt.Errorf("severity table: %s tier is missing variance or absolute threshold", name)
		}
	}
	return &Detector{cfg: cfg, mapper: mapper, registry: registry}, nil
}

// Detect runs all five passes over the analysis outputs and returns the
// merged anomaly list sorted by severity rank and variance magnitude.
// An account/period pair may legitimately appear in more than one pass.
func (d *Detector) Detect(varianceResults []models.VarianceResult, correlationResults []models.CorrelationResult, snap *models.Snapshot) []models.Anomaly {
	var anomalies []models.Anomaly
	anomalies = append(anomalies, d.detectVarianceAnomalies(varianceResults)...)
	anomalies = append(anomalies, d.detectCorrelationAnomalies(correlationResults)...)
	anomalies = append(anomalies, d.detectSignChanges(varianceResults)...)
	anomalies = append(anomalies, d.detectRecurringAnomalies(varianceResults)...)
	anomalies = append(anomalies, d.detectQuarterlyBreaks(varianceResults)...)
	return prioritize(anomalies)
}

// classifySeverity applies AND logic: a tier matches only when both the
// percentage and the absolute amount clear its floors. Failing all tiers
// classifies low.
func (d *Detector) classifySeverity(variancePercent, varianceAmount float64) models.Severity {
	pct := math.Abs(variancePercent)
	amt := math.Abs(varianceAmount)

	switch {
	case pct >= d.cfg.Severity.Critical.VariancePercent && amt >= d.cfg.Severity.Critical.AbsoluteAmount:
		return models.SeverityCritical
	case pct >= d.cfg.Severity.High.VariancePercent && amt >= d.cfg.Severity.High.AbsoluteAmount:
		return models.SeverityHigh
	case pct >= d.cfg.Severity.Medium.VariancePercent && amt >= d.cfg.Severity.Medium.AbsoluteAmount:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// resolveVarianceRule is the attribution chain for variance findings: an
// account-specific materiality override supersedes the category rule.
func (d *Detector) resolveVarianceRule(accountCode string, category models.Category) string {
	if threshold, ok := d.cfg.MaterialityOverride(accountCode); ok {
		return rules.MaterialityRuleForThreshold(threshold)
	}
	return rules.VarianceRuleForCategory(category)
}

func (d *Detector) detectVarianceAnomalies(results []models.VarianceResult) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, r := range results {
		if !r.IsSignificant {
			continue
		}

		severity := d.classifySeverity(r.VariancePercent, r.VarianceAmount)
		ruleID := d.resolveVarianceRule(r.AccountCode, r.Category)
		rule, _ := d.registry.Lookup(ruleID)

		direction := "increased"
		if r.VarianceAmount < 0 {
			direction = "decreased"
		}
		description := fmt.Sprintf("Account %s by %.1f%% (%s)",
			direction, math.Abs(r.VariancePercent), utils.FormatAmount(r.VarianceAmount))

		trigger := fmt.Sprintf("Variance %.1f%% exceeded %.1f%% threshold for category %s",
			math.Abs(r.VariancePercent), d.cfg.VarianceThreshold(r.Category), r.Category)
		if severity != models.SeverityLow {
			tier := d.tierFor(severity)
			trigger += fmt.Sprintf("; %s tier met (>=%.1f%% and >=%s)",
				severity, tier.VariancePercent, utils.FormatAmount(tier.AbsoluteAmount))
		}

		anomalies = append(anomalies, models.Anomaly{
			ID:                       fmt.Sprintf("VAR_%s_%s", r.AccountCode, r.PeriodTo),
			Type:                     models.AnomalyVariance,
			Severity:                 severity,
			AccountCode:              r.AccountCode,
			AccountName:              r.AccountName,
			Category:                 r.Category,
			Description:              description,
			CurrentValue:             r.CurrentValue,
			PreviousValue:            ptr(r.PreviousValue),
			VariancePercent:          ptr(r.VariancePercent),
			RuleViolationID:          rule.RuleID,
			RuleViolationName:        rule.RuleName,
			RuleViolationDescription: rule.Description,
			RecommendedAction:        recommendForVariance(r.AccountName, severity),
			LogicTrigger:             trigger,
			Period:                   r.PeriodTo,
		})
	}

	return anomalies
}

func (d *Detector) detectCorrelationAnomalies(results []models.CorrelationResult) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, r := range results {
		if !r.IsViolation {
			continue
		}

		var severity models.Severity
		switch r.Severity {
		case models.SeverityHigh:
			severity = models.SeverityHigh
		case models.SeverityMedium:
			severity = models.SeverityMedium
		default:
			severity = models.SeverityLow
		}

		accountName := d.mapper.DisplayName(r.PrimaryAccount)
		category := d.mapper.Category(r.PrimaryAccount)

		ruleID := rules.CorrelationRuleID(r.RuleID)
		rule, _ := d.registry.Lookup(ruleID)

		anomalies = append(anomalies, models.Anomaly{
			ID:                       fmt.Sprintf("CORR_%s_%s", ruleID, r.PrimaryAccount),
			Type:                     models.AnomalyCorrelation,
			Severity:                 severity,
			AccountCode:              r.PrimaryAccount,
			AccountName:              accountName,
			Category:                 category,
			Description:              fmt.Sprintf("Rule violation: %s. %s", r.RuleName, r.ViolationDescription),
			CurrentValue:             0,
			VariancePercent:          ptr(r.PrimaryVariance),
			RuleViolationID:          rule.RuleID,
			RuleViolationName:        rule.RuleName,
			RuleViolationDescription: rule.Description,
			RecommendedAction:        fmt.Sprintf("Review correlation between %s and %s - verify business logic", r.PrimaryAccount, r.CorrelatedAccount),
			LogicTrigger:             fmt.Sprintf("Expected %s relationship violated beyond %.1f%% correlation threshold", r.ExpectedRelationship, d.cfg.Correlation.Threshold),
			Period:                   "Current",
		})
	}

	return anomalies
}

func (d *Detector) detectSignChanges(results []models.VarianceResult) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, r := range results {
		if !utils.HasSignChange(r.CurrentValue, r.PreviousValue) {
			continue
		}

		var description string
		zeroCrossing := r.PreviousValue == 0 || r.CurrentValue == 0
		switch {
		case r.PreviousValue > 0 && r.CurrentValue < 0:
			description = fmt.Sprintf("Account changed from positive (%s) to negative (%s)",
				utils.FormatAmount(r.PreviousValue), utils.FormatAmount(r.CurrentValue))
		case r.PreviousValue < 0 && r.CurrentValue > 0:
			description = fmt.Sprintf("Account changed from negative (%s) to positive (%s)",
				utils.FormatAmount(r.PreviousValue), utils.FormatAmount(r.CurrentValue))
		case r.PreviousValue != 0 && r.CurrentValue == 0:
			description = fmt.Sprintf("Account changed from %s to zero", utils.FormatAmount(r.PreviousValue))
		default:
			description = fmt.Sprintf("Account changed from zero to %s", utils.FormatAmount(r.CurrentValue))
		}

		ruleID := rules.SignChange
		if zeroCrossing {
			ruleID = rules.ZeroBalanceChange
		}
		rule, _ := d.registry.Lookup(ruleID)

		anomalies = append(anomalies, models.Anomaly{
			ID:                       fmt.Sprintf("SIGN_%s_%s", r.AccountCode, r.PeriodTo),
			Type:                     models.AnomalySignChange,
			Severity:                 models.SeverityHigh,
			AccountCode:              r.AccountCode,
			AccountName:              r.AccountName,
			Category:                 r.Category,
			Description:              description,
			CurrentValue:             r.CurrentValue,
			PreviousValue:            ptr(r.PreviousValue),
			VariancePercent:          ptr(r.VariancePercent),
			RuleViolationID:          rule.RuleID,
			RuleViolationName:        rule.RuleName,
			RuleViolationDescription: rule.Description,
			RecommendedAction:        "Investigate the cause of sign change - possible data error or significant business event",
			LogicTrigger:             "Sign change between periods; always high severity regardless of magnitude",
			Period:                   r.PeriodTo,
		})
	}

	return anomalies
}

func (d *Detector) detectRecurringAnomalies(results []models.VarianceResult) []models.Anomaly {
	var anomalies []models.Anomaly
	stability := d.cfg.Thresholds.RecurringStability

	for _, r := range results {
		if !d.mapper.IsRecurring(r.AccountCode) {
			continue
		}
		if math.Abs(r.VariancePercent) < stability {
			continue
		}

		severity := d.classifySeverity(r.VariancePercent, r.VarianceAmount)
		rule, _ := d.registry.Lookup(rules.RecurringAnomaly)

		anomalies = append(anomalies, models.Anomaly{
			ID:                       fmt.Sprintf("RECUR_%s_%s", r.AccountCode, r.PeriodTo),
			Type:                     models.AnomalyRecurringSpike,
			Severity:                 severity,
			AccountCode:              r.AccountCode,
			AccountName:              r.AccountName,
			Category:                 r.Category,
			Description:              fmt.Sprintf("Recurring account showed %.1f%% variance (expected to be stable)", math.Abs(r.VariancePercent)),
			CurrentValue:             r.CurrentValue,
			PreviousValue:            ptr(r.PreviousValue),
			VariancePercent:          ptr(r.VariancePercent),
			RuleViolationID:          rule.RuleID,
			RuleViolationName:        rule.RuleName,
			RuleViolationDescription: rule.Description,
			RecommendedAction:        recommendForRecurring(r.Category),
			LogicTrigger:             fmt.Sprintf("Variance %.1f%% exceeded %.1f%% recurring stability threshold", math.Abs(r.VariancePercent), stability),
			Period:                   r.PeriodTo,
		})
	}

	return anomalies
}

func (d *Detector) detectQuarterlyBreaks(results []models.VarianceResult) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, r := range results {
		if !d.mapper.IsCyclical(r.AccountCode) {
			continue
		}
		threshold := d.cfg.QuarterlyThreshold(r.Category)
		if math.Abs(r.VariancePercent) <= threshold {
			continue
		}

		severity := d.classifySeverity(r.VariancePercent, r.VarianceAmount)
		ruleID := rules.CyclicalPatternBreak
		if isBillingCycleCategory(r.Category) {
			ruleID = rules.QuarterlyBilling
		}
		rule, _ := d.registry.Lookup(ruleID)

		anomalies = append(anomalies, models.Anomaly{
			ID:                       fmt.Sprintf("QUART_%s_%s", r.AccountCode, r.PeriodTo),
			Type:                     models.AnomalyQuarterlyPattern,
			Severity:                 severity,
			AccountCode:              r.AccountCode,
			AccountName:              r.AccountName,
			Category:                 r.Category,
			Description:              fmt.Sprintf("Quarterly account showed unusual variance of %.1f%%", r.VariancePercent),
			CurrentValue:             r.CurrentValue,
			PreviousValue:            ptr(r.PreviousValue),
			VariancePercent:          ptr(r.VariancePercent),
			RuleViolationID:          rule.RuleID,
			RuleViolationName:        rule.RuleName,
			RuleViolationDescription: rule.Description,
			RecommendedAction:        "Verify quarterly billing timing and collection patterns",
			LogicTrigger:             fmt.Sprintf("Variance %.1f%% exceeded %.1f%% quarterly pattern threshold for category %s", math.Abs(r.VariancePercent), threshold, r.Category),
			Period:                   r.PeriodTo,
		})
	}

	return anomalies
}

// isBillingCycleCategory reports whether a category follows the quarterly
// billing cycle, which routes attribution to the billing-cycle rule.
func isBillingCycleCategory(category models.Category) bool {
	switch category {
	case models.CategoryTradeReceivables, models.CategoryUnbilledRevenue, models.CategoryUnearnedRevenue:
		return true
	default:
		return false
	}
}

func (d *Detector) tierFor(severity models.Severity) config.SeverityTier {
	switch severity {
	case models.SeverityCritical:
		return d.cfg.Severity.Critical
	case models.SeverityHigh:
		return d.cfg.Severity.High
	default:
		return d.cfg.Severity.Medium
	}
}

func recommendForVariance(accountName string, severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return fmt.Sprintf("URGENT: Investigate %s - verify data accuracy and underlying business reasons", accountName)
	case models.SeverityHigh:
		return fmt.Sprintf("Review %s - check supporting documentation and business events", accountName)
	default:
		return fmt.Sprintf("Monitor %s - document explanation for variance", accountName)
	}
}

func recommendForRecurring(category models.Category) string {
	switch category {
	case models.CategoryDepreciation:
		return "Check for asset additions, disposals, or changes in depreciation method"
	case models.CategoryRevenue:
		return "Verify lease agreements, occupancy changes, or billing timing"
	case models.CategoryOpex:
		return "Review operating expense categories for unusual items or timing differences"
	default:
		return "Investigate the cause of variance in this normally stable account"
	}
}

// prioritize sorts descending by severity rank, then absolute variance
// percentage. The sort is stable so equal keys keep detection order and
// output stays reproducible.
func prioritize(anomalies []models.Anomaly) []models.Anomaly {
	sort.SliceStable(anomalies, func(i, j int) bool {
		ri, rj := anomalies[i].Severity.Rank(), anomalies[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return varianceMagnitude(anomalies[i]) > varianceMagnitude(anomalies[j])
	})
	return anomalies
}

func varianceMagnitude(a models.Anomaly) float64 {
	if a.VariancePercent == nil {
		return 0
	}
	return math.Abs(*a.VariancePercent)
}

// BySeverity filters the list to one severity without recomputation.
func BySeverity(anomalies []models.Anomaly, severity models.Severity) []models.Anomaly {
	out := make([]models.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out
}

// ByType filters the list to one anomaly type without recomputation.
func ByType(anomalies []models.Anomaly, t models.AnomalyType) []models.Anomaly {
	out := make([]models.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Critical returns only the critical findings.
func Critical(anomalies []models.Anomaly) []models.Anomaly {
	return BySeverity(anomalies, models.SeverityCritical)
}

func ptr(v float64) *float64 {
	return &v
}
