// Package correlation evaluates cross-account relationship rules against a
// snapshot: declarative expectations that pairs of account categories move
// together, oppositely, or within cyclical bounds.
package correlation

import (
	"fmt"
	"math"
	"sort"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
	"github.com/seenimoa/varscope/pkg/utils"
)

// Engine evaluates the configured correlation rules. It computes account
// variances directly from raw snapshot values, independent of the variance
// analyzer, so the two components stay decoupled.
type Engine struct {
	cfg    *config.Config
	mapper *account.Mapper
	rules  []models.CorrelationRule
}

// NewEngine creates a correlation engine over the configured rule set.
func NewEngine(cfg *config.Config, mapper *account.Mapper) *Engine {
	rules := cfg.CorrelationRules()
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return &Engine{cfg: cfg, mapper: mapper, rules: rules}
}

// Rules returns the engine's rule set in evaluation order.
func (e *Engine) Rules() []models.CorrelationRule {
	return e.rules
}

// Analyze evaluates every enabled rule against the snapshot and returns
// the detected violations in (rule ID, primary account, correlated
// account) order. Rules with no matching accounts contribute nothing.
func (e *Engine) Analyze(snap *models.Snapshot) []models.CorrelationResult {
	previous, current, ok := snap.CurrentPeriods()
	if !ok {
		return nil
	}

	byCode := make(map[string]models.LineItem)
	for _, item := range snap.AllItems() {
		if _, exists := byCode[item.AccountCode]; !exists {
			byCode[item.AccountCode] = item
		}
	}

	var results []models.CorrelationResult
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		results = append(results, e.analyzeRule(rule, byCode, previous, current)...)
	}
	return results
}

func (e *Engine) analyzeRule(rule models.CorrelationRule, byCode map[string]models.LineItem, previous, current string) []models.CorrelationResult {
	primaries := e.presentAccounts(byCode, rule.PrimaryCategories...)
	correlated := e.presentAccounts(byCode, rule.CorrelatedCategory)
	if len(primaries) == 0 || len(correlated) == 0 {
		return nil
	}

	var results []models.CorrelationResult
	for _, primaryCode := range primaries {
		for _, correlatedCode := range correlated {
			primaryItem := byCode[primaryCode]
			correlatedItem := byCode[correlatedCode]

			primaryVar := utils.VariancePercent(primaryItem.Value(current), primaryItem.Value(previous))
			correlatedVar := utils.VariancePercent(correlatedItem.Value(current), correlatedItem.Value(previous))

			violation, ok := checkViolation(rule.Relationship, primaryVar, correlatedVar, e.cfg.Correlation.Threshold)
			if !ok {
				continue
			}

			results = append(results, models.CorrelationResult{
				RuleID:               rule.ID,
				RuleName:             rule.Name,
				PrimaryAccount:       primaryCode,
				CorrelatedAccount:    correlatedCode,
				PrimaryVariance:      primaryVar,
				CorrelatedVariance:   correlatedVar,
				ExpectedRelationship: rule.Relationship,
				IsViolation:          true,
				ViolationDescription: violation.description,
				Severity:             violation.severity,
			})
		}
	}
	return results
}

// presentAccounts returns the mapped account codes for the given
// categories that actually appear in the snapshot, deduplicated and
// sorted for deterministic output.
func (e *Engine) presentAccounts(byCode map[string]models.LineItem, categories ...models.Category) []string {
	seen := make(map[string]bool)
	var present []string
	for _, cat := range categories {
		for _, code := range e.mapper.CodesForCategory(cat) {
			if seen[code] {
				continue
			}
			seen[code] = true
			if _, ok := byCode[code]; ok {
				present = append(present, code)
			}
		}
	}
	sort.Strings(present)
	return present
}

type violation struct {
	description string
	severity    models.Severity
}

func checkViolation(relationship models.RelationshipType, primaryVar, correlatedVar, threshold float64) (violation, bool) {
	switch relationship {
	case models.RelationshipPositive:
		return checkPositive(primaryVar, correlatedVar, threshold)
	case models.RelationshipNegative:
		return checkNegative(primaryVar, correlatedVar, threshold)
	case models.RelationshipQuarterlyCycle:
		return checkQuarterlyCycle(primaryVar)
	case models.RelationshipConditional:
		return checkConditional(primaryVar, correlatedVar)
	default:
		return violation{}, false
	}
}

func checkPositive(primaryVar, correlatedVar, threshold float64) (violation, bool) {
	// Primary moved significantly but correlated lagged.
	if primaryVar > threshold && math.Abs(correlatedVar) < threshold {
		return violation{
			description: fmt.Sprintf("Primary account increased %.1f%% but correlated account changed only %.1f%%", primaryVar, correlatedVar),
			severity:    severityForMagnitude(primaryVar),
		}, true
	}
	if primaryVar < -threshold && math.Abs(correlatedVar) < threshold {
		return violation{
			description: fmt.Sprintf("Primary account decreased %.1f%% but correlated account changed only %.1f%%", math.Abs(primaryVar), correlatedVar),
			severity:    severityForMagnitude(primaryVar),
		}, true
	}

	// Opposite directions are always high severity.
	if primaryVar > threshold && correlatedVar < -threshold {
		return violation{
			description: fmt.Sprintf("Primary account increased %.1f%% but correlated account decreased %.1f%%", primaryVar, math.Abs(correlatedVar)),
			severity:    models.SeverityHigh,
		}, true
	}
	if primaryVar < -threshold && correlatedVar > threshold {
		return violation{
			description: fmt.Sprintf("Primary account decreased %.1f%% but correlated account increased %.1f%%", math.Abs(primaryVar), correlatedVar),
			severity:    models.SeverityHigh,
		}, true
	}

	return violation{}, false
}

func checkNegative(primaryVar, correlatedVar, threshold float64) (violation, bool) {
	if primaryVar > threshold && correlatedVar > threshold {
		return violation{
			description: fmt.Sprintf("Both accounts increased (%.1f%%, %.1f%%) but should move oppositely", primaryVar, correlatedVar),
			severity:    models.SeverityHigh,
		}, true
	}
	if primaryVar < -threshold && correlatedVar < -threshold {
		return violation{
			description: fmt.Sprintf("Both accounts decreased (%.1f%%, %.1f%%) but should move oppositely", math.Abs(primaryVar), math.Abs(correlatedVar)),
			severity:    models.SeverityHigh,
		}, true
	}
	return violation{}, false
}

// checkQuarterlyCycle flags abnormally large swings in cyclical accounts.
// No quarter-boundary signal reaches the engine, so the check is a fixed
// magnitude bound rather than true calendar awareness.
func checkQuarterlyCycle(primaryVar float64) (violation, bool) {
	if math.Abs(primaryVar) > 20 {
		return violation{
			description: fmt.Sprintf("Large variance (%.1f%%) in cyclical account - verify quarter timing", primaryVar),
			severity:    models.SeverityMedium,
		}, true
	}
	return violation{}, false
}

func checkConditional(primaryVar, correlatedVar float64) (violation, bool) {
	if math.Abs(primaryVar) > 10 && math.Abs(correlatedVar) < 2 {
		return violation{
			description: fmt.Sprintf("High volatility in primary (%.1f%%) but minimal correlated response (%.1f%%)", primaryVar, correlatedVar),
			severity:    models.SeverityMedium,
		}, true
	}
	return violation{}, false
}

func severityForMagnitude(primaryVar float64) models.Severity {
	if math.Abs(primaryVar) > 10 {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// ViolationsBySeverity filters results to violations of one severity.
func ViolationsBySeverity(results []models.CorrelationResult, severity models.Severity) []models.CorrelationResult {
	out := make([]models.CorrelationResult, 0, len(results))
	for _, r := range results {
		if r.IsViolation && r.Severity == severity {
			out = append(out, r)
		}
	}
	return out
}

// ViolationsByRule filters results to violations of one rule.
func ViolationsByRule(results []models.CorrelationResult, ruleID int) []models.CorrelationResult {
	out := make([]models.CorrelationResult, 0, len(results))
	for _, r := range results {
		if r.IsViolation && r.RuleID == ruleID {
			out = append(out, r)
		}
	}
	return out
}
