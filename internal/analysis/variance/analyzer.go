// Package variance computes period-over-period variance for every account
// line item in a snapshot and flags the significant ones.
package variance

import (
	"math"
	"sort"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
	"github.com/seenimoa/varscope/pkg/utils"
)

// Analyzer performs period-over-period variance analysis. It is a pure
// computation over its inputs; the same snapshot always yields the same
// results.
type Analyzer struct {
	cfg    *config.Config
	mapper *account.Mapper
}

// NewAnalyzer creates a variance analyzer using the configured category
// thresholds and account mapping.
func NewAnalyzer(cfg *config.Config, mapper *account.Mapper) *Analyzer {
	return &Analyzer{cfg: cfg, mapper: mapper}
}

// Analyze produces one VarianceResult per line item across both
// statements, comparing the two most recent periods. A statement with
// fewer than two periods contributes no results.
func (a *Analyzer) Analyze(snap *models.Snapshot) []models.VarianceResult {
	previous, current, ok := snap.CurrentPeriods()
	if !ok {
		return nil
	}

	results := make([]models.VarianceResult, 0, len(snap.BalanceSheet)+len(snap.IncomeStatement))
	results = append(results, a.analyzeStatement(snap.BalanceSheet, models.BalanceSheet, previous, current)...)
	results = append(results, a.analyzeStatement(snap.IncomeStatement, models.IncomeStatement, previous, current)...)
	return results
}

func (a *Analyzer) analyzeStatement(items []models.LineItem, st models.StatementType, previous, current string) []models.VarianceResult {
	results := make([]models.VarianceResult, 0, len(items))

	for _, item := range items {
		if item.AccountCode == "" {
			continue
		}

		category := item.Category
		if category == "" {
			category = a.mapper.Category(item.AccountCode)
		}

		currentValue := item.Value(current)
		previousValue := item.Value(previous)
		amount := utils.VarianceAmount(currentValue, previousValue)
		percent := utils.VariancePercent(currentValue, previousValue)

		threshold := a.cfg.VarianceThreshold(category)
		significant := math.Abs(percent) >= threshold
		if utils.HasSignChange(currentValue, previousValue) {
			// Sign changes are significant regardless of magnitude.
			significant = true
		}

		results = append(results, models.VarianceResult{
			AccountCode:     item.AccountCode,
			AccountName:     item.AccountName,
			Category:        category,
			StatementType:   st,
			CurrentValue:    currentValue,
			PreviousValue:   previousValue,
			VarianceAmount:  amount,
			VariancePercent: percent,
			IsSignificant:   significant,
			PeriodFrom:      previous,
			PeriodTo:        current,
		})
	}

	return results
}

// Significant filters results to the significant variances.
func Significant(results []models.VarianceResult) []models.VarianceResult {
	out := make([]models.VarianceResult, 0, len(results))
	for _, r := range results {
		if r.IsSignificant {
			out = append(out, r)
		}
	}
	return out
}

// ByCategory filters results to one account category.
func ByCategory(results []models.VarianceResult, category models.Category) []models.VarianceResult {
	out := make([]models.VarianceResult, 0, len(results))
	for _, r := range results {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// TopByPercent returns the n results with the largest absolute variance
// percentage.
func TopByPercent(results []models.VarianceResult, n int) []models.VarianceResult {
	return top(results, n, func(r models.VarianceResult) float64 { return math.Abs(r.VariancePercent) })
}

// TopByAmount returns the n results with the largest absolute variance
// amount.
func TopByAmount(results []models.VarianceResult, n int) []models.VarianceResult {
	return top(results, n, func(r models.VarianceResult) float64 { return math.Abs(r.VarianceAmount) })
}

func top(results []models.VarianceResult, n int, key func(models.VarianceResult) float64) []models.VarianceResult {
	sorted := make([]models.VarianceResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Recurring filters results to accounts in the mapper's recurring set.
func (a *Analyzer) Recurring(results []models.VarianceResult) []models.VarianceResult {
	out := make([]models.VarianceResult, 0, len(results))
	for _, r := range results {
		if a.mapper.IsRecurring(r.AccountCode) {
			out = append(out, r)
		}
	}
	return out
}

// SummaryStats aggregates a result set for reporting.
type SummaryStats struct {
	TotalAccounts         int     `json:"total_accounts"`
	SignificantVariances  int     `json:"significant_variances"`
	SignificantPercentage float64 `json:"significant_percentage"`
	AvgVariancePercent    float64 `json:"avg_variance_percent"`
	MaxVariancePercent    float64 `json:"max_variance_percent"`
	MinVariancePercent    float64 `json:"min_variance_percent"`
}

// Summarize computes summary statistics over a result set. An empty result
// set yields zero stats.
func Summarize(results []models.VarianceResult) SummaryStats {
	if len(results) == 0 {
		return SummaryStats{}
	}

	stats := SummaryStats{
		TotalAccounts:      len(results),
		MinVariancePercent: math.Abs(results[0].VariancePercent),
	}
	sum := 0.0
	for _, r := range results {
		pct := math.Abs(r.VariancePercent)
		sum += pct
		if pct > stats.MaxVariancePercent {
			stats.MaxVariancePercent = pct
		}
		if pct < stats.MinVariancePercent {
			stats.MinVariancePercent = pct
		}
		if r.IsSignificant {
			stats.SignificantVariances++
		}
	}
	stats.AvgVariancePercent = sum / float64(len(results))
	stats.SignificantPercentage = float64(stats.SignificantVariances) / float64(len(results)) * 100
	return stats
}
