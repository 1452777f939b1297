// Package models defines the shared data model for the variance analysis
// pipeline: financial statement snapshots, analysis results, rule
// definitions, and detected anomalies.
package models

// StatementType identifies which financial statement a line item belongs to.
type StatementType string

const (
	BalanceSheet    StatementType = "balance_sheet"
	IncomeStatement StatementType = "income_statement"
)

// Category is the semantic classification of an account. It is an open set:
// snapshots may carry accounts the mapping does not know, which resolve to
// CategoryUnknown rather than failing.
type Category string

const (
	CategoryInvestmentProperties Category = "investment_properties"
	CategoryConstructionProgress Category = "construction_in_progress"
	CategoryBorrowings           Category = "borrowings"
	CategoryCashDeposits         Category = "cash_deposits"
	CategoryTradeReceivables     Category = "trade_receivables"
	CategoryUnbilledRevenue      Category = "unbilled_revenue"
	CategoryUnearnedRevenue      Category = "unearned_revenue"
	CategoryVATDeductible        Category = "vat_deductible"
	CategoryLending              Category = "lending"
	CategoryRevenue              Category = "revenue"
	CategoryInterestIncome       Category = "interest_income"
	CategoryInterestIncomeSHL    Category = "interest_income_shl"
	CategoryInterestExpense      Category = "interest_expense"
	CategoryDepreciation         Category = "depreciation"
	CategoryOpex                 Category = "opex"
	CategoryStaffCosts           Category = "staff_costs"
	CategoryOtherExpenses        Category = "other_expenses"
	CategoryMaintenanceExpense   Category = "maintenance_expense"
	CategoryAssetDisposal        Category = "asset_disposal"
	CategoryNewLeases            Category = "new_leases"
	CategoryLeaseTermination     Category = "lease_termination"
	CategoryOccupancyRate        Category = "occupancy_rate"
	CategoryFXVolatility         Category = "fx_volatility"
	CategoryFXGainLoss           Category = "fx_gain_loss"
	CategoryUnknown              Category = "unknown"
)

// LineItem is a single account's per-period values within one statement.
// Period ordering is owned by the enclosing Snapshot; values missing for a
// period are treated as 0.0.
type LineItem struct {
	AccountCode   string             `json:"account_code"`
	AccountName   string             `json:"account_name"`
	Category      Category           `json:"category"`
	StatementType StatementType      `json:"statement_type"`
	Values        map[string]float64 `json:"values"`
}

// Value returns the item's value for a period, 0.0 when absent.
func (li LineItem) Value(period string) float64 {
	return li.Values[period]
}

// Snapshot is one run's complete financial dataset: both statements, the
// chronologically ordered period labels shared by all line items, and an
// opaque metadata bag owned by the loader.
type Snapshot struct {
	BalanceSheet    []LineItem     `json:"balance_sheet"`
	IncomeStatement []LineItem     `json:"income_statement"`
	Periods         []string       `json:"periods"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// AllItems returns balance sheet and income statement items combined, in
// snapshot order.
func (s *Snapshot) AllItems() []LineItem {
	combined := make([]LineItem, 0, len(s.BalanceSheet)+len(s.IncomeStatement))
	combined = append(combined, s.BalanceSheet...)
	combined = append(combined, s.IncomeStatement...)
	return combined
}

// CurrentPeriods returns the previous and current period labels, i.e. the
// last two entries of the snapshot's period order. ok is false when fewer
// than two periods exist.
func (s *Snapshot) CurrentPeriods() (previous, current string, ok bool) {
	if len(s.Periods) < 2 {
		return "", "", false
	}
	return s.Periods[len(s.Periods)-2], s.Periods[len(s.Periods)-1], true
}
