package config

// Coded defaults used when the config file omits the corresponding section.
// They describe a leasing/property portfolio chart of accounts and the 13
// standard correlation rules.

// DefaultCategoryThresholds returns the default per-category variance
// thresholds (percent). Categories not listed use the global default.
func DefaultCategoryThresholds() map[string]float64 {
	return map[string]float64{
		"opex":             10.0,
		"staff_costs":      10.0,
		"other_expenses":   10.0,
		"borrowings":       2.0,
		"depreciation":     5.0,
		"revenue":          5.0,
		"interest_expense": 5.0,
		"interest_income":  5.0,
	}
}

// DefaultCorrelationRules returns the 13 standard correlation rules.
func DefaultCorrelationRules() []RuleConfig {
	return []RuleConfig{
		{
			ID:                 1,
			Name:               "Investment Properties vs Depreciation",
			PrimaryCategories:  []string{"investment_properties"},
			CorrelatedCategory: "depreciation",
			Relationship:       "positive",
			Description:        "As Investment Properties increase, Depreciation should increase proportionally",
		},
		{
			ID:                 2,
			Name:               "Loan Balance vs Interest Expenses",
			PrimaryCategories:  []string{"borrowings"},
			CorrelatedCategory: "interest_expense",
			Relationship:       "positive",
			Description:        "Higher loan balance should lead to higher interest costs",
		},
		{
			ID:                 3,
			Name:               "Cash Deposits vs Bank Interest Income",
			PrimaryCategories:  []string{"cash_deposits"},
			CorrelatedCategory: "interest_income",
			Relationship:       "positive",
			Description:        "More cash in bank should earn more interest income",
		},
		{
			ID:                 4,
			Name:               "Trade Receivables vs Quarterly Billing",
			PrimaryCategories:  []string{"trade_receivables"},
			CorrelatedCategory: "revenue",
			Relationship:       "quarterly_cycle",
			Description:        "Receivables spike at start of quarter due to quarterly billing",
		},
		{
			ID:                 5,
			Name:               "Unbilled Revenue vs Quarter Timing",
			PrimaryCategories:  []string{"unbilled_revenue"},
			CorrelatedCategory: "revenue",
			Relationship:       "quarterly_cycle",
			Description:        "Unbilled revenue peaks at quarter-end due to straight-lining",
		},
		{
			ID:                 6,
			Name:               "Unearned Revenue vs Advance Collection",
			PrimaryCategories:  []string{"unearned_revenue"},
			CorrelatedCategory: "revenue",
			Relationship:       "quarterly_cycle",
			Description:        "Unearned revenue increases at start of quarter from advance collection",
		},
		{
			ID:                 7,
			Name:               "Construction in Progress + IP vs VAT Deductible",
			PrimaryCategories:  []string{"construction_in_progress", "investment_properties"},
			CorrelatedCategory: "vat_deductible",
			Relationship:       "positive",
			Description:        "Capital expenditures increase deductible VAT",
		},
		{
			ID:                 8,
			Name:               "Occupancy Rate vs Revenue",
			PrimaryCategories:  []string{"occupancy_rate"},
			CorrelatedCategory: "revenue",
			Relationship:       "positive",
			Description:        "Higher occupancy should lead to more rental income",
		},
		{
			ID:                 9,
			Name:               "Maintenance Expenses vs OPEX",
			PrimaryCategories:  []string{"maintenance_expense"},
			CorrelatedCategory: "opex",
			Relationship:       "positive",
			Description:        "Maintenance spikes drive up operating expenses",
		},
		{
			ID:                 10,
			Name:               "Asset Disposal vs Depreciation",
			PrimaryCategories:  []string{"asset_disposal"},
			CorrelatedCategory: "depreciation",
			Relationship:       "negative",
			Description:        "Disposal of assets should reduce depreciation base",
		},
		{
			ID:                 11,
			Name:               "New Lease Contracts vs Revenue",
			PrimaryCategories:  []string{"new_leases"},
			CorrelatedCategory: "revenue",
			Relationship:       "positive",
			Description:        "New tenants should increase rental income",
		},
		{
			ID:                 12,
			Name:               "Lease Termination vs Revenue",
			PrimaryCategories:  []string{"lease_termination"},
			CorrelatedCategory: "revenue",
			Relationship:       "negative",
			Description:        "Terminations should reduce rental income",
		},
		{
			ID:                 13,
			Name:               "FX Rate Changes vs FX Gain/Loss",
			PrimaryCategories:  []string{"fx_volatility"},
			CorrelatedCategory: "fx_gain_loss",
			Relationship:       "conditional",
			Description:        "Currency fluctuations should reflect in FX gains/losses",
		},
	}
}

// DefaultAccounts returns the default chart-of-accounts mapping.
func DefaultAccounts() []AccountConfig {
	return []AccountConfig{
		// Balance sheet — assets
		{Code: "217000001", Name: "Investment Properties: Land Use Rights", Category: "investment_properties", Statement: "balance_sheet"},
		{Code: "217000006", Name: "Investment Properties: Office Building", Category: "investment_properties", Statement: "balance_sheet"},
		{Code: "112227001", Name: "ACB: Current Account USD - HCM", Category: "cash_deposits", Statement: "balance_sheet"},
		{Code: "112227002", Name: "ACB: Current Account USD - HCM 2", Category: "cash_deposits", Statement: "balance_sheet"},
		{Code: "131100001", Name: "Trade Receivable: Tenant", Category: "trade_receivables", Statement: "balance_sheet", Cyclical: true},
		{Code: "138900003", Name: "Unbilled Revenue Receivables", Category: "unbilled_revenue", Statement: "balance_sheet", Cyclical: true},
		{Code: "133100001", Name: "VAT Deductible", Category: "vat_deductible", Statement: "balance_sheet"},
		{Code: "138820000", Name: "LT: Other Receivables: Subsidiaries/Parents - SHL", Category: "lending", Statement: "balance_sheet"},
		{Code: "138821001", Name: "LT: Other Receivables: Subsidiaries/Parents - SHL 2", Category: "lending", Statement: "balance_sheet"},

		// Balance sheet — liabilities
		{Code: "341160000", Name: "LT: Borrowings: Subsidiaries/Parents", Category: "borrowings", Statement: "balance_sheet"},
		{Code: "341160001", Name: "LT: Borrowings: Subsidiaries/Parents 2", Category: "borrowings", Statement: "balance_sheet"},
		{Code: "213100001", Name: "Unearned Revenue", Category: "unearned_revenue", Statement: "balance_sheet", Cyclical: true},

		// Income statement — revenue
		{Code: "511100001", Name: "Rental Revenue", Category: "revenue", Statement: "income_statement", Recurring: true},
		{Code: "511100002", Name: "Service Revenue", Category: "revenue", Statement: "income_statement", Recurring: true},
		{Code: "515100001", Name: "Financial Income: Interest", Category: "interest_income", Statement: "income_statement", Recurring: true},
		{Code: "515600000", Name: "Financial Income: BCC Interest", Category: "interest_income_shl", Statement: "income_statement", Recurring: true},

		// Income statement — expenses
		{Code: "632100001", Name: "Expense Amortization: Land Use Rights", Category: "depreciation", Statement: "income_statement", Recurring: true},
		{Code: "632100002", Name: "Expense Amortization: Building", Category: "depreciation", Statement: "income_statement", Recurring: true},
		{Code: "635000005", Name: "Financial Expenses: Loan Interest - Parent/Subsi", Category: "interest_expense", Statement: "income_statement", Recurring: true},
		{Code: "635000006", Name: "Financial Expenses: Loan Interest - Bank", Category: "interest_expense", Statement: "income_statement", Recurring: true},
		{Code: "622000001", Name: "Operating Expenses: Insurance", Category: "opex", Statement: "income_statement", Recurring: true},
		{Code: "622000002", Name: "Operating Expenses: Utilities", Category: "opex", Statement: "income_statement", Recurring: true},
		{Code: "622000003", Name: "Operating Expenses: R&M", Category: "opex", Statement: "income_statement", Recurring: true},
		{Code: "641100001", Name: "FX Gain/Loss", Category: "fx_gain_loss", Statement: "income_statement"},
	}
}
