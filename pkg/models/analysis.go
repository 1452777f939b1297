package models

// VarianceResult is the period-over-period variance for one account.
// Created once per account per run and never mutated afterwards.
type VarianceResult struct {
	AccountCode     string        `json:"account_code"`
	AccountName     string        `json:"account_name"`
	Category        Category      `json:"category"`
	StatementType   StatementType `json:"statement_type"`
	CurrentValue    float64       `json:"current_value"`
	PreviousValue   float64       `json:"previous_value"`
	VarianceAmount  float64       `json:"variance_amount"`
	VariancePercent float64       `json:"variance_percent"`
	IsSignificant   bool          `json:"is_significant"`
	PeriodFrom      string        `json:"period_from"`
	PeriodTo        string        `json:"period_to"`
}

// RelationshipType describes how two account categories are expected to
// move relative to each other.
type RelationshipType string

const (
	RelationshipPositive       RelationshipType = "positive"
	RelationshipNegative       RelationshipType = "negative"
	RelationshipQuarterlyCycle RelationshipType = "quarterly_cycle"
	RelationshipConditional    RelationshipType = "conditional"
)

// CorrelationRule is a declarative expectation that accounts of the primary
// categories move in a given relationship with accounts of the correlated
// category. PrimaryCategories is always a non-empty ordered set; a rule
// configured with a single category is a one-element set.
type CorrelationRule struct {
	ID                 int              `json:"id"`
	Name               string           `json:"name"`
	PrimaryCategories  []Category       `json:"primary_categories"`
	CorrelatedCategory Category         `json:"correlated_category"`
	Relationship       RelationshipType `json:"relationship"`
	Description        string           `json:"description"`
	Enabled            bool             `json:"enabled"`
}

// CorrelationResult records the evaluation of one rule against one
// (primary, correlated) account pair.
type CorrelationResult struct {
	RuleID               int              `json:"rule_id"`
	RuleName             string           `json:"rule_name"`
	PrimaryAccount       string           `json:"primary_account"`
	CorrelatedAccount    string           `json:"correlated_account"`
	PrimaryVariance      float64          `json:"primary_variance"`
	CorrelatedVariance   float64          `json:"correlated_variance"`
	ExpectedRelationship RelationshipType `json:"expected_relationship"`
	IsViolation          bool             `json:"is_violation"`
	ViolationDescription string           `json:"violation_description"`
	Severity             Severity         `json:"severity"`
}
