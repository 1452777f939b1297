package models

// AnomalyType identifies which detection pass produced an anomaly.
type AnomalyType string

const (
	AnomalyVariance          AnomalyType = "variance"
	AnomalyCorrelation       AnomalyType = "correlation_violation"
	AnomalySignChange        AnomalyType = "sign_change"
	AnomalyRecurringSpike    AnomalyType = "recurring_spike"
	AnomalyQuarterlyPattern  AnomalyType = "quarterly_pattern"
)

// Severity is the review priority of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the numeric ordering for prioritization: critical=4 down to
// low=1. Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RuleCategory is the taxonomy tag of a registry rule.
type RuleCategory string

const (
	RuleVarianceThreshold    RuleCategory = "variance_threshold"
	RuleCorrelationViolation RuleCategory = "correlation_violation"
	RuleSignChange           RuleCategory = "sign_change"
	RuleRecurringAccount     RuleCategory = "recurring_account"
	RuleQuarterlyPattern     RuleCategory = "quarterly_pattern"
	RuleMateriality          RuleCategory = "materiality"
)

// RuleViolation is a static registry entry describing one named rule.
// Entries are immutable for the process lifetime.
type RuleViolation struct {
	RuleID         string       `json:"rule_id"`
	RuleName       string       `json:"rule_name"`
	Category       RuleCategory `json:"category"`
	Description    string       `json:"description"`
	ThresholdValue float64      `json:"threshold_value,omitempty"`
	SeverityImpact string       `json:"severity_impact,omitempty"`
}

// Anomaly is the final output unit of the detection pipeline. IDs are
// deterministic over (account code, period, detection type) so re-running
// on the same input reproduces the same list byte for byte. Anomalies are
// created only by the detector and consumed read-only by reporting.
type Anomaly struct {
	ID                       string      `json:"id"`
	Type                     AnomalyType `json:"type"`
	Severity                 Severity    `json:"severity"`
	AccountCode              string      `json:"account_code"`
	AccountName              string      `json:"account_name"`
	Category                 Category    `json:"category"`
	Description              string      `json:"description"`
	CurrentValue             float64     `json:"current_value"`
	PreviousValue            *float64    `json:"previous_value,omitempty"`
	VariancePercent          *float64    `json:"variance_percent,omitempty"`
	RuleViolationID          string      `json:"rule_violation_id"`
	RuleViolationName        string      `json:"rule_violation_name"`
	RuleViolationDescription string      `json:"rule_violation_description"`
	RecommendedAction        string      `json:"recommended_action"`
	LogicTrigger             string      `json:"logic_trigger"`
	Period                   string      `json:"period"`
}
