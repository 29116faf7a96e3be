package domain

import "time"

// Alert is a materialized finding. Alerts with a RuleCode are owned by the
// rule engine and replaced on every rebuild; the rest were created by hand.
type Alert struct {
	ID        string
	WorkID    string
	Message   string
	Severity  Severity
	Type      AlertType
	RuleCode  string
	Active    bool
	CreatedAt time.Time
}

func (a *Alert) IsRuleGenerated() bool {
	return a.RuleCode != ""
}
