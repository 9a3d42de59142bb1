package models

type Status string

const (
	StatusOK      Status = "OK"
	StatusInvalid Status = "INVALID"
)

type RuleInfo struct {
	RuleName string `json:"ruleName"`
}

// ValidationResult is returned by the validate-only endpoint.
type ValidationResult struct {
	Status   Status     `json:"status"`
	RuleHits []RuleInfo `json:"ruleHits"`
}
