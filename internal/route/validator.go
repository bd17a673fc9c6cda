package route

import "github.com/ggonzalez94/defi-router/internal/model"

// IsValid reports whether a plan satisfies every clause of the budget. A
// failing plan is discarded silently; the caller only sees survivors.
func IsValid(plan model.ExecutionPlan, budget model.RiskBudget) bool {
	if plan.EstimatedSlippagePercent > budget.MaxSlippagePercent {
		return false
	}
	if plan.TotalGasUSD > budget.MaxGasCostUSD {
		return false
	}
	if plan.ExecutionTimeSeconds > budget.MaxExecutionTimeSeconds {
		return false
	}
	for _, step := range plan.Steps {
		if !budget.AllowsDomain(step.Domain) || !budget.AllowsDomain(step.DestinationDomain()) {
			return false
		}
		if step.Type == model.StepTypeBridge && !budget.AllowsBridge(step.Venue) {
			return false
		}
	}
	return true
}
