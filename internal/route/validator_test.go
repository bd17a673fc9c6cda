package route

import (
	"testing"

	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
)

func validatorBudget() model.RiskBudget {
	return model.RiskBudget{
		MaxSlippagePercent:      1.0,
		MaxGasCostUSD:           50,
		MaxExecutionTimeSeconds: 600,
		AllowedDomains:          []id.Domain{id.DomainEthereum, id.DomainArbitrum},
		AllowedBridges:          []string{"across"},
	}
}

func validatorPlan() model.ExecutionPlan {
	return model.NewPlan("plan-v", []model.ExecutionStep{
		{
			Type: model.StepTypeSwap, Domain: id.DomainEthereum, ToDomain: id.DomainEthereum,
			Venue: "alpha", FromToken: "WETH", ToToken: "USDC",
			AmountIn: 1000, AmountOut: 997, GasUSD: 10, SlippagePercent: 0.5, DurationSeconds: 30,
		},
		{
			Type: model.StepTypeBridge, Domain: id.DomainEthereum, ToDomain: id.DomainArbitrum,
			Venue: "across", FromToken: "USDC", ToToken: "USDC",
			AmountIn: 997, AmountOut: 996.5, GasUSD: 2, DurationSeconds: 60,
		},
	})
}

func TestIsValid(t *testing.T) {
	if !IsValid(validatorPlan(), validatorBudget()) {
		t.Fatal("baseline plan should satisfy the baseline budget")
	}

	cases := []struct {
		name   string
		mutate func(*model.RiskBudget)
	}{
		{"slippage over cap", func(b *model.RiskBudget) { b.MaxSlippagePercent = 0.4 }},
		{"gas over cap", func(b *model.RiskBudget) { b.MaxGasCostUSD = 11 }},
		{"time over cap", func(b *model.RiskBudget) { b.MaxExecutionTimeSeconds = 89 }},
		{"destination domain not allowed", func(b *model.RiskBudget) { b.AllowedDomains = []id.Domain{id.DomainEthereum} }},
		{"bridge not allowed", func(b *model.RiskBudget) { b.AllowedBridges = []string{"hop"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validatorBudget()
			tc.mutate(&b)
			if IsValid(validatorPlan(), b) {
				t.Fatal("plan should be rejected")
			}
		})
	}
}

func TestIsValidBoundaryValuesPass(t *testing.T) {
	plan := validatorPlan()
	b := validatorBudget()
	// Caps are inclusive.
	b.MaxSlippagePercent = plan.EstimatedSlippagePercent
	b.MaxGasCostUSD = plan.TotalGasUSD
	b.MaxExecutionTimeSeconds = plan.ExecutionTimeSeconds
	if !IsValid(plan, b) {
		t.Fatal("budget caps are inclusive bounds")
	}
}
