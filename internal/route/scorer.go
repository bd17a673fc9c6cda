package route

import (
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/ggonzalez94/defi-router/internal/registry"
)

// Scorer derives a plan's confidence score and its savings against a
// centralized-exchange reference fee.
type Scorer struct {
	reg *registry.Registry
}

func NewScorer(reg *registry.Registry) *Scorer {
	return &Scorer{reg: reg}
}

// Score fills the plan's ConfidenceScore and SavingsVsReferencePercent.
func (s *Scorer) Score(plan *model.ExecutionPlan) {
	plan.ConfidenceScore = s.confidence(*plan)
	plan.SavingsVsReferencePercent = s.savings(*plan)
}

func (s *Scorer) confidence(plan model.ExecutionPlan) float64 {
	if len(plan.Steps) == 0 {
		return 0
	}
	total := 0.0
	bridges := 0
	establishedBridges := 0
	for _, step := range plan.Steps {
		total += s.stepConfidence(step)
		if step.Type == model.StepTypeBridge {
			bridges++
			if s.reg.IsEstablishedBridge(step.Venue) {
				establishedBridges++
			}
		}
	}
	score := total / float64(len(plan.Steps))
	if bridges > 0 && bridges == establishedBridges {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// stepConfidence is additive out of 100: liquidity up to 40, slippage up to
// 30, venue reputation up to 30.
func (s *Scorer) stepConfidence(step model.ExecutionStep) float64 {
	score := 0.0

	switch {
	case step.LiquidityUSD >= 1_000_000:
		score += 40
	case step.LiquidityUSD >= 500_000:
		score += 30
	case step.LiquidityUSD >= 100_000:
		score += 20
	default:
		score += 10
	}

	switch {
	case step.SlippagePercent < 0.3:
		score += 30
	case step.SlippagePercent < 0.5:
		score += 20
	case step.SlippagePercent < 1.0:
		score += 10
	}

	established := false
	if step.Type == model.StepTypeBridge {
		established = s.reg.IsEstablishedBridge(step.Venue)
	} else {
		established = s.reg.IsEstablishedVenue(step.Venue)
	}
	if established {
		score += 30
	} else {
		score += 15
	}
	return score
}

// savings compares the plan's total cost against amountIn priced at the
// reference fee. Negative when the plan costs more than the reference.
func (s *Scorer) savings(plan model.ExecutionPlan) float64 {
	referenceFee := plan.AmountIn() * s.reg.ReferenceFeePercent() / 100
	if referenceFee <= 0 {
		return 0
	}
	return (referenceFee - plan.TotalCostUSD) / referenceFee * 100
}
