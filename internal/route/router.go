package route

import (
	"context"
	"sort"

	"github.com/ggonzalez94/defi-router/internal/budget"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/model"
	"go.uber.org/zap"
)

// Router is the orchestrating façade: budget load, candidate generation,
// validation, scoring, ranking.
type Router struct {
	budgets *budget.Store
	gen     *Generator
	scorer  *Scorer
	log     *zap.Logger
}

func NewRouter(budgets *budget.Store, gen *Generator, scorer *Scorer, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{budgets: budgets, gen: gen, scorer: scorer, log: logger}
}

// SetRiskBudget merges the patch over its risk-level preset and stores it.
func (r *Router) SetRiskBudget(ctx context.Context, principalID string, patch model.BudgetPatch) (model.RiskBudget, error) {
	if principalID == "" {
		return model.RiskBudget{}, clierr.New(clierr.CodeUsage, "principal id is required")
	}
	return r.budgets.SetBudget(ctx, principalID, patch)
}

// GetRiskBudget never fails; absence of a stored budget yields the moderate
// preset.
func (r *Router) GetRiskBudget(ctx context.Context, principalID string) model.RiskBudget {
	return r.budgets.GetBudget(ctx, principalID)
}

// FindOptimalPath returns every plan that satisfies the principal's budget,
// sorted by ascending total cost with confidence descending as tie break.
// An empty slice is a valid outcome: no plan satisfies the budget.
func (r *Router) FindOptimalPath(ctx context.Context, req model.RouteRequest) ([]model.ExecutionPlan, error) {
	if req.PrincipalID == "" {
		return nil, clierr.New(clierr.CodeUsage, "principal id is required")
	}
	if req.AmountIn <= 0 {
		return nil, clierr.New(clierr.CodeUsage, "amount must be positive")
	}
	if req.FromToken == "" || req.ToToken == "" {
		return nil, clierr.New(clierr.CodeUsage, "from and to tokens are required")
	}
	if req.FromDomain == req.ToDomain && req.FromToken == req.ToToken {
		return nil, clierr.New(clierr.CodeUsage, "request converts a token to itself")
	}

	riskBudget := r.budgets.GetBudget(ctx, req.PrincipalID)

	candidates, err := r.gen.Generate(ctx, req, riskBudget)
	if err != nil {
		return nil, err
	}

	valid := candidates[:0]
	for _, plan := range candidates {
		if IsValid(plan, riskBudget) {
			plan.RiskLevel = riskBudget.RiskLevel
			r.scorer.Score(&plan)
			valid = append(valid, plan)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].TotalCostUSD != valid[j].TotalCostUSD {
			return valid[i].TotalCostUSD < valid[j].TotalCostUSD
		}
		return valid[i].ConfidenceScore > valid[j].ConfidenceScore
	})

	r.log.Info("routing request resolved",
		zap.String("principal_id", req.PrincipalID),
		zap.String("from_domain", req.FromDomain.String()),
		zap.String("to_domain", req.ToDomain.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("valid", len(valid)))
	return valid, nil
}
