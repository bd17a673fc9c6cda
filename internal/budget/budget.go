// Package budget holds per-principal risk budgets: preset defaults, explicit
// overrides, an in-memory cache, and lazy persistence.
package budget

import (
	"fmt"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
)

func ParseRiskLevel(input string) (model.RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "conservative":
		return model.RiskLevelConservative, nil
	case "moderate", "":
		return model.RiskLevelModerate, nil
	case "aggressive":
		return model.RiskLevelAggressive, nil
	default:
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown risk level %q (conservative|moderate|aggressive)", input))
	}
}

// Default returns the preset budget for a risk level. Conservative keeps the
// narrowest domain and bridge sets; aggressive opens everything configured.
func Default(principalID string, level model.RiskLevel) model.RiskBudget {
	base := model.RiskBudget{
		PrincipalID: principalID,
		RiskLevel:   level,
		UpdatedAt:   time.Now().UTC(),
	}
	switch level {
	case model.RiskLevelConservative:
		base.MaxSlippagePercent = 0.5
		base.MaxGasCostUSD = 50
		base.MaxExecutionTimeSeconds = 300
		base.MinLiquidityUSD = 500_000
		base.AllowedDomains = []id.Domain{id.DomainEthereum, id.DomainArbitrum}
		base.AllowedBridges = []string{"across"}
	case model.RiskLevelAggressive:
		base.MaxSlippagePercent = 2.0
		base.MaxGasCostUSD = 200
		base.MaxExecutionTimeSeconds = 1800
		base.MinLiquidityUSD = 10_000
		base.AllowedDomains = id.AllDomains()
		base.AllowedBridges = []string{"across", "hop", "stargate", "wormhole"}
	default: // moderate
		base.RiskLevel = model.RiskLevelModerate
		base.MaxSlippagePercent = 1.0
		base.MaxGasCostUSD = 100
		base.MaxExecutionTimeSeconds = 600
		base.MinLiquidityUSD = 100_000
		base.AllowedDomains = []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainBase}
		base.AllowedBridges = []string{"across", "hop", "stargate"}
	}
	return base
}

// merge lays the supplied overrides over the preset selected by the patch's
// risk level (moderate when absent).
func merge(principalID string, patch model.BudgetPatch) model.RiskBudget {
	level := model.RiskLevelModerate
	if patch.RiskLevel != nil {
		level = *patch.RiskLevel
	}
	merged := Default(principalID, level)
	if patch.MaxSlippagePercent != nil {
		merged.MaxSlippagePercent = *patch.MaxSlippagePercent
	}
	if patch.MaxGasCostUSD != nil {
		merged.MaxGasCostUSD = *patch.MaxGasCostUSD
	}
	if patch.MaxExecutionTimeSeconds != nil {
		merged.MaxExecutionTimeSeconds = *patch.MaxExecutionTimeSeconds
	}
	if len(patch.AllowedDomains) > 0 {
		merged.AllowedDomains = append([]id.Domain(nil), patch.AllowedDomains...)
	}
	if len(patch.AllowedBridges) > 0 {
		merged.AllowedBridges = append([]string(nil), patch.AllowedBridges...)
	}
	if patch.MinLiquidityUSD != nil {
		merged.MinLiquidityUSD = *patch.MinLiquidityUSD
	}
	merged.UpdatedAt = time.Now().UTC()
	return merged
}

// Validate rejects budgets no plan could ever satisfy.
func Validate(b model.RiskBudget) error {
	if b.MaxSlippagePercent < 0 {
		return clierr.New(clierr.CodeUsage, "max slippage percent must be non-negative")
	}
	if len(b.AllowedDomains) == 0 {
		return clierr.New(clierr.CodeUsage, "allowed domains must not be empty")
	}
	if len(b.AllowedBridges) == 0 {
		return clierr.New(clierr.CodeUsage, "allowed bridges must not be empty")
	}
	return nil
}
