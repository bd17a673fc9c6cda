package app

import (
	"strings"

	"github.com/ggonzalez94/defi-router/internal/budget"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/spf13/cobra"
)

func (s *runtimeState) addBudgetCommands(root *cobra.Command) {
	budgetCmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage per-principal risk budgets",
	}

	var getPrincipal string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the effective risk budget for a principal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			return s.emitSuccess(s.router.GetRiskBudget(ctx, getPrincipal))
		},
	}
	getCmd.Flags().StringVar(&getPrincipal, "principal", "", "Principal identifier (required)")
	_ = getCmd.MarkFlagRequired("principal")

	var (
		setPrincipal string
		riskLevel    string
		maxSlippage  float64
		maxGas       float64
		maxTime      int64
		minLiquidity float64
		domains      []string
		bridges      []string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set or update a principal risk budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch model.BudgetPatch
			if cmd.Flags().Changed("risk-level") || riskLevel != "" {
				level, err := budget.ParseRiskLevel(riskLevel)
				if err != nil {
					return err
				}
				patch.RiskLevel = &level
			}
			if cmd.Flags().Changed("max-slippage") {
				patch.MaxSlippagePercent = &maxSlippage
			}
			if cmd.Flags().Changed("max-gas") {
				patch.MaxGasCostUSD = &maxGas
			}
			if cmd.Flags().Changed("max-time") {
				patch.MaxExecutionTimeSeconds = &maxTime
			}
			if cmd.Flags().Changed("min-liquidity") {
				patch.MinLiquidityUSD = &minLiquidity
			}
			if cmd.Flags().Changed("domains") {
				parsed, err := parseDomainList(domains)
				if err != nil {
					return err
				}
				patch.AllowedDomains = parsed
			}
			if cmd.Flags().Changed("bridges") {
				cleaned := cleanList(bridges)
				patch.AllowedBridges = cleaned
			}

			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			b, err := s.router.SetRiskBudget(ctx, setPrincipal, patch)
			if err != nil {
				return err
			}
			return s.emitSuccess(b)
		},
	}
	setCmd.Flags().StringVar(&setPrincipal, "principal", "", "Principal identifier (required)")
	setCmd.Flags().StringVar(&riskLevel, "risk-level", "moderate", "Risk preset: conservative|moderate|aggressive")
	setCmd.Flags().Float64Var(&maxSlippage, "max-slippage", 0, "Maximum acceptable slippage percent")
	setCmd.Flags().Float64Var(&maxGas, "max-gas", 0, "Maximum total gas cost in USD")
	setCmd.Flags().Int64Var(&maxTime, "max-time", 0, "Maximum execution time in seconds")
	setCmd.Flags().Float64Var(&minLiquidity, "min-liquidity", 0, "Minimum venue liquidity in USD")
	setCmd.Flags().StringSliceVar(&domains, "domains", nil, "Allowed execution domains")
	setCmd.Flags().StringSliceVar(&bridges, "bridges", nil, "Allowed bridge venues")
	_ = setCmd.MarkFlagRequired("principal")

	budgetCmd.AddCommand(getCmd, setCmd)
	root.AddCommand(budgetCmd)
}

func parseDomainList(raw []string) ([]id.Domain, error) {
	cleaned := cleanList(raw)
	if len(cleaned) == 0 {
		return nil, clierr.New(clierr.CodeUsage, "at least one domain is required")
	}
	parsed := make([]id.Domain, 0, len(cleaned))
	for _, item := range cleaned {
		domain, err := id.ParseDomain(item)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, domain)
	}
	return parsed, nil
}

func cleanList(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}
