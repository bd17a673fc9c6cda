package app

import (
	"encoding/json"
	"fmt"
	"os"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/execution"
	"github.com/ggonzalez94/defi-router/internal/execution/evm"
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/spf13/cobra"
)

func (s *runtimeState) addRouteCommands(root *cobra.Command) {
	routeCmd := &cobra.Command{
		Use:   "route",
		Short: "Find and execute cross-venue routes",
	}

	var (
		fromDomain string
		toDomain   string
		fromToken  string
		toToken    string
		amount     float64
		principal  string
		limit      int
	)
	findCmd := &cobra.Command{
		Use:   "find",
		Short: "Rank execution plans for a conversion request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRouteRequest(fromDomain, toDomain, fromToken, toToken, amount, principal)
			if err != nil {
				return err
			}

			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			plans, err := s.router.FindOptimalPath(ctx, req)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				s.lastWarnings = append(s.lastWarnings, "no plan satisfies the principal's risk budget")
			}
			if limit > 0 && len(plans) > limit {
				plans = plans[:limit]
			}
			return s.emitSuccess(map[string]any{
				"request": req,
				"plans":   plans,
			})
		},
	}
	findCmd.Flags().StringVar(&fromDomain, "from-domain", "", "Source domain (required)")
	findCmd.Flags().StringVar(&toDomain, "to-domain", "", "Destination domain (required)")
	findCmd.Flags().StringVar(&fromToken, "from", "", "Token to convert from (required)")
	findCmd.Flags().StringVar(&toToken, "to", "", "Token to convert to (required)")
	findCmd.Flags().Float64Var(&amount, "amount", 0, "Input amount in token units (required)")
	findCmd.Flags().StringVar(&principal, "principal", "", "Principal identifier (required)")
	findCmd.Flags().IntVar(&limit, "limit", 0, "Return at most N plans (0 = all)")
	for _, name := range []string{"from-domain", "to-domain", "from", "to", "amount", "principal"} {
		_ = findCmd.MarkFlagRequired(name)
	}

	var (
		planFile      string
		execPrincipal string
		live          bool
		signerKeyHex  string
	)
	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute a previously selected plan step by step",
		Long: "Executes the plan's steps sequentially, stopping at the first failure. " +
			"Without --live the steps are dispatched to a deterministic dry-run collaborator.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := loadPlanFile(planFile)
			if err != nil {
				return err
			}
			if err := s.ensureRecordStore(); err != nil {
				return err
			}

			collab, err := s.buildCollaborator(live, signerKeyHex)
			if err != nil {
				return err
			}
			executor := execution.NewExecutor(collab, s.recordStore, s.logger)

			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			result := executor.ExecutePlan(ctx, plan, execPrincipal)
			if !result.Success {
				s.lastWarnings = append(s.lastWarnings, "plan stopped before completion; completed steps are not rolled back")
			}
			return s.emitSuccess(result)
		},
	}
	executeCmd.Flags().StringVar(&planFile, "plan-file", "", "Path to a plan JSON produced by route find (required)")
	executeCmd.Flags().StringVar(&execPrincipal, "principal", "", "Principal identifier (required)")
	executeCmd.Flags().BoolVar(&live, "live", false, "Submit real transactions instead of dry-run handles")
	executeCmd.Flags().StringVar(&signerKeyHex, "signer-key", "", "Hex private key for --live (falls back to DEFI_ROUTER_PRIVATE_KEY)")
	_ = executeCmd.MarkFlagRequired("plan-file")
	_ = executeCmd.MarkFlagRequired("principal")

	var (
		apprDomain    string
		apprToken     string
		apprVenue     string
		apprAmount    float64
		apprPrincipal string
		apprLive      bool
		apprSignerKey string
	)
	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Grant a venue's contract allowance to spend a token",
		Long: "Dispatches a single ERC-20 approval for the contract that will pull the funds. " +
			"Run it before route execute --live when the spender holds no allowance yet.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			step, err := s.buildApprovalStep(apprDomain, apprToken, apprVenue, apprAmount)
			if err != nil {
				return err
			}
			if err := s.ensureRecordStore(); err != nil {
				return err
			}
			collab, err := s.buildCollaborator(apprLive, apprSignerKey)
			if err != nil {
				return err
			}
			executor := execution.NewExecutor(collab, s.recordStore, s.logger)

			ctx, cancel := s.commandContext(cmd)
			defer cancel()
			plan := model.NewPlan(newID("plan-approve"), []model.ExecutionStep{step})
			result := executor.ExecutePlan(ctx, plan, apprPrincipal)
			if !result.Success {
				s.lastWarnings = append(s.lastWarnings, "approval was not confirmed")
			}
			return s.emitSuccess(result)
		},
	}
	approveCmd.Flags().StringVar(&apprDomain, "domain", "", "Domain of the token deployment (required)")
	approveCmd.Flags().StringVar(&apprToken, "token", "", "Token to approve (required)")
	approveCmd.Flags().StringVar(&apprVenue, "venue", "", "Venue whose contract receives the allowance (required)")
	approveCmd.Flags().Float64Var(&apprAmount, "amount", 0, "Allowance in token units (required)")
	approveCmd.Flags().StringVar(&apprPrincipal, "principal", "", "Principal identifier (required)")
	approveCmd.Flags().BoolVar(&apprLive, "live", false, "Submit a real transaction instead of a dry-run handle")
	approveCmd.Flags().StringVar(&apprSignerKey, "signer-key", "", "Hex private key for --live (falls back to DEFI_ROUTER_PRIVATE_KEY)")
	for _, name := range []string{"domain", "token", "venue", "amount", "principal"} {
		_ = approveCmd.MarkFlagRequired(name)
	}

	routeCmd.AddCommand(findCmd, executeCmd, approveCmd)
	root.AddCommand(routeCmd)
}

func (s *runtimeState) buildApprovalStep(domainArg, tokenArg, venue string, amount float64) (model.ExecutionStep, error) {
	domain, err := id.ParseDomain(domainArg)
	if err != nil {
		return model.ExecutionStep{}, err
	}
	token, err := id.ParseToken(tokenArg)
	if err != nil {
		return model.ExecutionStep{}, err
	}
	if amount <= 0 {
		return model.ExecutionStep{}, clierr.New(clierr.CodeUsage, "approval amount must be positive")
	}
	if _, ok := s.registry.SwapVenue(venue); !ok {
		if _, ok := s.registry.BridgeVenue(venue); !ok {
			return model.ExecutionStep{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown venue %q", venue))
		}
	}
	return model.ExecutionStep{
		Type:      model.StepTypeApproval,
		Domain:    domain,
		ToDomain:  domain,
		Venue:     venue,
		FromToken: token,
		ToToken:   token,
		AmountIn:  amount,
		AmountOut: amount,
	}, nil
}

func (s *runtimeState) buildCollaborator(live bool, signerKeyHex string) (execution.Collaborator, error) {
	if !live {
		return execution.NewDryRun(), nil
	}
	var (
		signer *evm.LocalSigner
		err    error
	)
	if signerKeyHex != "" {
		signer, err = evm.NewLocalSignerFromHex(signerKeyHex)
	} else {
		signer, err = evm.NewLocalSignerFromEnv()
	}
	if err != nil {
		return nil, err
	}
	return evm.New(s.registry, signer, evm.DefaultOptions(), s.logger), nil
}

func buildRouteRequest(fromDomain, toDomain, fromToken, toToken string, amount float64, principal string) (model.RouteRequest, error) {
	from, err := id.ParseDomain(fromDomain)
	if err != nil {
		return model.RouteRequest{}, err
	}
	to, err := id.ParseDomain(toDomain)
	if err != nil {
		return model.RouteRequest{}, err
	}
	fromTok, err := id.ParseToken(fromToken)
	if err != nil {
		return model.RouteRequest{}, err
	}
	toTok, err := id.ParseToken(toToken)
	if err != nil {
		return model.RouteRequest{}, err
	}
	return model.RouteRequest{
		FromDomain:  from,
		ToDomain:    to,
		FromToken:   fromTok,
		ToToken:     toTok,
		AmountIn:    amount,
		PrincipalID: principal,
	}, nil
}

func loadPlanFile(path string) (model.ExecutionPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.ExecutionPlan{}, clierr.Wrap(clierr.CodeUsage, "read plan file", err)
	}
	var plan model.ExecutionPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return model.ExecutionPlan{}, clierr.Wrap(clierr.CodeUsage, "parse plan file", err)
	}
	if plan.PlanID == "" || len(plan.Steps) == 0 {
		return model.ExecutionPlan{}, clierr.New(clierr.CodeUsage, "plan file has no id or steps")
	}
	return plan, nil
}
