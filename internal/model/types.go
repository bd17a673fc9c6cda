package model

import (
	"fmt"
	"time"

	"github.com/ggonzalez94/defi-router/internal/id"
)

// RiskLevel selects one of the built-in budget presets.
type RiskLevel string

const (
	RiskLevelConservative RiskLevel = "conservative"
	RiskLevelModerate     RiskLevel = "moderate"
	RiskLevelAggressive   RiskLevel = "aggressive"
)

// RiskBudget holds the per-principal limits a generated plan must satisfy.
type RiskBudget struct {
	PrincipalID             string      `json:"principal_id"`
	RiskLevel               RiskLevel   `json:"risk_level"`
	MaxSlippagePercent      float64     `json:"max_slippage_percent"`
	MaxGasCostUSD           float64     `json:"max_gas_cost_usd"`
	MaxExecutionTimeSeconds int64       `json:"max_execution_time_seconds"`
	AllowedDomains          []id.Domain `json:"allowed_domains"`
	AllowedBridges          []string    `json:"allowed_bridges"`
	MinLiquidityUSD         float64     `json:"min_liquidity_usd"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// AllowsDomain reports whether the budget permits touching the given domain.
func (b RiskBudget) AllowsDomain(domain id.Domain) bool {
	for _, allowed := range b.AllowedDomains {
		if allowed == domain {
			return true
		}
	}
	return false
}

// AllowsBridge reports whether the budget permits the given bridge venue.
func (b RiskBudget) AllowsBridge(venue string) bool {
	for _, allowed := range b.AllowedBridges {
		if allowed == venue {
			return true
		}
	}
	return false
}

// BudgetPatch carries the fields a principal wants to override. Nil fields
// fall through to the preset selected by RiskLevel.
type BudgetPatch struct {
	RiskLevel               *RiskLevel  `json:"risk_level,omitempty"`
	MaxSlippagePercent      *float64    `json:"max_slippage_percent,omitempty"`
	MaxGasCostUSD           *float64    `json:"max_gas_cost_usd,omitempty"`
	MaxExecutionTimeSeconds *int64      `json:"max_execution_time_seconds,omitempty"`
	AllowedDomains          []id.Domain `json:"allowed_domains,omitempty"`
	AllowedBridges          []string    `json:"allowed_bridges,omitempty"`
	MinLiquidityUSD         *float64    `json:"min_liquidity_usd,omitempty"`
}

// Quote is the ephemeral result of pricing an input amount at one venue.
// LiquidityUSD is populated for swap quotes, DurationSeconds for bridges.
type Quote struct {
	Venue           string  `json:"venue"`
	AmountOut       float64 `json:"amount_out"`
	FeeUSD          float64 `json:"fee_usd"`
	GasUSD          float64 `json:"gas_usd"`
	SlippagePercent float64 `json:"slippage_percent"`
	LiquidityUSD    float64 `json:"liquidity_usd,omitempty"`
	DurationSeconds int64   `json:"duration_seconds,omitempty"`
}

type StepType string

const (
	StepTypeSwap     StepType = "swap"
	StepTypeBridge   StepType = "bridge"
	StepTypeApproval StepType = "approval"
)

// ExecutionStep is one atomic action within a plan. For bridge steps Domain
// is the source and ToDomain the destination; for the other step types the
// two are equal.
type ExecutionStep struct {
	Type            StepType  `json:"type"`
	Domain          id.Domain `json:"domain"`
	ToDomain        id.Domain `json:"to_domain"`
	Venue           string    `json:"venue"`
	FromToken       id.Token  `json:"from_token"`
	ToToken         id.Token  `json:"to_token"`
	AmountIn        float64   `json:"amount_in"`
	AmountOut       float64   `json:"amount_out"`
	FeeUSD          float64   `json:"fee_usd"`
	GasUSD          float64   `json:"gas_usd"`
	SlippagePercent float64   `json:"slippage_percent"`
	DurationSeconds int64     `json:"duration_seconds"`
	LiquidityUSD    float64   `json:"liquidity_usd,omitempty"`
}

// DestinationDomain is where funds sit once the step settles.
func (s ExecutionStep) DestinationDomain() id.Domain {
	if s.Type == StepTypeBridge && s.ToDomain != "" {
		return s.ToDomain
	}
	return s.Domain
}

// ExecutionPlan is an ordered, immutable sequence of steps plus aggregates
// derived at construction time.
type ExecutionPlan struct {
	PlanID                    string          `json:"plan_id"`
	Steps                     []ExecutionStep `json:"steps"`
	TotalCostUSD              float64         `json:"total_cost_usd"`
	TotalGasUSD               float64         `json:"total_gas_usd"`
	EstimatedSlippagePercent  float64         `json:"estimated_slippage_percent"`
	ExecutionTimeSeconds      int64           `json:"execution_time_seconds"`
	ConfidenceScore           float64         `json:"confidence_score"`
	RiskLevel                 RiskLevel       `json:"risk_level,omitempty"`
	SavingsVsReferencePercent float64         `json:"savings_vs_reference_percent"`
	CreatedAt                 time.Time       `json:"created_at"`
}

// AmountIn is the plan's initial input amount.
func (p ExecutionPlan) AmountIn() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[0].AmountIn
}

// AmountOut is the plan's final output amount.
func (p ExecutionPlan) AmountOut() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].AmountOut
}

// NewPlan assembles a plan from ordered steps and derives its aggregates.
// It panics if the steps do not chain token, amount, and domain exactly: a
// broken chain means the generator miscomputed a funds flow, which must
// never be tolerated silently.
func NewPlan(planID string, steps []ExecutionStep) ExecutionPlan {
	if len(steps) == 0 {
		panic("model: plan requires at least one step")
	}
	for i := 0; i < len(steps)-1; i++ {
		cur, next := steps[i], steps[i+1]
		if cur.ToToken != next.FromToken {
			panic(fmt.Sprintf("model: step %d emits %s but step %d consumes %s", i, cur.ToToken, i+1, next.FromToken))
		}
		if cur.AmountOut != next.AmountIn {
			panic(fmt.Sprintf("model: step %d emits %.8f but step %d consumes %.8f", i, cur.AmountOut, i+1, next.AmountIn))
		}
		if cur.DestinationDomain() != next.Domain {
			panic(fmt.Sprintf("model: step %d settles on %s but step %d runs on %s", i, cur.DestinationDomain(), i+1, next.Domain))
		}
	}
	plan := ExecutionPlan{
		PlanID:    planID,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}
	for _, step := range steps {
		plan.TotalCostUSD += step.FeeUSD + step.GasUSD
		plan.TotalGasUSD += step.GasUSD
		plan.ExecutionTimeSeconds += step.DurationSeconds
		if step.SlippagePercent > plan.EstimatedSlippagePercent {
			plan.EstimatedSlippagePercent = step.SlippagePercent
		}
	}
	return plan
}

// RouteRequest describes one desired conversion between two domains.
type RouteRequest struct {
	FromDomain  id.Domain `json:"from_domain"`
	ToDomain    id.Domain `json:"to_domain"`
	FromToken   id.Token  `json:"from_token"`
	ToToken     id.Token  `json:"to_token"`
	AmountIn    float64   `json:"amount_in"`
	PrincipalID string    `json:"principal_id"`
}

// TxHandle references a dispatched transaction at the execution collaborator.
type TxHandle string

// ExecutionResult reports how far a plan got. CompletedSteps always lists
// exactly the handles of steps that settled before any failure.
type ExecutionResult struct {
	PlanID         string     `json:"plan_id"`
	Success        bool       `json:"success"`
	CompletedSteps []TxHandle `json:"completed_steps"`
	FailedStep     int        `json:"failed_step,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// StepRecord is the audit entry persisted after each settled step.
type StepRecord struct {
	PlanID      string        `json:"plan_id"`
	PrincipalID string        `json:"principal_id"`
	StepIndex   int           `json:"step_index"`
	Step        ExecutionStep `json:"step"`
	TxHandle    TxHandle      `json:"tx_handle"`
	Status      string        `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Envelope is the uniform CLI output wrapper.
type Envelope struct {
	Version   string     `json:"version"`
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error"`
	Warnings  []string   `json:"warnings,omitempty"`
	RequestID string     `json:"request_id"`
	Command   string     `json:"command"`
	Timestamp time.Time  `json:"timestamp"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const EnvelopeVersion = "v1"
