// Package execution drives selected plans step by step through an external
// execution collaborator.
package execution

import (
	"context"
	"fmt"
	"time"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/model"
	"go.uber.org/zap"
)

// Executor runs one plan strictly sequentially: each step's output funds the
// next, so there is nothing to parallelize within a plan. Independent plans
// may execute concurrently on separate Executor calls.
type Executor struct {
	collab  Collaborator
	records RecordStore
	log     *zap.Logger
}

func NewExecutor(collab Collaborator, records RecordStore, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{collab: collab, records: records, log: logger}
}

// ExecutePlan dispatches steps in order and stops on the first failure.
// There is no rollback: a failed plan may leave funds in an intermediate
// asset or domain, and the result says exactly how far execution got so the
// caller can remediate.
func (e *Executor) ExecutePlan(ctx context.Context, plan model.ExecutionPlan, principalID string) model.ExecutionResult {
	result := model.ExecutionResult{
		PlanID:         plan.PlanID,
		CompletedSteps: []model.TxHandle{},
	}
	if len(plan.Steps) == 0 {
		result.Error = "plan has no steps"
		return result
	}

	status := PlanStatusPending
	for i, step := range plan.Steps {
		status = PlanStatusExecuting
		if err := ctx.Err(); err != nil {
			// Cancellation between dispatches abandons the remaining steps;
			// an already-dispatched step is past recall.
			result.FailedStep = i
			result.Error = clierr.Wrap(clierr.CodeExecTimeout, fmt.Sprintf("execution abandoned before step %d", i), err).Error()
			e.logFailure(plan, principalID, i, status, result.Error)
			return result
		}

		handle, err := e.dispatch(ctx, step, principalID)
		if err != nil {
			status = PlanStatusFailed
			result.FailedStep = i
			result.Error = clierr.Wrap(clierr.CodeExecStep, fmt.Sprintf("step %d (%s via %s) failed", i, step.Type, step.Venue), err).Error()
			e.appendRecord(ctx, plan, principalID, i, step, "", stepStatusFailed)
			e.logFailure(plan, principalID, i, status, result.Error)
			return result
		}

		// Record before advancing so a crash mid-plan leaves an auditable
		// partial trail.
		e.appendRecord(ctx, plan, principalID, i, step, handle, stepStatusConfirmed)
		result.CompletedSteps = append(result.CompletedSteps, handle)
	}

	status = PlanStatusCompleted
	result.Success = true
	e.log.Info("plan executed",
		zap.String("plan_id", plan.PlanID),
		zap.String("principal_id", principalID),
		zap.String("status", string(status)),
		zap.Int("steps", len(plan.Steps)))
	return result
}

func (e *Executor) dispatch(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	switch step.Type {
	case model.StepTypeSwap:
		return e.collab.ExecuteSwap(ctx, step, principalID)
	case model.StepTypeBridge:
		return e.collab.ExecuteBridge(ctx, step, principalID)
	case model.StepTypeApproval:
		return e.collab.ExecuteApproval(ctx, step, principalID)
	default:
		return "", clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unknown step type %q", step.Type))
	}
}

func (e *Executor) appendRecord(ctx context.Context, plan model.ExecutionPlan, principalID string, index int, step model.ExecutionStep, handle model.TxHandle, status string) {
	if e.records == nil {
		return
	}
	record := model.StepRecord{
		PlanID:      plan.PlanID,
		PrincipalID: principalID,
		StepIndex:   index,
		Step:        step,
		TxHandle:    handle,
		Status:      status,
		Timestamp:   time.Now().UTC(),
	}
	if err := e.records.AppendRecord(context.WithoutCancel(ctx), record); err != nil {
		// The trail is best effort: halting here would strand funds worse
		// than a missing audit row.
		e.log.Error("append execution record failed",
			zap.String("plan_id", plan.PlanID),
			zap.Int("step_index", index),
			zap.Error(err))
	}
}

func (e *Executor) logFailure(plan model.ExecutionPlan, principalID string, index int, status PlanStatus, message string) {
	e.log.Warn("plan execution halted",
		zap.String("plan_id", plan.PlanID),
		zap.String("principal_id", principalID),
		zap.String("status", string(status)),
		zap.Int("failed_step", index),
		zap.String("error", message))
}
