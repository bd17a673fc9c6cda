package execution

import (
	"context"

	"github.com/ggonzalez94/defi-router/internal/model"
)

// PlanStatus tracks one plan through the executor's state machine.
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusExecuting PlanStatus = "executing"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusFailed    PlanStatus = "failed"
)

const (
	stepStatusConfirmed = "confirmed"
	stepStatusFailed    = "failed"
)

// Collaborator dispatches individual steps to the outside world. The core
// never signs or broadcasts anything itself; a dispatched step cannot be
// recalled.
type Collaborator interface {
	ExecuteSwap(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error)
	ExecuteBridge(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error)
	ExecuteApproval(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error)
}

// RecordStore appends the audit trail entry for each settled step.
type RecordStore interface {
	AppendRecord(ctx context.Context, record model.StepRecord) error
}
