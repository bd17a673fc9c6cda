package execution

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ggonzalez94/defi-router/internal/model"
)

// DryRun is a collaborator that dispatches nothing. It hands back
// deterministic handles so callers can exercise the full executor state
// machine, including the audit trail, without touching a chain. Handles are
// prefixed "dryrun:" and must never be mistaken for transactions.
type DryRun struct {
	seq atomic.Uint64
}

func NewDryRun() *DryRun { return &DryRun{} }

func (d *DryRun) ExecuteSwap(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	return d.handle(ctx, "swap", step)
}

func (d *DryRun) ExecuteBridge(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	return d.handle(ctx, "bridge", step)
}

func (d *DryRun) ExecuteApproval(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	return d.handle(ctx, "approval", step)
}

func (d *DryRun) handle(ctx context.Context, kind string, step model.ExecutionStep) (model.TxHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := d.seq.Add(1)
	return model.TxHandle(fmt.Sprintf("dryrun:%s:%s:%s:%d", kind, step.Domain, step.Venue, n)), nil
}
