// Package route discovers, filters, scores, and ranks execution plans.
package route

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/ggonzalez94/defi-router/internal/quote"
	"github.com/ggonzalez94/defi-router/internal/registry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Generator enumerates every structurally valid candidate plan for a
// request. It applies only structural constraints (venue coverage, bridge
// asset, liquidity floor); the budget clauses belong to the validator.
type Generator struct {
	quotes quote.Provider
	reg    *registry.Registry
	log    *zap.Logger
}

func NewGenerator(quotes quote.Provider, reg *registry.Registry, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{quotes: quotes, reg: reg, log: logger}
}

// Generate returns all candidate plans. A venue that cannot quote drops only
// its own candidate; the rest of the fan-out is unaffected. The only error
// returned is context cancellation.
func (g *Generator) Generate(ctx context.Context, req model.RouteRequest, budget model.RiskBudget) ([]model.ExecutionPlan, error) {
	if req.FromDomain == req.ToDomain {
		return g.sameDomain(ctx, req, budget)
	}
	return g.crossDomain(ctx, req, budget)
}

func (g *Generator) sameDomain(ctx context.Context, req model.RouteRequest, budget model.RiskBudget) ([]model.ExecutionPlan, error) {
	venues := g.reg.SwapVenuesOn(req.FromDomain)

	var mu sync.Mutex
	var plans []model.ExecutionPlan
	grp, grpCtx := errgroup.WithContext(ctx)
	for _, venue := range venues {
		grp.Go(func() error {
			step, ok := g.swapStep(grpCtx, req.FromDomain, venue.Name, req.FromToken, req.ToToken, req.AmountIn, budget)
			if !ok {
				return nil
			}
			plan := model.NewPlan(newPlanID(), []model.ExecutionStep{step})
			mu.Lock()
			plans = append(plans, plan)
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// crossDomain composes swap→bridge→swap per allowed bridge. When the source
// token already is the bridge asset the leading swap is omitted, which is the
// bridge-then-swap strategy degenerating into the same pipeline.
func (g *Generator) crossDomain(ctx context.Context, req model.RouteRequest, budget model.RiskBudget) ([]model.ExecutionPlan, error) {
	var mu sync.Mutex
	var plans []model.ExecutionPlan
	grp, grpCtx := errgroup.WithContext(ctx)
	for _, bridgeName := range budget.AllowedBridges {
		grp.Go(func() error {
			plan, ok := g.bridgeCandidate(grpCtx, req, budget, bridgeName)
			if !ok {
				return nil
			}
			mu.Lock()
			plans = append(plans, plan)
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (g *Generator) bridgeCandidate(ctx context.Context, req model.RouteRequest, budget model.RiskBudget, bridgeName string) (model.ExecutionPlan, bool) {
	bridge, ok := g.reg.BridgeVenue(bridgeName)
	if !ok {
		g.log.Warn("budget references unconfigured bridge", zap.String("bridge", bridgeName))
		return model.ExecutionPlan{}, false
	}
	if !bridge.Connects(req.FromDomain, req.ToDomain) {
		return model.ExecutionPlan{}, false
	}

	var steps []model.ExecutionStep
	amount := req.AmountIn
	token := req.FromToken

	if token != bridge.Asset {
		step, ok := g.bestSwapStep(ctx, req.FromDomain, token, bridge.Asset, amount, budget)
		if !ok {
			return model.ExecutionPlan{}, false
		}
		steps = append(steps, step)
		amount = step.AmountOut
		token = bridge.Asset
	}

	bridgeQuote, err := g.quotes.QuoteBridge(ctx, quote.BridgeRequest{
		FromDomain: req.FromDomain,
		ToDomain:   req.ToDomain,
		Venue:      bridge.Name,
		Asset:      bridge.Asset,
		AmountIn:   amount,
	})
	if err != nil {
		g.logQuoteFailure("bridge", bridge.Name, err)
		return model.ExecutionPlan{}, false
	}
	steps = append(steps, model.ExecutionStep{
		Type:            model.StepTypeBridge,
		Domain:          req.FromDomain,
		ToDomain:        req.ToDomain,
		Venue:           bridge.Name,
		FromToken:       token,
		ToToken:         token,
		AmountIn:        amount,
		AmountOut:       bridgeQuote.AmountOut,
		FeeUSD:          bridgeQuote.FeeUSD,
		GasUSD:          bridgeQuote.GasUSD,
		SlippagePercent: bridgeQuote.SlippagePercent,
		DurationSeconds: bridgeQuote.DurationSeconds,
	})
	amount = bridgeQuote.AmountOut

	if token != req.ToToken {
		step, ok := g.bestSwapStep(ctx, req.ToDomain, token, req.ToToken, amount, budget)
		if !ok {
			return model.ExecutionPlan{}, false
		}
		steps = append(steps, step)
	}

	return model.NewPlan(newPlanID(), steps), true
}

// bestSwapStep fans out over every swap venue on the domain and keeps the
// quote with the highest output.
func (g *Generator) bestSwapStep(ctx context.Context, domain id.Domain, from, to id.Token, amountIn float64, budget model.RiskBudget) (model.ExecutionStep, bool) {
	venues := g.reg.SwapVenuesOn(domain)

	var mu sync.Mutex
	var best model.ExecutionStep
	found := false
	grp, grpCtx := errgroup.WithContext(ctx)
	for _, venue := range venues {
		grp.Go(func() error {
			step, ok := g.swapStep(grpCtx, domain, venue.Name, from, to, amountIn, budget)
			if !ok {
				return nil
			}
			mu.Lock()
			if !found || step.AmountOut > best.AmountOut {
				best = step
				found = true
			}
			mu.Unlock()
			return nil
		})
	}
	_ = grp.Wait()
	return best, found
}

func (g *Generator) swapStep(ctx context.Context, domain id.Domain, venueName string, from, to id.Token, amountIn float64, budget model.RiskBudget) (model.ExecutionStep, bool) {
	q, err := g.quotes.QuoteSwap(ctx, quote.SwapRequest{
		Domain:    domain,
		Venue:     venueName,
		FromToken: from,
		ToToken:   to,
		AmountIn:  amountIn,
	})
	if err != nil {
		g.logQuoteFailure("swap", venueName, err)
		return model.ExecutionStep{}, false
	}
	if q.LiquidityUSD < budget.MinLiquidityUSD {
		g.log.Debug("venue below liquidity floor",
			zap.String("venue", venueName),
			zap.Float64("liquidity_usd", q.LiquidityUSD),
			zap.Float64("floor_usd", budget.MinLiquidityUSD))
		return model.ExecutionStep{}, false
	}
	return model.ExecutionStep{
		Type:            model.StepTypeSwap,
		Domain:          domain,
		ToDomain:        domain,
		Venue:           q.Venue,
		FromToken:       from,
		ToToken:         to,
		AmountIn:        amountIn,
		AmountOut:       q.AmountOut,
		FeeUSD:          q.FeeUSD,
		GasUSD:          q.GasUSD,
		SlippagePercent: q.SlippagePercent,
		DurationSeconds: q.DurationSeconds,
		LiquidityUSD:    q.LiquidityUSD,
	}, true
}

func (g *Generator) logQuoteFailure(kind, venue string, err error) {
	if quote.IsUnavailable(err) {
		g.log.Debug("venue quote unavailable", zap.String("kind", kind), zap.String("venue", venue), zap.Error(err))
		return
	}
	g.log.Warn("venue quote failed", zap.String("kind", kind), zap.String("venue", venue), zap.Error(err))
}

func newPlanID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "plan-" + hex.EncodeToString(buf)
}
