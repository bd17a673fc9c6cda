package quote

import (
	"context"
	"fmt"

	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/ggonzalez94/defi-router/internal/registry"
)

// Static prices requests deterministically from the venue registry tables.
// It backs offline planning and tests; live deployments put the HTTP
// provider in front of it or replace it entirely.
type Static struct {
	reg *registry.Registry
}

func NewStatic(reg *registry.Registry) *Static {
	return &Static{reg: reg}
}

func (s *Static) QuoteSwap(_ context.Context, req SwapRequest) (model.Quote, error) {
	if req.AmountIn <= 0 {
		return model.Quote{}, Unavailable("swap amount must be positive")
	}
	venue, ok := s.reg.SwapVenue(req.Venue)
	if !ok {
		return model.Quote{}, Unavailable(fmt.Sprintf("unknown swap venue %q", req.Venue))
	}
	if !venue.OperatesOn(req.Domain) {
		return model.Quote{}, Unavailable(fmt.Sprintf("venue %q does not operate on %s", req.Venue, req.Domain))
	}
	if req.FromToken == req.ToToken {
		return model.Quote{}, Unavailable("swap requires two distinct tokens")
	}
	liquidity := venue.LiquidityUSD[req.Domain]
	if req.AmountIn > liquidity {
		return model.Quote{}, Unavailable(fmt.Sprintf("venue %q lacks depth for %.2f on %s", req.Venue, req.AmountIn, req.Domain))
	}
	fee := req.AmountIn * float64(venue.FeeBps) / 10_000
	return model.Quote{
		Venue:           venue.Name,
		AmountOut:       req.AmountIn - fee,
		FeeUSD:          fee,
		GasUSD:          venue.GasUSD[req.Domain],
		SlippagePercent: venue.SlippagePercent,
		LiquidityUSD:    liquidity,
		DurationSeconds: venue.DurationSeconds,
	}, nil
}

func (s *Static) QuoteBridge(_ context.Context, req BridgeRequest) (model.Quote, error) {
	if req.AmountIn <= 0 {
		return model.Quote{}, Unavailable("bridge amount must be positive")
	}
	venue, ok := s.reg.BridgeVenue(req.Venue)
	if !ok {
		return model.Quote{}, Unavailable(fmt.Sprintf("unknown bridge venue %q", req.Venue))
	}
	if venue.Asset != req.Asset {
		return model.Quote{}, Unavailable(fmt.Sprintf("bridge %q carries %s, not %s", req.Venue, venue.Asset, req.Asset))
	}
	if !venue.Connects(req.FromDomain, req.ToDomain) {
		return model.Quote{}, Unavailable(fmt.Sprintf("bridge %q does not connect %s to %s", req.Venue, req.FromDomain, req.ToDomain))
	}
	fee := req.AmountIn * float64(venue.FeeBps) / 10_000
	return model.Quote{
		Venue:           venue.Name,
		AmountOut:       req.AmountIn - fee,
		FeeUSD:          fee,
		GasUSD:          venue.GasUSD,
		DurationSeconds: venue.DurationSeconds,
	}, nil
}
