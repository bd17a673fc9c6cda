package quote

import (
	"context"
	"testing"

	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/registry"
)

func staticTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		[]registry.SwapVenue{{
			Name:            "uniswap",
			Domains:         []id.Domain{id.DomainEthereum},
			FeeBps:          30,
			GasUSD:          map[id.Domain]float64{id.DomainEthereum: 12},
			LiquidityUSD:    map[id.Domain]float64{id.DomainEthereum: 1_000_000},
			SlippagePercent: 0.3,
			DurationSeconds: 30,
		}},
		[]registry.BridgeVenue{{
			Name:            "across",
			Asset:           id.Token("USDC"),
			Domains:         []id.Domain{id.DomainEthereum, id.DomainBase},
			FeeBps:          5,
			GasUSD:          2,
			DurationSeconds: 60,
		}},
		nil, nil, nil, 0.1,
	)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func TestStaticQuoteSwap(t *testing.T) {
	provider := NewStatic(staticTestRegistry(t))

	q, err := provider.QuoteSwap(context.Background(), SwapRequest{
		Domain:    id.DomainEthereum,
		Venue:     "uniswap",
		FromToken: id.Token("WETH"),
		ToToken:   id.Token("USDC"),
		AmountIn:  1000,
	})
	if err != nil {
		t.Fatalf("QuoteSwap failed: %v", err)
	}
	if q.FeeUSD != 3 {
		t.Fatalf("fee = %f, want 3 (30 bps of 1000)", q.FeeUSD)
	}
	if q.AmountOut != 997 {
		t.Fatalf("amount out = %f, want 997", q.AmountOut)
	}
	if q.GasUSD != 12 || q.LiquidityUSD != 1_000_000 || q.SlippagePercent != 0.3 {
		t.Fatalf("table values not carried: %+v", q)
	}
	if q.DurationSeconds != 30 {
		t.Fatalf("duration = %d, want 30", q.DurationSeconds)
	}
}

func TestStaticQuoteSwapUnavailableCases(t *testing.T) {
	provider := NewStatic(staticTestRegistry(t))
	base := SwapRequest{
		Domain:    id.DomainEthereum,
		Venue:     "uniswap",
		FromToken: id.Token("WETH"),
		ToToken:   id.Token("USDC"),
		AmountIn:  1000,
	}

	cases := []struct {
		name   string
		mutate func(*SwapRequest)
	}{
		{"unknown venue", func(r *SwapRequest) { r.Venue = "ghost" }},
		{"wrong domain", func(r *SwapRequest) { r.Domain = id.DomainPolygon }},
		{"same token", func(r *SwapRequest) { r.ToToken = r.FromToken }},
		{"amount exceeds depth", func(r *SwapRequest) { r.AmountIn = 2_000_000 }},
		{"non-positive amount", func(r *SwapRequest) { r.AmountIn = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := provider.QuoteSwap(context.Background(), req)
			if !IsUnavailable(err) {
				t.Fatalf("expected unavailable, got %v", err)
			}
		})
	}
}

func TestStaticQuoteBridge(t *testing.T) {
	provider := NewStatic(staticTestRegistry(t))

	q, err := provider.QuoteBridge(context.Background(), BridgeRequest{
		FromDomain: id.DomainEthereum,
		ToDomain:   id.DomainBase,
		Venue:      "across",
		Asset:      id.Token("USDC"),
		AmountIn:   1000,
	})
	if err != nil {
		t.Fatalf("QuoteBridge failed: %v", err)
	}
	if q.FeeUSD != 0.5 || q.AmountOut != 999.5 {
		t.Fatalf("bridge math off: %+v", q)
	}
	if q.DurationSeconds != 60 || q.GasUSD != 2 {
		t.Fatalf("table values not carried: %+v", q)
	}
}

func TestStaticQuoteBridgeUnavailableCases(t *testing.T) {
	provider := NewStatic(staticTestRegistry(t))
	base := BridgeRequest{
		FromDomain: id.DomainEthereum,
		ToDomain:   id.DomainBase,
		Venue:      "across",
		Asset:      id.Token("USDC"),
		AmountIn:   1000,
	}

	cases := []struct {
		name   string
		mutate func(*BridgeRequest)
	}{
		{"unknown bridge", func(r *BridgeRequest) { r.Venue = "ghost" }},
		{"wrong asset", func(r *BridgeRequest) { r.Asset = id.Token("WETH") }},
		{"unconnected domains", func(r *BridgeRequest) { r.ToDomain = id.DomainPolygon }},
		{"same domain", func(r *BridgeRequest) { r.ToDomain = r.FromDomain }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := provider.QuoteBridge(context.Background(), req)
			if !IsUnavailable(err) {
				t.Fatalf("expected unavailable, got %v", err)
			}
		})
	}
}
