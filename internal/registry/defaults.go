package registry

import "github.com/ggonzalez94/defi-router/internal/id"

// DefaultReferenceFeePercent approximates a centralized-exchange taker fee.
const DefaultReferenceFeePercent = 0.1

// Canonical default EVM RPC endpoints by domain. Used whenever execution is
// wired without an explicit --rpc-url.
var defaultRPCByDomain = map[id.Domain]string{
	id.DomainEthereum: "https://eth.llamarpc.com",
	id.DomainArbitrum: "https://arb1.arbitrum.io/rpc",
	id.DomainOptimism: "https://mainnet.optimism.io",
	id.DomainBase:     "https://mainnet.base.org",
	id.DomainPolygon:  "https://polygon-rpc.com",
}

var defaultSwapVenues = []SwapVenue{
	{
		Name:    "uniswap",
		Domains: []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainBase, id.DomainPolygon},
		FeeBps:  30,
		GasUSD: map[id.Domain]float64{
			id.DomainEthereum: 12, id.DomainArbitrum: 0.4, id.DomainOptimism: 0.3,
			id.DomainBase: 0.2, id.DomainPolygon: 0.05,
		},
		LiquidityUSD: map[id.Domain]float64{
			id.DomainEthereum: 4_500_000, id.DomainArbitrum: 1_800_000, id.DomainOptimism: 900_000,
			id.DomainBase: 1_200_000, id.DomainPolygon: 600_000,
		},
		SlippagePercent: 0.25,
		DurationSeconds: 30,
	},
	{
		Name:    "sushiswap",
		Domains: []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainPolygon},
		FeeBps:  30,
		GasUSD: map[id.Domain]float64{
			id.DomainEthereum: 10, id.DomainArbitrum: 0.35, id.DomainPolygon: 0.04,
		},
		LiquidityUSD: map[id.Domain]float64{
			id.DomainEthereum: 800_000, id.DomainArbitrum: 350_000, id.DomainPolygon: 220_000,
		},
		SlippagePercent: 0.45,
		DurationSeconds: 30,
	},
	{
		Name:    "curve",
		Domains: []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainPolygon},
		FeeBps:  4,
		GasUSD: map[id.Domain]float64{
			id.DomainEthereum: 15, id.DomainArbitrum: 0.5, id.DomainOptimism: 0.4, id.DomainPolygon: 0.06,
		},
		LiquidityUSD: map[id.Domain]float64{
			id.DomainEthereum: 6_000_000, id.DomainArbitrum: 1_100_000, id.DomainOptimism: 450_000, id.DomainPolygon: 300_000,
		},
		SlippagePercent: 0.1,
		DurationSeconds: 45,
	},
	{
		Name:    "velodrome",
		Domains: []id.Domain{id.DomainOptimism, id.DomainBase},
		FeeBps:  20,
		GasUSD: map[id.Domain]float64{
			id.DomainOptimism: 0.25, id.DomainBase: 0.18,
		},
		LiquidityUSD: map[id.Domain]float64{
			id.DomainOptimism: 500_000, id.DomainBase: 650_000,
		},
		SlippagePercent: 0.4,
		DurationSeconds: 15,
	},
}

var defaultBridgeVenues = []BridgeVenue{
	{
		Name:            "across",
		Asset:           id.Token("USDC"),
		Domains:         []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainBase, id.DomainPolygon},
		FeeBps:          5,
		GasUSD:          2,
		DurationSeconds: 60,
	},
	{
		Name:            "hop",
		Asset:           id.Token("USDC"),
		Domains:         []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainPolygon},
		FeeBps:          8,
		GasUSD:          3,
		DurationSeconds: 300,
	},
	{
		Name:            "stargate",
		Asset:           id.Token("USDC"),
		Domains:         []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainOptimism, id.DomainBase, id.DomainPolygon},
		FeeBps:          6,
		GasUSD:          4,
		DurationSeconds: 120,
	},
	{
		Name:            "wormhole",
		Asset:           id.Token("WETH"),
		Domains:         []id.Domain{id.DomainEthereum, id.DomainArbitrum, id.DomainBase, id.DomainPolygon},
		FeeBps:          10,
		GasUSD:          5,
		DurationSeconds: 900,
	},
}

var defaultEstablishedVenues = []string{"uniswap", "curve"}

var defaultEstablishedBridges = []string{"across", "hop"}

// Default returns the built-in venue configuration.
func Default() *Registry {
	reg, err := New(defaultSwapVenues, defaultBridgeVenues, defaultEstablishedVenues, defaultEstablishedBridges, defaultRPCByDomain, DefaultReferenceFeePercent)
	if err != nil {
		// The built-in tables are validated by tests; a failure here is a
		// programming defect.
		panic(err)
	}
	return reg
}
