package registry

import (
	"fmt"
	"os"

	"github.com/ggonzalez94/defi-router/internal/id"
	"gopkg.in/yaml.v3"
)

type fileRegistry struct {
	ReferenceFeePercent float64           `yaml:"reference_fee_percent"`
	EstablishedVenues   []string          `yaml:"established_venues"`
	EstablishedBridges  []string          `yaml:"established_bridges"`
	RPC                 map[string]string `yaml:"rpc"`
	SwapVenues          []fileSwapVenue   `yaml:"swap_venues"`
	BridgeVenues        []fileBridgeVenue `yaml:"bridge_venues"`
}

type fileSwapVenue struct {
	Name            string             `yaml:"name"`
	Domains         []string           `yaml:"domains"`
	FeeBps          int64              `yaml:"fee_bps"`
	GasUSD          map[string]float64 `yaml:"gas_usd"`
	LiquidityUSD    map[string]float64 `yaml:"liquidity_usd"`
	SlippagePercent float64            `yaml:"slippage_percent"`
	DurationSeconds int64              `yaml:"duration_seconds"`
}

type fileBridgeVenue struct {
	Name            string   `yaml:"name"`
	Asset           string   `yaml:"asset"`
	Domains         []string `yaml:"domains"`
	FeeBps          int64    `yaml:"fee_bps"`
	GasUSD          float64  `yaml:"gas_usd"`
	DurationSeconds int64    `yaml:"duration_seconds"`
}

// FromFile loads a venue configuration from YAML, replacing the built-in
// tables entirely. Every reference is validated before the registry is
// handed out.
func FromFile(path string) (*Registry, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue file: %w", err)
	}
	var raw fileRegistry
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("parse venue file: %w", err)
	}

	swaps := make([]SwapVenue, 0, len(raw.SwapVenues))
	for _, fv := range raw.SwapVenues {
		venue := SwapVenue{
			Name:            fv.Name,
			FeeBps:          fv.FeeBps,
			SlippagePercent: fv.SlippagePercent,
			DurationSeconds: fv.DurationSeconds,
			GasUSD:          make(map[id.Domain]float64, len(fv.GasUSD)),
			LiquidityUSD:    make(map[id.Domain]float64, len(fv.LiquidityUSD)),
		}
		for _, slug := range fv.Domains {
			domain, err := id.ParseDomain(slug)
			if err != nil {
				return nil, fmt.Errorf("swap venue %q: %w", fv.Name, err)
			}
			venue.Domains = append(venue.Domains, domain)
		}
		for slug, gas := range fv.GasUSD {
			domain, err := id.ParseDomain(slug)
			if err != nil {
				return nil, fmt.Errorf("swap venue %q gas table: %w", fv.Name, err)
			}
			venue.GasUSD[domain] = gas
		}
		for slug, liq := range fv.LiquidityUSD {
			domain, err := id.ParseDomain(slug)
			if err != nil {
				return nil, fmt.Errorf("swap venue %q liquidity table: %w", fv.Name, err)
			}
			venue.LiquidityUSD[domain] = liq
		}
		swaps = append(swaps, venue)
	}

	bridges := make([]BridgeVenue, 0, len(raw.BridgeVenues))
	for _, fv := range raw.BridgeVenues {
		asset, err := id.ParseToken(fv.Asset)
		if err != nil {
			return nil, fmt.Errorf("bridge venue %q: %w", fv.Name, err)
		}
		venue := BridgeVenue{
			Name:            fv.Name,
			Asset:           asset,
			FeeBps:          fv.FeeBps,
			GasUSD:          fv.GasUSD,
			DurationSeconds: fv.DurationSeconds,
		}
		for _, slug := range fv.Domains {
			domain, err := id.ParseDomain(slug)
			if err != nil {
				return nil, fmt.Errorf("bridge venue %q: %w", fv.Name, err)
			}
			venue.Domains = append(venue.Domains, domain)
		}
		bridges = append(bridges, venue)
	}

	rpc := make(map[id.Domain]string, len(raw.RPC))
	for slug, url := range raw.RPC {
		domain, err := id.ParseDomain(slug)
		if err != nil {
			return nil, fmt.Errorf("rpc table: %w", err)
		}
		rpc[domain] = url
	}

	return New(swaps, bridges, raw.EstablishedVenues, raw.EstablishedBridges, rpc, raw.ReferenceFeePercent)
}
