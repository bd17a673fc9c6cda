package registry

import (
	"fmt"
	"strings"

	"github.com/ggonzalez94/defi-router/internal/id"
)

// SwapVenue is a configured single-domain exchange. Fee, gas, liquidity, and
// slippage figures are planning estimates, refreshed out of band; live
// numbers come from the quote provider backed by this table or by an
// aggregator service.
type SwapVenue struct {
	Name            string
	Domains         []id.Domain
	FeeBps          int64
	GasUSD          map[id.Domain]float64
	LiquidityUSD    map[id.Domain]float64
	SlippagePercent float64
	DurationSeconds int64
}

func (v SwapVenue) OperatesOn(domain id.Domain) bool {
	for _, d := range v.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// BridgeVenue moves its canonical asset between two domains.
type BridgeVenue struct {
	Name            string
	Asset           id.Token
	Domains         []id.Domain
	FeeBps          int64
	GasUSD          float64
	DurationSeconds int64
}

func (v BridgeVenue) Connects(from, to id.Domain) bool {
	var hasFrom, hasTo bool
	for _, d := range v.Domains {
		if d == from {
			hasFrom = true
		}
		if d == to {
			hasTo = true
		}
	}
	return hasFrom && hasTo && from != to
}

// Registry is the venue/domain configuration resolved at startup. Lookups
// against it cannot miss at runtime: construction validates every reference.
type Registry struct {
	swapVenues         []SwapVenue
	bridgeVenues       []BridgeVenue
	establishedVenues  map[string]bool
	establishedBridges map[string]bool
	rpcByDomain        map[id.Domain]string
	referenceFeePct    float64
}

// ReferenceFeePercent is the centralized-exchange baseline fee used by the
// savings metric.
func (r *Registry) ReferenceFeePercent() float64 { return r.referenceFeePct }

// SetReferenceFeePercent overrides the baseline fee after construction, for
// callers whose runtime configuration carries its own value. Non-positive
// values are ignored.
func (r *Registry) SetReferenceFeePercent(pct float64) {
	if pct > 0 {
		r.referenceFeePct = pct
	}
}

func (r *Registry) SwapVenuesOn(domain id.Domain) []SwapVenue {
	var out []SwapVenue
	for _, v := range r.swapVenues {
		if v.OperatesOn(domain) {
			out = append(out, v)
		}
	}
	return out
}

func (r *Registry) SwapVenue(name string) (SwapVenue, bool) {
	for _, v := range r.swapVenues {
		if v.Name == name {
			return v, true
		}
	}
	return SwapVenue{}, false
}

func (r *Registry) BridgeVenue(name string) (BridgeVenue, bool) {
	for _, v := range r.bridgeVenues {
		if v.Name == name {
			return v, true
		}
	}
	return BridgeVenue{}, false
}

func (r *Registry) BridgeVenues() []BridgeVenue {
	out := make([]BridgeVenue, len(r.bridgeVenues))
	copy(out, r.bridgeVenues)
	return out
}

func (r *Registry) BridgeNames() []string {
	out := make([]string, 0, len(r.bridgeVenues))
	for _, v := range r.bridgeVenues {
		out = append(out, v.Name)
	}
	return out
}

// IsEstablishedVenue reports membership in the venue reputation allow-list.
func (r *Registry) IsEstablishedVenue(name string) bool {
	return r.establishedVenues[name]
}

// IsEstablishedBridge reports membership in the small set of bridges with a
// long incident-free track record.
func (r *Registry) IsEstablishedBridge(name string) bool {
	return r.establishedBridges[name]
}

func (r *Registry) RPCURL(domain id.Domain) (string, bool) {
	url, ok := r.rpcByDomain[domain]
	return url, ok
}

// New builds a registry from explicit tables, validating every cross
// reference so a bad venue definition fails at load time rather than as a
// runtime lookup miss.
func New(swaps []SwapVenue, bridges []BridgeVenue, establishedVenues, establishedBridges []string, rpcByDomain map[id.Domain]string, referenceFeePct float64) (*Registry, error) {
	if referenceFeePct <= 0 {
		referenceFeePct = DefaultReferenceFeePercent
	}
	reg := &Registry{
		swapVenues:         swaps,
		bridgeVenues:       bridges,
		establishedVenues:  make(map[string]bool, len(establishedVenues)),
		establishedBridges: make(map[string]bool, len(establishedBridges)),
		rpcByDomain:        rpcByDomain,
		referenceFeePct:    referenceFeePct,
	}
	seen := make(map[string]bool)
	for _, v := range swaps {
		if strings.TrimSpace(v.Name) == "" {
			return nil, fmt.Errorf("registry: swap venue with empty name")
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("registry: duplicate venue %q", v.Name)
		}
		seen[v.Name] = true
		if len(v.Domains) == 0 {
			return nil, fmt.Errorf("registry: swap venue %q has no domains", v.Name)
		}
		for _, d := range v.Domains {
			if !id.IsDomain(string(d)) {
				return nil, fmt.Errorf("registry: swap venue %q references unknown domain %q", v.Name, d)
			}
		}
		if v.FeeBps < 0 {
			return nil, fmt.Errorf("registry: swap venue %q has negative fee", v.Name)
		}
	}
	for _, v := range bridges {
		if strings.TrimSpace(v.Name) == "" {
			return nil, fmt.Errorf("registry: bridge venue with empty name")
		}
		if seen[v.Name] {
			return nil, fmt.Errorf("registry: duplicate venue %q", v.Name)
		}
		seen[v.Name] = true
		if v.Asset == "" {
			return nil, fmt.Errorf("registry: bridge venue %q has no canonical asset", v.Name)
		}
		if len(v.Domains) < 2 {
			return nil, fmt.Errorf("registry: bridge venue %q must connect at least two domains", v.Name)
		}
		for _, d := range v.Domains {
			if !id.IsDomain(string(d)) {
				return nil, fmt.Errorf("registry: bridge venue %q references unknown domain %q", v.Name, d)
			}
		}
	}
	for _, name := range establishedVenues {
		if !seen[name] {
			return nil, fmt.Errorf("registry: established venue %q is not configured", name)
		}
		reg.establishedVenues[name] = true
	}
	for _, name := range establishedBridges {
		if _, ok := reg.BridgeVenue(name); !ok {
			return nil, fmt.Errorf("registry: established bridge %q is not configured", name)
		}
		reg.establishedBridges[name] = true
	}
	return reg, nil
}
