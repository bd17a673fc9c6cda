package id

import (
	"fmt"
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
)

// Domain identifies one independent execution environment. The set is closed
// and resolved at compile time; routing never sees a domain outside it.
type Domain string

const (
	DomainEthereum Domain = "ethereum"
	DomainArbitrum Domain = "arbitrum"
	DomainOptimism Domain = "optimism"
	DomainBase     Domain = "base"
	DomainPolygon  Domain = "polygon"
)

var domainBySlug = map[string]Domain{
	"ethereum": DomainEthereum,
	"mainnet":  DomainEthereum,
	"arbitrum": DomainArbitrum,
	"optimism": DomainOptimism,
	"base":     DomainBase,
	"polygon":  DomainPolygon,
}

var evmChainIDByDomain = map[Domain]int64{
	DomainEthereum: 1,
	DomainArbitrum: 42161,
	DomainOptimism: 10,
	DomainBase:     8453,
	DomainPolygon:  137,
}

func (d Domain) String() string { return string(d) }

// EVMChainID returns the EIP-155 chain id for the domain.
func (d Domain) EVMChainID() (int64, bool) {
	chainID, ok := evmChainIDByDomain[d]
	return chainID, ok
}

func ParseDomain(input string) (Domain, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	if slug == "" {
		return "", clierr.New(clierr.CodeUsage, "domain is required")
	}
	domain, ok := domainBySlug[slug]
	if !ok {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown domain %q (known: %s)", input, strings.Join(DomainSlugs(), ", ")))
	}
	return domain, nil
}

// IsDomain reports whether input names a known domain without parsing errors.
func IsDomain(input string) bool {
	_, err := ParseDomain(input)
	return err == nil
}

func AllDomains() []Domain {
	return []Domain{DomainEthereum, DomainArbitrum, DomainOptimism, DomainBase, DomainPolygon}
}

func DomainSlugs() []string {
	seen := make(map[string]bool, len(domainBySlug))
	out := make([]string, 0, len(domainBySlug))
	for _, d := range AllDomains() {
		if !seen[string(d)] {
			seen[string(d)] = true
			out = append(out, string(d))
		}
	}
	sort.Strings(out)
	return out
}

// Token is a normalized asset symbol. Token identity is symbolic at the
// routing layer; per-domain contract resolution belongs to execution.
type Token string

func ParseToken(input string) (Token, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	if symbol == "" {
		return "", clierr.New(clierr.CodeUsage, "token symbol is required")
	}
	return Token(symbol), nil
}

func (t Token) String() string { return string(t) }
