package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/defi-router/internal/id"
)

// TokenInfo resolves a routing-layer symbol to an ERC-20 deployment.
type TokenInfo struct {
	Address  common.Address
	Decimals int
}

// Canonical token deployments by domain. Execution refuses steps whose
// tokens are not listed here; extending the table is a config change, not a
// code path.
var tokensByDomain = map[id.Domain]map[id.Token]TokenInfo{
	id.DomainEthereum: {
		"USDC": {Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
		"USDT": {Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
		"WETH": {Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18},
		"DAI":  {Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18},
	},
	id.DomainArbitrum: {
		"USDC": {Address: common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), Decimals: 6},
		"USDT": {Address: common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9"), Decimals: 6},
		"WETH": {Address: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), Decimals: 18},
		"DAI":  {Address: common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"), Decimals: 18},
	},
	id.DomainOptimism: {
		"USDC": {Address: common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"), Decimals: 6},
		"WETH": {Address: common.HexToAddress("0x4200000000000000000000000000000000000006"), Decimals: 18},
		"DAI":  {Address: common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"), Decimals: 18},
	},
	id.DomainBase: {
		"USDC": {Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6},
		"WETH": {Address: common.HexToAddress("0x4200000000000000000000000000000000000006"), Decimals: 18},
	},
	id.DomainPolygon: {
		"USDC": {Address: common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"), Decimals: 6},
		"USDT": {Address: common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F"), Decimals: 6},
		"WETH": {Address: common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"), Decimals: 18},
	},
}

// Uniswap V3-compatible swap routers by domain, used for swap steps routed
// through venues that expose the SwapRouter02 interface.
var swapRouterByDomain = map[id.Domain]common.Address{
	id.DomainEthereum: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
	id.DomainArbitrum: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
	id.DomainOptimism: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
	id.DomainBase:     common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"),
	id.DomainPolygon:  common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
}

// Across SpokePool deployments by domain, used for bridge steps via across.
var acrossSpokePoolByDomain = map[id.Domain]common.Address{
	id.DomainEthereum: common.HexToAddress("0x5c7BCd6E7De5423a257D81B442095A1a6ced35C5"),
	id.DomainArbitrum: common.HexToAddress("0xe35e9842fceaCA96570B734083f4a58e8F7C5f2A"),
	id.DomainOptimism: common.HexToAddress("0x6f26Bf09B1C792e3228e5467807a900A503c0281"),
	id.DomainBase:     common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"),
	id.DomainPolygon:  common.HexToAddress("0x9295ee1d8C5b022Be115A2AD3c30C72E34e7F096"),
}

func tokenInfo(domain id.Domain, token id.Token) (TokenInfo, bool) {
	table, ok := tokensByDomain[domain]
	if !ok {
		return TokenInfo{}, false
	}
	info, ok := table[token]
	return info, ok
}
