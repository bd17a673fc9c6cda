package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
)

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		amount   float64
		decimals int
		want     string
	}{
		{1, 6, "1000000"},
		{0.5, 6, "500000"},
		{1000, 6, "1000000000000"},
		{1, 18, "1000000000000000000"},
		{0, 6, "0"},
	}
	for _, tc := range cases {
		got := toBaseUnits(tc.amount, tc.decimals)
		if got.String() != tc.want {
			t.Fatalf("toBaseUnits(%f, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestApplySlippage(t *testing.T) {
	out := applySlippage(big.NewInt(10_000), 50)
	if out.Int64() != 9_950 {
		t.Fatalf("applySlippage = %d, want 9950", out.Int64())
	}
	same := applySlippage(big.NewInt(10_000), 0)
	if same.Int64() != 10_000 {
		t.Fatalf("zero slippage should be identity, got %d", same.Int64())
	}
}

func TestEncodeSwap(t *testing.T) {
	recipient := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	call, err := encodeSwap(model.ExecutionStep{
		Type:      model.StepTypeSwap,
		Domain:    id.DomainEthereum,
		ToDomain:  id.DomainEthereum,
		Venue:     "uniswap",
		FromToken: id.Token("USDC"),
		ToToken:   id.Token("WETH"),
		AmountIn:  1000,
		AmountOut: 0.3,
	}, recipient, 50)
	if err != nil {
		t.Fatalf("encodeSwap failed: %v", err)
	}
	if call.target != swapRouterByDomain[id.DomainEthereum] {
		t.Fatalf("swap should target the router, got %s", call.target)
	}
	if len(call.data) == 0 {
		t.Fatal("empty calldata")
	}
	method, err := swapRouterABI.MethodById(call.data[:4])
	if err != nil || method.Name != "exactInputSingle" {
		t.Fatalf("calldata selector wrong: %v %v", method, err)
	}
}

func TestEncodeSwapUnknownToken(t *testing.T) {
	_, err := encodeSwap(model.ExecutionStep{
		Domain:    id.DomainEthereum,
		FromToken: id.Token("SHIB"),
		ToToken:   id.Token("USDC"),
	}, common.Address{}, 0)
	if !clierr.HasCode(err, clierr.CodeUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestEncodeBridge(t *testing.T) {
	depositor := common.HexToAddress("0x00000000000000000000000000000000000000BB")
	call, err := encodeBridge(model.ExecutionStep{
		Type:      model.StepTypeBridge,
		Domain:    id.DomainEthereum,
		ToDomain:  id.DomainArbitrum,
		Venue:     "across",
		FromToken: id.Token("USDC"),
		ToToken:   id.Token("USDC"),
		AmountIn:  1000,
		AmountOut: 999.5,
	}, depositor, 50, 1_700_000_000, 1_700_003_600)
	if err != nil {
		t.Fatalf("encodeBridge failed: %v", err)
	}
	if call.target != acrossSpokePoolByDomain[id.DomainEthereum] {
		t.Fatalf("bridge should target the spoke pool, got %s", call.target)
	}
	method, err := spokePoolABI.MethodById(call.data[:4])
	if err != nil || method.Name != "depositV3" {
		t.Fatalf("calldata selector wrong: %v %v", method, err)
	}
}

func TestEncodeBridgeUnsupportedVenue(t *testing.T) {
	_, err := encodeBridge(model.ExecutionStep{
		Type:   model.StepTypeBridge,
		Domain: id.DomainEthereum,
		Venue:  "wormhole",
	}, common.Address{}, 0, 0, 0)
	if !clierr.HasCode(err, clierr.CodeUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestEncodeApprovalSpender(t *testing.T) {
	bridgeBound, err := encodeApproval(model.ExecutionStep{
		Type:      model.StepTypeApproval,
		Domain:    id.DomainEthereum,
		Venue:     "across",
		FromToken: id.Token("USDC"),
		AmountIn:  100,
	})
	if err != nil {
		t.Fatalf("encodeApproval failed: %v", err)
	}
	token, _ := tokenInfo(id.DomainEthereum, id.Token("USDC"))
	if bridgeBound.target != token.Address {
		t.Fatalf("approval must target the token contract, got %s", bridgeBound.target)
	}

	swapBound, err := encodeApproval(model.ExecutionStep{
		Type:      model.StepTypeApproval,
		Domain:    id.DomainEthereum,
		Venue:     "uniswap",
		FromToken: id.Token("USDC"),
		AmountIn:  100,
	})
	if err != nil {
		t.Fatalf("encodeApproval failed: %v", err)
	}
	// Same token, different spender, so the calldata must differ.
	if string(bridgeBound.data) == string(swapBound.data) {
		t.Fatal("bridge-bound and swap-bound approvals should authorize different spenders")
	}
}

func TestLocalSignerFromHex(t *testing.T) {
	signer, err := NewLocalSignerFromHex("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	if err != nil {
		t.Fatalf("NewLocalSignerFromHex failed: %v", err)
	}
	if signer.Address() == (common.Address{}) {
		t.Fatal("signer address not derived")
	}
}

func TestLocalSignerRejectsGarbage(t *testing.T) {
	if _, err := NewLocalSignerFromHex("not-a-key"); !clierr.HasCode(err, clierr.CodeSigner) {
		t.Fatalf("expected signer error, got %v", err)
	}
}
