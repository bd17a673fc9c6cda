package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/model"
)

const erc20ABIJSON = `[{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

const swapRouterABIJSON = `[{"name":"exactInputSingle","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"fee","type":"uint24"},{"name":"recipient","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"},{"name":"sqrtPriceLimitX96","type":"uint160"}]}],"outputs":[{"name":"amountOut","type":"uint256"}]}]`

const spokePoolABIJSON = `[{"name":"depositV3","type":"function","stateMutability":"payable","inputs":[{"name":"depositor","type":"address"},{"name":"recipient","type":"address"},{"name":"inputToken","type":"address"},{"name":"outputToken","type":"address"},{"name":"inputAmount","type":"uint256"},{"name":"outputAmount","type":"uint256"},{"name":"destinationChainId","type":"uint256"},{"name":"exclusiveRelayer","type":"address"},{"name":"quoteTimestamp","type":"uint32"},{"name":"fillDeadline","type":"uint32"},{"name":"exclusivityDeadline","type":"uint32"},{"name":"message","type":"bytes"}],"outputs":[]}]`

var (
	erc20ABI      = mustABI(erc20ABIJSON)
	swapRouterABI = mustABI(swapRouterABIJSON)
	spokePoolABI  = mustABI(spokePoolABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

type encodedCall struct {
	target common.Address
	data   []byte
	value  *big.Int
}

// toBaseUnits converts a decimal token amount to integer base units.
func toBaseUnits(amount float64, decimals int) *big.Int {
	scaled := new(big.Float).SetFloat64(amount)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled.Mul(scaled, scale)
	out, _ := scaled.Int(nil)
	return out
}

func encodeApproval(step model.ExecutionStep) (encodedCall, error) {
	token, ok := tokenInfo(step.Domain, step.FromToken)
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("token %s has no deployment on %s", step.FromToken, step.Domain))
	}
	spender, err := spenderFor(step)
	if err != nil {
		return encodedCall{}, err
	}
	data, err := erc20ABI.Pack("approve", spender, toBaseUnits(step.AmountIn, token.Decimals))
	if err != nil {
		return encodedCall{}, clierr.Wrap(clierr.CodeInternal, "pack approve calldata", err)
	}
	return encodedCall{target: token.Address, data: data, value: big.NewInt(0)}, nil
}

// spenderFor picks the contract the approval authorizes: the swap router for
// swap-bound funds, the bridge pool for bridge-bound funds.
func spenderFor(step model.ExecutionStep) (common.Address, error) {
	if step.Venue == "across" {
		if pool, ok := acrossSpokePoolByDomain[step.Domain]; ok {
			return pool, nil
		}
		return common.Address{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("across has no pool on %s", step.Domain))
	}
	if router, ok := swapRouterByDomain[step.Domain]; ok {
		return router, nil
	}
	return common.Address{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("no swap router on %s", step.Domain))
}

func encodeSwap(step model.ExecutionStep, recipient common.Address, slippageBps int64) (encodedCall, error) {
	router, ok := swapRouterByDomain[step.Domain]
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("no swap router on %s", step.Domain))
	}
	tokenIn, ok := tokenInfo(step.Domain, step.FromToken)
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("token %s has no deployment on %s", step.FromToken, step.Domain))
	}
	tokenOut, ok := tokenInfo(step.Domain, step.ToToken)
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("token %s has no deployment on %s", step.ToToken, step.Domain))
	}

	amountIn := toBaseUnits(step.AmountIn, tokenIn.Decimals)
	minOut := applySlippage(toBaseUnits(step.AmountOut, tokenOut.Decimals), slippageBps)

	params := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		Fee               *big.Int
		Recipient         common.Address
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           tokenIn.Address,
		TokenOut:          tokenOut.Address,
		Fee:               big.NewInt(3000),
		Recipient:         recipient,
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}
	data, err := swapRouterABI.Pack("exactInputSingle", params)
	if err != nil {
		return encodedCall{}, clierr.Wrap(clierr.CodeInternal, "pack swap calldata", err)
	}
	return encodedCall{target: router, data: data, value: big.NewInt(0)}, nil
}

func encodeBridge(step model.ExecutionStep, depositor common.Address, slippageBps int64, quoteTimestamp, fillDeadline uint32) (encodedCall, error) {
	if step.Venue != "across" {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("bridge venue %q has no on-chain adapter", step.Venue))
	}
	pool, ok := acrossSpokePoolByDomain[step.Domain]
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("across has no pool on %s", step.Domain))
	}
	inputToken, ok := tokenInfo(step.Domain, step.FromToken)
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("token %s has no deployment on %s", step.FromToken, step.Domain))
	}
	outputToken, ok := tokenInfo(step.ToDomain, step.ToToken)
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("token %s has no deployment on %s", step.ToToken, step.ToDomain))
	}
	destChainID, ok := step.ToDomain.EVMChainID()
	if !ok {
		return encodedCall{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("domain %s has no EVM chain id", step.ToDomain))
	}

	inputAmount := toBaseUnits(step.AmountIn, inputToken.Decimals)
	outputAmount := applySlippage(toBaseUnits(step.AmountOut, outputToken.Decimals), slippageBps)

	data, err := spokePoolABI.Pack("depositV3",
		depositor,
		depositor,
		inputToken.Address,
		outputToken.Address,
		inputAmount,
		outputAmount,
		big.NewInt(destChainID),
		common.Address{},
		quoteTimestamp,
		fillDeadline,
		uint32(0),
		[]byte{},
	)
	if err != nil {
		return encodedCall{}, clierr.Wrap(clierr.CodeInternal, "pack bridge calldata", err)
	}
	return encodedCall{target: pool, data: data, value: big.NewInt(0)}, nil
}

func applySlippage(amount *big.Int, slippageBps int64) *big.Int {
	if slippageBps <= 0 {
		return amount
	}
	out := new(big.Int).Mul(amount, big.NewInt(10_000-slippageBps))
	return out.Div(out, big.NewInt(10_000))
}
